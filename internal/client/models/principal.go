package models

// Principal is the signed-in identity that owns a cloud backup.
type Principal struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}
