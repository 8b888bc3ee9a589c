package common

// AuthorizationHeaderName carries the bearer credential on outbound
// requests to the identity and storage APIs.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// DateLayout is the canonical key format of a prayer day.
const DateLayout = "2006-01-02"
