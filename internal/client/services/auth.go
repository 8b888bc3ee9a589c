package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/dmitrijs2005/prayerkeeper/internal/dbx"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenLeeway is how close to expiry a cached ID token is still reused.
const tokenLeeway = time.Minute

// IdentityProvider is the remote side of email-link sign-in.
type IdentityProvider interface {
	SendSignInLink(ctx context.Context, email, continueURL string) error
	SignInWithEmailLink(ctx context.Context, email, oobCode string) (models.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (models.Principal, error)
}

// AuthService owns the signed-in principal and the cloud backup opt-in.
// All state lives in the metadata table.
type AuthService struct {
	db          *sql.DB
	idp         IdentityProvider
	continueURL string
	now         func() time.Time
	log         logging.Logger

	tokenMu sync.Mutex
}

func NewAuthService(db *sql.DB, idp IdentityProvider, continueURL string, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		idp:         idp,
		continueURL: continueURL,
		now:         time.Now,
		log:         log.With("component", "auth"),
	}
}

func (a *AuthService) meta() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// RequestSignIn emails a sign-in link and remembers the address on this
// device; CompleteSignIn requires it.
func (a *AuthService) RequestSignIn(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email %q", email)
	}
	if err := a.idp.SendSignInLink(ctx, email, a.continueURL); err != nil {
		return err
	}
	if err := metadata.SetString(ctx, a.meta(), keyEmailForSignIn, email); err != nil {
		return err
	}
	a.log.Info(ctx, "sign-in link sent")
	return nil
}

// parseSignInLink extracts the one-time code from a sign-in link. Links
// opened through an app scheme are rewritten to https, and links wrapped
// in a "link" parameter are unwrapped.
func parseSignInLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if i := strings.Index(link, "://"); i > 0 && !strings.HasPrefix(link, "http") {
		link = "https" + link[i:]
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidSignInLink, err)
	}
	q := u.Query()
	if inner := q.Get("link"); inner != "" && q.Get("oobCode") == "" {
		return parseSignInLink(inner)
	}
	if mode := q.Get("mode"); mode != "" && mode != "signIn" {
		return "", fmt.Errorf("%w: mode %q", common.ErrInvalidSignInLink, mode)
	}
	code := q.Get("oobCode")
	if code == "" {
		return "", fmt.Errorf("%w: no code", common.ErrInvalidSignInLink)
	}
	return code, nil
}

// CompleteSignIn finishes a sign-in started by RequestSignIn on this
// device and enables cloud backup.
func (a *AuthService) CompleteSignIn(ctx context.Context, link string) (models.Principal, error) {
	code, err := parseSignInLink(link)
	if err != nil {
		return models.Principal{}, err
	}

	email, ok, err := metadata.GetString(ctx, a.meta(), keyEmailForSignIn)
	if err != nil {
		return models.Principal{}, err
	}
	if !ok || email == "" {
		return models.Principal{}, common.ErrEmailMismatch
	}

	p, err := a.idp.SignInWithEmailLink(ctx, email, code)
	if err != nil {
		return models.Principal{}, err
	}
	if p.Email == "" {
		p.Email = email
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := metadata.SetJSON(ctx, repo, keyPrincipal, p); err != nil {
			return err
		}
		if err := metadata.SetBool(ctx, repo, keySubscribed, true); err != nil {
			return err
		}
		if err := metadata.SetString(ctx, repo, keyEmail, p.Email); err != nil {
			return err
		}
		return repo.Delete(ctx, keyEmailForSignIn)
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("failed to store sign-in: %w", err)
	}

	a.log.Info(ctx, "signed in", "uid", p.UID)
	return p, nil
}

// CurrentPrincipal returns the signed-in identity, if any.
func (a *AuthService) CurrentPrincipal(ctx context.Context) (models.Principal, bool) {
	var p models.Principal
	ok, err := metadata.GetJSON(ctx, a.meta(), keyPrincipal, &p)
	if err != nil {
		a.log.Warn(ctx, "read principal failed", "error", err)
		return models.Principal{}, false
	}
	if !ok || p.UID == "" {
		return models.Principal{}, false
	}
	return p, true
}

// Email is the address of the last completed sign-in.
func (a *AuthService) Email(ctx context.Context) string {
	email, _, err := metadata.GetString(ctx, a.meta(), keyEmail)
	if err != nil {
		a.log.Warn(ctx, "read email failed", "error", err)
	}
	return email
}

// IsSubscribed reports the cloud backup opt-in. Errors read as false.
func (a *AuthService) IsSubscribed(ctx context.Context) bool {
	v, err := metadata.GetBool(ctx, a.meta(), keySubscribed)
	if err != nil {
		a.log.Warn(ctx, "read subscription flag failed", "error", err)
		return false
	}
	return v
}

func (a *AuthService) SetSubscribed(ctx context.Context, on bool) error {
	return metadata.SetBool(ctx, a.meta(), keySubscribed, on)
}

// SignOut forgets the principal and disables backup. Records and the
// sync baseline are kept.
func (a *AuthService) SignOut(ctx context.Context) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := metadata.DeletePrefix(ctx, repo, identityPrefix); err != nil {
			return err
		}
		return metadata.SetBool(ctx, repo, keySubscribed, false)
	})
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	a.log.Info(ctx, "signed out")
	return nil
}

// tokenValid reports whether an ID token is still usable at now. The
// signature is not checked; the token is only forwarded.
func tokenValid(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.After(now.Add(tokenLeeway))
}

// Token returns a bearer credential for the signed-in principal,
// refreshing and persisting it when the cached one is about to expire.
func (a *AuthService) Token(ctx context.Context) (string, error) {
	a.tokenMu.Lock()
	defer a.tokenMu.Unlock()

	p, ok := a.CurrentPrincipal(ctx)
	if !ok {
		return "", common.ErrorUnauthorized
	}
	if tokenValid(p.IDToken, a.now()) {
		return p.IDToken, nil
	}
	if p.RefreshToken == "" {
		return "", common.ErrorUnauthorized
	}

	fresh, err := a.idp.Refresh(ctx, p.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	p.IDToken = fresh.IDToken
	p.RefreshToken = fresh.RefreshToken
	if err := metadata.SetJSON(ctx, a.meta(), keyPrincipal, p); err != nil {
		return "", err
	}
	a.log.Debug(ctx, "token refreshed", "uid", p.UID)
	return p.IDToken, nil
}

// DeviceID returns a random identifier created on first use and kept for
// the life of the install.
func (a *AuthService) DeviceID(ctx context.Context) (string, error) {
	repo := a.meta()
	id, ok, err := metadata.GetString(ctx, repo, keyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := metadata.SetString(ctx, repo, keyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
