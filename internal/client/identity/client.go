// Package identity is a client for a Firebase Identity Toolkit style API
// that signs users in with an emailed link.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/dmitrijs2005/prayerkeeper/internal/netx"
)

type Client struct {
	http     *http.Client
	authURL  string
	tokenURL string
	apiKey   string
}

func NewClient(client *http.Client, authURL, tokenURL, apiKey string) *Client {
	return &Client{
		http:     client,
		authURL:  strings.TrimRight(authURL, "/"),
		tokenURL: strings.TrimRight(tokenURL, "/"),
		apiKey:   apiKey,
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// describe turns an API error body into a readable error. Rejected
// credentials map to common.ErrorUnauthorized.
func describe(op string, err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var body apiError
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error.Message != "" {
		if se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s: %s: %w", op, body.Error.Message, common.ErrorUnauthorized)
		}
		return fmt.Errorf("%s: %s", op, body.Error.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return netx.DoJSON(c.http, req, out)
}

func (c *Client) endpoint(base, path string) string {
	return base + path + "?key=" + url.QueryEscape(c.apiKey)
}

// SendSignInLink asks the provider to email a sign-in link that returns
// to continueURL.
func (c *Client) SendSignInLink(ctx context.Context, email, continueURL string) error {
	in := map[string]any{
		"requestType":        "EMAIL_SIGNIN",
		"email":              email,
		"continueUrl":        continueURL,
		"canHandleCodeInApp": true,
	}
	if err := c.postJSON(ctx, c.endpoint(c.authURL, "/v1/accounts:sendOobCode"), in, nil); err != nil {
		return describe("send sign-in link", err)
	}
	return nil
}

// SignInWithEmailLink exchanges the one-time code from the link for tokens.
func (c *Client) SignInWithEmailLink(ctx context.Context, email, oobCode string) (models.Principal, error) {
	in := map[string]string{"email": email, "oobCode": oobCode}
	var out struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
	}
	if err := c.postJSON(ctx, c.endpoint(c.authURL, "/v1/accounts:signInWithEmailLink"), in, &out); err != nil {
		return models.Principal{}, describe("sign in with email link", err)
	}
	if out.LocalID == "" || out.IDToken == "" {
		return models.Principal{}, fmt.Errorf("sign in with email link: %w", common.ErrInvalidToken)
	}
	if out.Email == "" {
		out.Email = email
	}
	return models.Principal{UID: out.LocalID, Email: out.Email, IDToken: out.IDToken, RefreshToken: out.RefreshToken}, nil
}

// Refresh mints a new ID token. The returned principal carries no email.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.Principal, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.tokenURL, "/v1/token"), strings.NewReader(form.Encode()))
	if err != nil {
		return models.Principal{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
	}
	if err := netx.DoJSON(c.http, req, &out); err != nil {
		return models.Principal{}, describe("refresh token", err)
	}
	if out.IDToken == "" {
		return models.Principal{}, fmt.Errorf("refresh token: %w", common.ErrInvalidToken)
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return models.Principal{UID: out.UserID, IDToken: out.IDToken, RefreshToken: out.RefreshToken}, nil
}
