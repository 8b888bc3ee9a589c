package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/dmitrijs2005/prayerkeeper/internal/netx"
)

// HTTPStore talks to a Firebase-Storage style REST API.
type HTTPStore struct {
	client  *http.Client
	baseURL string
	bucket  string
	tokens  TokenSource
}

func NewHTTPStore(client *http.Client, baseURL, bucket string, tokens TokenSource) *HTTPStore {
	return &HTTPStore{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		tokens:  tokens,
	}
}

func (s *HTTPStore) authorize(ctx context.Context, req *http.Request) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return nil
}

func (s *HTTPStore) Fetch(ctx context.Context, uid string) (models.RecordSet, error) {
	u := fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media", s.baseURL, url.PathEscape(s.bucket), url.PathEscape(ObjectPath(uid)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch backup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := netx.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to fetch backup: %w", err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return decodeSet(data)
}

func (s *HTTPStore) Upload(ctx context.Context, uid string, set models.RecordSet) error {
	data, err := encodeSet(set)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/v0/b/%s/o?uploadType=media&name=%s", s.baseURL, url.PathEscape(s.bucket), url.QueryEscape(ObjectPath(uid)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := s.authorize(ctx, req); err != nil {
		return err
	}

	if err := netx.DoJSON(s.client, req, nil); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}
	return nil
}
