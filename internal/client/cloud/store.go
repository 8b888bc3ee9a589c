// Package cloud moves a whole RecordSet to and from a remote object store.
// Each identity owns exactly one object; an upload replaces it.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
)

// ErrNotFound is returned by Fetch when the identity has no backup yet.
var ErrNotFound = common.ErrorNotFound

const (
	BackendHTTP = "http"
	BackendS3   = "s3"
)

// Store is a remote backup location.
type Store interface {
	Fetch(ctx context.Context, uid string) (models.RecordSet, error)
	Upload(ctx context.Context, uid string, set models.RecordSet) error
}

// TokenSource mints a bearer credential for the current identity.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ObjectPath is the object key holding the backup of uid.
func ObjectPath(uid string) string {
	return "backups/" + uid + "/data.json"
}

func decodeSet(data []byte) (models.RecordSet, error) {
	var set models.RecordSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if set == nil {
		set = models.RecordSet{}
	}
	return set, nil
}

func encodeSet(set models.RecordSet) ([]byte, error) {
	if set == nil {
		set = models.RecordSet{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// Options selects and configures a backend.
type Options struct {
	Backend string

	// http backend
	BaseURL string
	Bucket  string

	// s3 backend
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// New builds the Store named by opts.Backend.
func New(ctx context.Context, opts Options, client *http.Client, tokens TokenSource) (Store, error) {
	switch opts.Backend {
	case "", BackendHTTP:
		return NewHTTPStore(client, opts.BaseURL, opts.Bucket, tokens), nil
	case BackendS3:
		return NewS3Store(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown backup backend %q", opts.Backend)
	}
}
