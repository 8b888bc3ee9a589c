package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/cloud"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/storage"
	"github.com/dmitrijs2005/prayerkeeper/internal/dbx"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() logging.Logger { return logging.Discard() }

func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func status(s models.Status) *models.Status { return &s }

func intPtr(n int) *int { return &n }

func makeJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "uid-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// ---- fakes ----

// failingReads serves writes from the wrapped repository and fails every
// full read.
type failingReads struct {
	records.Repository
	err error
}

func (f failingReads) GetAll(context.Context) (models.RecordSet, error) {
	return nil, f.err
}

func withFailingReads(s *RecordService, err error) {
	s.repo = func(db dbx.DBTX) records.Repository {
		return failingReads{Repository: records.NewSQLiteRepository(db), err: err}
	}
}

type fakeStore struct {
	mu sync.Mutex

	objects   map[string]models.RecordSet
	fetchErr  error
	uploadErr error
	block     chan struct{}

	fetches int
	uploads int
}

var _ cloud.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]models.RecordSet{}}
}

func (f *fakeStore) Fetch(ctx context.Context, uid string) (models.RecordSet, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	set, ok := f.objects[uid]
	if !ok {
		return nil, cloud.ErrNotFound
	}
	return set.Clone(), nil
}

func (f *fakeStore) Upload(ctx context.Context, uid string, set models.RecordSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[uid] = set.Clone()
	return nil
}

type fakePrincipals struct {
	principal  models.Principal
	signedIn   bool
	subscribed bool
}

func (f *fakePrincipals) CurrentPrincipal(context.Context) (models.Principal, bool) {
	return f.principal, f.signedIn
}

func (f *fakePrincipals) IsSubscribed(context.Context) bool { return f.subscribed }

type fakeIDP struct {
	sentTo      string
	continueURL string
	sendErr     error

	signInEmail string
	signInCode  string
	signInRet   models.Principal
	signInErr   error

	refreshCalls int
	refreshRet   models.Principal
	refreshErr   error
}

func (f *fakeIDP) SendSignInLink(ctx context.Context, email, continueURL string) error {
	f.sentTo, f.continueURL = email, continueURL
	return f.sendErr
}

func (f *fakeIDP) SignInWithEmailLink(ctx context.Context, email, oobCode string) (models.Principal, error) {
	f.signInEmail, f.signInCode = email, oobCode
	return f.signInRet, f.signInErr
}

func (f *fakeIDP) Refresh(ctx context.Context, refreshToken string) (models.Principal, error) {
	f.refreshCalls++
	return f.refreshRet, f.refreshErr
}

type countingMarker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingMarker) MarkDirty(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}
