package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/storage"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db      *sql.DB
	session *cryptox.Session
	clock   *fakeClock
	media   *fakeMedia
	entries EntryService
	crypto  EncryptionService
}

var t0 = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      setupDB(t),
		session: cryptox.NewSession(),
		clock:   newClock(t0),
		media:   newFakeMedia(),
	}
	log := logging.NewNopLogger()
	f.entries = NewEntryService(f.db, f.session, log, WithClock(f.clock.Now), WithMediaStore(f.media))
	f.crypto = NewEncryptionService(f.db, f.session, log)
	return f
}

// ---- fake media ----

type fakeMedia struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted []string
	saveErr error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{blobs: map[string][]byte{}}
}

func (m *fakeMedia) SaveMediaFile(_ context.Context, r io.Reader, filename string) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", 0, m.saveErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return "", 0, err
	}
	path := "journal-media/" + filename
	m.blobs[path] = buf.Bytes()
	return path, n, nil
}

func (m *fakeMedia) DeleteMediaFile(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, path)
	m.deleted = append(m.deleted, path)
	return nil
}

var errDiskFull = errors.New("disk full")
