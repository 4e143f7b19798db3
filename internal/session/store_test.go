package session

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSession() *model.Session {
	return &model.Session{
		Cookies:    []model.Cookie{{Name: "sid", Value: "abc", Domain: ".roberthalf.com"}},
		UserAgent:  "Mozilla/5.0 test",
		AcquiredAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, true, discardLogger())

	want := sampleSession()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.UserAgent != want.UserAgent {
		t.Errorf("UserAgent = %q, want %q", got.UserAgent, want.UserAgent)
	}
	if len(got.Cookies) != 1 || got.Cookies[0].Value != "abc" {
		t.Errorf("Cookies = %+v", got.Cookies)
	}
	if !got.AcquiredAt.Equal(want.AcquiredAt) {
		t.Errorf("AcquiredAt = %v, want %v", got.AcquiredAt, want.AcquiredAt)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"), true, discardLogger())
	_, err := store.Load()
	if err != model.ErrNoSession {
		t.Fatalf("Load = %v, want ErrNoSession", err)
	}
}

func TestFileStore_LoadCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path, true, discardLogger())
	_, err := store.Load()
	if err != model.ErrNoSession {
		t.Fatalf("Load = %v, want ErrNoSession for corrupted file", err)
	}
	// The bad file should be gone.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupted session file was not deleted")
	}
}

func TestFileStore_LoadIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"cookies":[],"user_agent":""}`), 0600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path, true, discardLogger())
	if _, err := store.Load(); err != model.ErrNoSession {
		t.Fatalf("Load = %v, want ErrNoSession for incomplete file", err)
	}
}

func TestFileStore_SaveReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, true, discardLogger())

	first := sampleSession()
	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}

	second := sampleSession()
	second.Cookies = []model.Cookie{{Name: "sid", Value: "xyz"}, {Name: "csrf", Value: "123"}}
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Cookies) != 2 || got.Cookies[0].Value != "xyz" {
		t.Errorf("Cookies = %+v, old record leaked through", got.Cookies)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only session.json in dir, found %d entries", len(entries))
	}
}

func TestFileStore_SaveDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, false, discardLogger())

	if err := store.Save(sampleSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Save wrote a file with saving disabled")
	}
	if _, err := store.Load(); err != model.ErrNoSession {
		t.Errorf("Load = %v, want ErrNoSession with saving disabled", err)
	}
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, true, discardLogger())

	if err := store.Save(sampleSession()); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.Load(); err != model.ErrNoSession {
		t.Errorf("Load after Clear = %v, want ErrNoSession", err)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}
