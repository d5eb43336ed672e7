package clientstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/club-scheduler/internal/testfixtures"
)

type store interface {
	TokenJar
	ProfileCache
}

func TestStores(t *testing.T) {
	t.Parallel()

	factories := []struct {
		name string
		open func(t *testing.T, clock *testfixtures.Clock) store
	}{
		{
			name: "memory",
			open: func(t *testing.T, clock *testfixtures.Clock) store {
				return NewMemoryStore(clock.NowFunc())
			},
		},
		{
			name: "file",
			open: func(t *testing.T, clock *testfixtures.Clock) store {
				s, err := NewFileStore(filepath.Join(t.TempDir(), "clubctl"), clock.NowFunc())
				if err != nil {
					t.Fatalf("NewFileStore: %v", err)
				}
				return s
			},
		},
	}

	for _, factory := range factories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			t.Parallel()

			t.Run("token expires after seven days", func(t *testing.T) {
				t.Parallel()

				clock := testfixtures.NewClock(testfixtures.ReferenceTime())
				s := factory.open(t, clock)

				if _, ok, err := s.Token(); err != nil || ok {
					t.Fatalf("expected empty jar, got ok=%v err=%v", ok, err)
				}
				if err := s.SetToken("abc"); err != nil {
					t.Fatalf("SetToken: %v", err)
				}

				clock.Advance(TokenLifetime - time.Second)
				token, ok, err := s.Token()
				if err != nil || !ok || token != "abc" {
					t.Fatalf("expected token before expiry, got %q ok=%v err=%v", token, ok, err)
				}

				clock.Advance(time.Second)
				if _, ok, err := s.Token(); err != nil || ok {
					t.Fatalf("expected expired token, got ok=%v err=%v", ok, err)
				}
			})

			t.Run("rejects blank tokens", func(t *testing.T) {
				t.Parallel()

				s := factory.open(t, testfixtures.NewClock(testfixtures.ReferenceTime()))
				if err := s.SetToken("  "); !errors.Is(err, ErrEmptyToken) {
					t.Fatalf("expected ErrEmptyToken, got %v", err)
				}
			})

			t.Run("profile round trips and clears independently", func(t *testing.T) {
				t.Parallel()

				s := factory.open(t, testfixtures.NewClock(testfixtures.ReferenceTime()))
				profile := []byte(`{"id":1,"name":"Kim"}`)
				if err := s.SetProfile(profile); err != nil {
					t.Fatalf("SetProfile: %v", err)
				}
				if err := s.SetToken("abc"); err != nil {
					t.Fatalf("SetToken: %v", err)
				}

				got, ok, err := s.Profile()
				if err != nil || !ok || string(got) != string(profile) {
					t.Fatalf("unexpected profile %q ok=%v err=%v", got, ok, err)
				}

				if err := s.ClearProfile(); err != nil {
					t.Fatalf("ClearProfile: %v", err)
				}
				if _, ok, _ := s.Profile(); ok {
					t.Fatal("expected profile cleared")
				}
				if _, ok, _ := s.Token(); !ok {
					t.Fatal("expected token to survive profile clear")
				}

				if err := s.ClearToken(); err != nil {
					t.Fatalf("ClearToken: %v", err)
				}
				if err := s.ClearToken(); err != nil {
					t.Fatalf("second ClearToken: %v", err)
				}
			})
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())

	first, err := NewFileStore(dir, clock.NowFunc())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.SetToken("persisted"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	second, err := NewFileStore(dir, clock.NowFunc())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	token, ok, err := second.Token()
	if err != nil || !ok || token != "persisted" {
		t.Fatalf("expected persisted token, got %q ok=%v err=%v", token, ok, err)
	}

	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("expected private token file, got %v", perm)
	}
}

func TestFileStoreDiscardsCorruptToken(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, tokenFileName), []byte("{"), 0o600); err != nil {
		t.Fatalf("seed corrupt token: %v", err)
	}

	s, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, ok, err := s.Token(); err != nil || ok {
		t.Fatalf("expected corrupt token ignored, got ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, tokenFileName)); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt token file removed, got %v", err)
	}
}
