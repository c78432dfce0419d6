package session

import (
	"context"
	"errors"
	"testing"

	"github.com/claude/pulseboard/internal/demo"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestLifecycle walks a session through login, demo and logout and checks the
// flags read back after each step.
func TestLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.SignedIn() || created.DemoMode {
		t.Fatalf("new session = %+v, want empty flags", created)
	}

	steps := []struct {
		name      string
		apply     func(id string) (Flags, error)
		wantEmail string
		wantDemo  bool
	}{
		{"login", func(id string) (Flags, error) { return s.Login(ctx, id, " ada@example.com ") }, "ada@example.com", false},
		{"enter demo", func(id string) (Flags, error) { return s.EnterDemo(ctx, id) }, demo.Email, true},
		{"exit demo", func(id string) (Flags, error) { return s.ExitDemo(ctx, id) }, "", false},
		{"login again", func(id string) (Flags, error) { return s.Login(ctx, id, "ada@example.com") }, "ada@example.com", false},
		{"logout", func(id string) (Flags, error) { return s.Logout(ctx, id) }, "", false},
	}
	for _, step := range steps {
		if _, err := step.apply(created.ID); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		got, err := s.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("%s: Get: %v", step.name, err)
		}
		if got.UserEmail != step.wantEmail || got.DemoMode != step.wantDemo {
			t.Errorf("%s: flags = %q/%v, want %q/%v", step.name, got.UserEmail, got.DemoMode, step.wantEmail, step.wantDemo)
		}
	}
}

// TestGetUnknown verifies unknown IDs report ErrNotFound.
func TestGetUnknown(t *testing.T) {
	s := openStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestLoginRequiresEmail verifies a blank email is refused and leaves the session alone.
func TestLoginRequiresEmail(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	f, _ := s.Create(ctx)

	if _, err := s.Login(ctx, f.ID, "   "); err == nil {
		t.Error("expected error for blank email")
	}
	got, err := s.Get(ctx, f.ID)
	if err != nil || got.SignedIn() {
		t.Errorf("session after refused login = %+v, %v", got, err)
	}
}

// TestPersistsAcrossReopen verifies flags survive closing the database.
func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := s.Create(ctx)
	if _, err := s.EnterDemo(ctx, f.ID); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(ctx, f.ID)
	if err != nil || !got.DemoMode {
		t.Errorf("reopened flags = %+v, %v; want demo mode", got, err)
	}
}
