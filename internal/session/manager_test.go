package session

import (
	"testing"
	"time"

	"github.com/drapesim/backend/internal/scene"
)

func setupManager(t *testing.T, maxSessions int) *SessionManager {
	t.Helper()
	cfg := testConfig()
	cfg.MaxSessions = maxSessions
	sm := NewSessionManager(nil, nil, cfg)
	t.Cleanup(func() {
		for _, state := range sm.List() {
			sm.Close(state.Token, "test cleanup")
		}
	})
	return sm
}

func TestManagerCreateAndGet(t *testing.T) {
	sm := setupManager(t, 4)

	sess, err := sm.Create(scene.Default(), "127.0.0.1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(sess.Token) != 32 {
		t.Errorf("token length = %d, want 32 hex chars", len(sess.Token))
	}

	got, err := sm.Get(sess.Token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != sess {
		t.Errorf("Get returned a different session")
	}

	if _, err := sm.Get("nosuchtoken"); err != ErrNotFound {
		t.Errorf("Get(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestManagerRejectsInvalidProfile(t *testing.T) {
	sm := setupManager(t, 4)

	bad := scene.Default()
	bad.Segments = 0
	if _, err := sm.Create(bad, "127.0.0.1", false); err == nil {
		t.Fatalf("Create accepted a profile with zero segments")
	}
	if sm.ActiveCount() != 0 {
		t.Errorf("failed create left a session behind")
	}
}

func TestManagerEnforcesSessionLimit(t *testing.T) {
	sm := setupManager(t, 2)

	first, err := sm.Create(scene.Default(), "127.0.0.1", false)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := sm.Create(scene.Default(), "127.0.0.1", false); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	if _, err := sm.Create(scene.Default(), "127.0.0.1", false); err != ErrTooMany {
		t.Fatalf("third Create error = %v, want %v", err, ErrTooMany)
	}

	// Closing frees a slot immediately.
	if err := sm.Close(first.Token, "test"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := sm.Create(scene.Default(), "127.0.0.1", false); err != nil {
		t.Errorf("Create after Close failed: %v", err)
	}
}

func TestManagerCloseRemovesSession(t *testing.T) {
	sm := setupManager(t, 4)

	sess, err := sm.Create(scene.Default(), "127.0.0.1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := sm.Close(sess.Token, "test"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := sm.Get(sess.Token); err != ErrNotFound {
		t.Errorf("Get after Close error = %v, want %v", err, ErrNotFound)
	}
	if err := sm.Close(sess.Token, "again"); err != ErrNotFound {
		t.Errorf("double Close error = %v, want %v", err, ErrNotFound)
	}

	// The run loop should wind down once the close command lands.
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Errorf("session run loop did not stop after Close")
	}
}

func TestManagerListsLiveSessions(t *testing.T) {
	sm := setupManager(t, 4)

	a, _ := sm.Create(scene.Default(), "127.0.0.1", false)
	b, _ := sm.Create(scene.Default(), "127.0.0.2", false)

	states := sm.List()
	if len(states) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(states))
	}
	seen := map[string]bool{}
	for _, st := range states {
		seen[st.Token] = true
		if st.Status != StatusWaiting {
			t.Errorf("session %s status = %s, want %s", st.Token, st.Status, StatusWaiting)
		}
	}
	if !seen[a.Token] || !seen[b.Token] {
		t.Errorf("List missing created tokens: %v", seen)
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	sm := setupManager(t, 4)

	sess, err := sm.Create(scene.Default(), "127.0.0.1", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess.mu.Lock()
	sess.lastActive = time.Now().Add(-time.Hour)
	sess.mu.Unlock()

	sm.closeExpiredSessions()

	if _, err := sm.Get(sess.Token); err != ErrNotFound {
		t.Errorf("idle session still present after expiry sweep")
	}
}
