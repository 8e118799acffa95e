package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/scene"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrTooMany      = errors.New("session limit reached")
	ErrAlreadyEnded = errors.New("session already closed")
)

// SessionManager owns all live sessions.
type SessionManager struct {
	sessions map[string]*Session // keyed by token
	rdb      *redis.Client
	db       *sqlx.DB
	config   *config.Config
	sink     Sink
	mu       sync.RWMutex
}

// Manager is the global session manager instance.
var Manager *SessionManager

var instanceID = generateToken(4)

// InstanceID identifies this server process in cross-instance events.
func InstanceID() string {
	return instanceID
}

// InitializeManager initializes the global session manager and starts its
// background jobs.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	Manager = NewSessionManager(db, rdb, cfg)
	go Manager.StartExpiryChecker()
	return Manager
}

// NewSessionManager creates a session manager.
func NewSessionManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		rdb:      rdb,
		db:       db,
		config:   cfg,
	}
}

// SetSink wires the broadcast destination. Called once at startup, before
// any session exists; the hub cannot be constructed before the manager.
func (sm *SessionManager) SetSink(sink Sink) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sink = sink
}

// generateToken generates a secure random token.
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Create builds a session from a scene profile, starts its run loop and
// returns it. Fails when the live-session limit is reached.
func (sm *SessionManager) Create(profile scene.Profile, clientIP string, ambientGusts bool) (*Session, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	sm.mu.Lock()
	if len(sm.sessions) >= sm.config.MaxSessions {
		sm.mu.Unlock()
		return nil, ErrTooMany
	}

	token := generateToken(16)
	sess := newSession(token, profile, sm.config, sm.sink, sm.db, sm.rdb)
	sm.sessions[token] = sess
	sm.mu.Unlock()

	if sm.db != nil {
		var id int
		err := sm.db.QueryRowx(`INSERT INTO sessions (token, scene_name, segments, size, status, client_ip, created_at) VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id`,
			token, profile.Name, profile.Segments, profile.Size, string(StatusWaiting), clientIP).Scan(&id)
		if err != nil {
			logger.Sugar.Warnw("failed to persist session row", "token", token, "err", err)
		} else {
			sess.recordID = id
		}
	}

	if ambientGusts {
		sm.scheduleGust(token)
	}

	go sess.Run()
	sess.saveSnapshot()

	logger.Sugar.Infow("session created", "token", token, "scene", profile.Name, "segments", profile.Segments)
	return sess, nil
}

// Get returns the live session for a token.
func (sm *SessionManager) Get(token string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sess, exists := sm.sessions[token]
	if !exists {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Close ends a session and removes it from the manager.
func (sm *SessionManager) Close(token, reason string) error {
	sm.mu.Lock()
	sess, exists := sm.sessions[token]
	if !exists {
		sm.mu.Unlock()
		return ErrNotFound
	}
	delete(sm.sessions, token)
	sm.mu.Unlock()

	sm.unscheduleGust(token)
	sess.Enqueue(Command{Name: CmdClose, Reason: reason})

	logger.Sugar.Infow("session closed", "token", token, "reason", reason)
	return nil
}

// List snapshots every live session, for the admin surface.
func (sm *SessionManager) List() []StatePayload {
	sm.mu.RLock()
	all := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		all = append(all, sess)
	}
	sm.mu.RUnlock()

	out := make([]StatePayload, 0, len(all))
	for _, sess := range all {
		out = append(out, sess.State())
	}
	return out
}

// ActiveCount returns the number of live sessions.
func (sm *SessionManager) ActiveCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StartExpiryChecker runs a background job closing idle sessions.
func (sm *SessionManager) StartExpiryChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		sm.closeExpiredSessions()
	}
}

// closeExpiredSessions closes clientless sessions idle beyond the
// configured expiry. A session with a connected viewer never expires,
// however long since the last command.
func (sm *SessionManager) closeExpiredSessions() {
	maxIdle := time.Duration(sm.config.SessionExpiryMinutes) * time.Minute
	cutoff := time.Now().Add(-maxIdle)

	// Collect candidates under read lock, close outside it.
	sm.mu.RLock()
	var expired []string
	for token, sess := range sm.sessions {
		if sess.Clients() == 0 && sess.LastActive().Before(cutoff) {
			expired = append(expired, token)
		}
	}
	sm.mu.RUnlock()

	for _, token := range expired {
		if err := sm.Close(token, "expired"); err == nil {
			logger.Sugar.Infow("expired idle session", "token", token)
		}
	}
}
