// Package session runs one cloth simulation per connected viewer group.
// The run loop owns all mutable simulation state; everything else talks
// to it through the command inbox or read-locked snapshots.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/mesh"
	"github.com/drapesim/backend/internal/scene"
	"github.com/drapesim/backend/internal/sim"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusRunning Status = "RUNNING"
	StatusPaused  Status = "PAUSED"
	StatusClosed  Status = "CLOSED"
)

// Command names accepted by the session inbox.
const (
	CmdToggleWind = "toggle_wind"
	CmdPause      = "pause"
	CmdResume     = "resume"
	CmdReset      = "reset"
	CmdPoke       = "poke"
	CmdSetNormals = "set_normals"
	CmdAttach     = "attach"
	CmdDetach     = "detach"
	CmdClose      = "close"
)

// Command is one instruction for the run loop. Commands apply between
// simulation steps, never during one.
type Command struct {
	Name   string
	Vertex int
	Delta  sim.Vector3
	Enable bool
	Reason string
}

// FramePayload is one broadcast simulation frame.
type FramePayload struct {
	Frame      int64     `json:"frame"`
	Dt         float64   `json:"dt"`
	Positions  []float64 `json:"positions"`
	Normals    []float64 `json:"normals,omitempty"`
	MaxStretch float64   `json:"max_stretch"`
	MaxSpeed   float64   `json:"max_speed"`
}

// StatePayload is a full session snapshot for get_state and session_state.
type StatePayload struct {
	Token      string        `json:"token"`
	Status     Status        `json:"status"`
	Scene      scene.Profile `json:"scene"`
	Frame      int64         `json:"frame"`
	Wind       sim.WindState `json:"wind"`
	Positions  []float64     `json:"positions"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive time.Time     `json:"last_active"`
}

// SceneInfo is the static geometry sent once per client in scene_init.
type SceneInfo struct {
	Token     string          `json:"token"`
	Scene     scene.Profile   `json:"scene"`
	Grid      GridInfo        `json:"grid"`
	Indices   []uint32        `json:"indices"`
	Wind      sim.WindProfile `json:"wind_profile"`
	Positions []float64       `json:"positions"`
}

// GridInfo mirrors the derived grid constants for the client.
type GridInfo struct {
	Segments         int     `json:"segments"`
	Size             float64 `json:"size"`
	VertsPerRow      int     `json:"verts_per_row"`
	VertexCount      int     `json:"vertex_count"`
	StructuralLength float64 `json:"structural_length"`
	ShearLength      float64 `json:"shear_length"`
}

// Sink receives session output destined for connected clients. The ws hub
// implements it; tests substitute a recorder.
type Sink interface {
	SessionFrame(token string, frame FramePayload)
	SessionWind(token string, wind sim.WindState)
	SessionState(token string, state StatePayload)
}

// Snapshots are refreshed on this many accepted frames as well as on
// every state-changing command.
const snapshotEveryFrames = 300

// A spring stretched past this many rest lengths means the integrator is
// straining; worth a warning but not an intervention.
const stretchWarnFactor = 10.0

// Session is one live cloth simulation.
type Session struct {
	Token string

	scene     scene.Profile
	cloth     *sim.Cloth
	simulator sim.Simulator
	clock     *sim.FrameClock
	wind      *sim.WindController

	status        Status
	frames        int64
	normals       bool
	clients       int
	createdAt     time.Time
	lastActive    time.Time
	startedAt     *time.Time
	stretchWarned bool

	inbox chan Command
	done  chan struct{}
	mu    sync.RWMutex

	sink           Sink
	broadcastEvery int64
	tickInterval   time.Duration

	// Optional backends, nil when not configured.
	db          *sqlx.DB
	rdb         *redis.Client
	recordID    int
	snapshotTTL time.Duration
}

func newSession(token string, profile scene.Profile, cfg *config.Config, sink Sink, db *sqlx.DB, rdb *redis.Client) *Session {
	now := time.Now()
	every := int64(cfg.BroadcastEvery)
	if every < 1 {
		every = 1
	}
	tickHz := cfg.SimTickHz
	if tickHz < 1 {
		tickHz = 60
	}

	return &Session{
		Token:          token,
		scene:          profile,
		cloth:          sim.NewCloth(profile.Segments, profile.Size),
		simulator:      sim.NewSimulator(profile.Stiffness, profile.Gravity),
		clock:          sim.NewFrameClock(sim.DefaultFrameClockConfig(), now.UnixMilli()),
		wind:           sim.NewWindController(profile.WindProfile()),
		status:         StatusWaiting,
		createdAt:      now,
		lastActive:     now,
		inbox:          make(chan Command, 64),
		done:           make(chan struct{}),
		sink:           sink,
		broadcastEvery: every,
		tickInterval:   time.Second / time.Duration(tickHz),
		db:             db,
		rdb:            rdb,
		snapshotTTL:    time.Duration(cfg.SnapshotTTLSeconds) * time.Second,
	}
}

// Grid returns the immutable grid the session was built on.
func (s *Session) Grid() sim.Grid {
	return s.cloth.Grid()
}

// Scene returns the profile the session was created from.
func (s *Session) Scene() scene.Profile {
	return s.scene
}

// Enqueue hands a command to the run loop. Full inboxes drop the command;
// a stuck session must not block its callers.
func (s *Session) Enqueue(cmd Command) {
	select {
	case s.inbox <- cmd:
	default:
		logger.Sugar.Warnw("session inbox full, dropping command", "token", s.Token, "cmd", cmd.Name)
	}
}

// Run drives the simulation until the session closes.
func (s *Session) Run() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.inbox:
			s.apply(cmd)
		case <-ticker.C:
			s.tick(time.Now().UnixMilli())
		}
	}
}

// tick advances the simulation by one frame if the clock accepts it.
func (s *Session) tick(nowMillis int64) {
	s.mu.Lock()

	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}

	dt, ok := s.clock.Accept(nowMillis)
	if !ok {
		s.mu.Unlock()
		return
	}

	stats := s.simulator.Step(s.cloth, dt, s.wind.Current())
	s.frames++
	frame := s.frames

	if stats.MaxStretch > s.cloth.Grid().StructuralLength()*stretchWarnFactor {
		if !s.stretchWarned {
			s.stretchWarned = true
			logger.Sugar.Warnw("cloth stretch anomaly",
				"token", s.Token, "frame", frame, "max_stretch", stats.MaxStretch)
		}
	} else {
		s.stretchWarned = false
	}

	var payload *FramePayload
	if s.sink != nil && frame%s.broadcastEvery == 0 {
		p := s.framePayloadLocked(dt, stats)
		payload = &p
	}
	s.mu.Unlock()

	if payload != nil {
		s.sink.SessionFrame(s.Token, *payload)
	}
	if frame%snapshotEveryFrames == 0 {
		s.saveSnapshot()
	}
}

// framePayloadLocked flattens the current grid for broadcast. Callers hold mu.
func (s *Session) framePayloadLocked(dt float64, stats sim.StepStats) FramePayload {
	p := FramePayload{
		Frame:      s.frames,
		Dt:         dt,
		Positions:  mesh.Flatten(s.cloth.Positions()),
		MaxStretch: stats.MaxStretch,
		MaxSpeed:   stats.MaxSpeed,
	}
	if s.normals {
		p.Normals = mesh.Flatten(mesh.VertexNormals(s.cloth.Positions(), s.cloth.Grid()))
	}
	return p
}

// apply executes one command between steps.
func (s *Session) apply(cmd Command) {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return
	}
	s.lastActive = time.Now()

	var windUpdate *sim.WindState
	var stateUpdate *StatePayload
	var started *time.Time
	closed := false

	switch cmd.Name {
	case CmdToggleWind:
		st := s.wind.Toggle()
		windUpdate = &st

	case CmdPause:
		if s.status == StatusRunning {
			s.status = StatusPaused
			sp := s.statePayloadLocked()
			stateUpdate = &sp
		}

	case CmdResume:
		// The frame clock clamps the pause gap to a typical frame on the
		// next accepted tick, so resuming never produces a giant dt.
		if s.status == StatusPaused {
			s.status = StatusRunning
			sp := s.statePayloadLocked()
			stateUpdate = &sp
		}

	case CmdReset:
		s.cloth = sim.NewCloth(s.scene.Segments, s.scene.Size)
		s.wind = sim.NewWindController(s.scene.WindProfile())
		s.clock = sim.NewFrameClock(sim.DefaultFrameClockConfig(), time.Now().UnixMilli())
		sp := s.statePayloadLocked()
		stateUpdate = &sp

	case CmdPoke:
		if s.pokeAllowedLocked(cmd.Vertex) {
			s.cloth.ApplyDisplacement(cmd.Vertex, cmd.Delta)
		}

	case CmdSetNormals:
		s.normals = cmd.Enable

	case CmdAttach:
		s.clients++
		if s.status == StatusWaiting || s.status == StatusPaused {
			s.status = StatusRunning
			if s.startedAt == nil {
				now := time.Now()
				s.startedAt = &now
				started = &now
			}
			// Skip the gap since the last step instead of integrating it.
			s.clock = sim.NewFrameClock(sim.DefaultFrameClockConfig(), time.Now().UnixMilli())
			sp := s.statePayloadLocked()
			stateUpdate = &sp
		}

	case CmdDetach:
		if s.clients > 0 {
			s.clients--
		}
		if s.clients == 0 && s.status == StatusRunning {
			s.status = StatusPaused
		}

	case CmdClose:
		s.status = StatusClosed
		closed = true

	default:
		logger.Sugar.Warnw("unknown session command", "token", s.Token, "cmd", cmd.Name)
	}
	s.mu.Unlock()

	if windUpdate != nil && s.sink != nil {
		s.sink.SessionWind(s.Token, *windUpdate)
	}
	if stateUpdate != nil && s.sink != nil {
		s.sink.SessionState(s.Token, *stateUpdate)
	}
	if windUpdate != nil {
		s.publishWindEvent(*windUpdate)
	}
	if started != nil {
		s.recordStarted(*started)
	}
	if closed {
		s.recordClosed(cmd.Reason)
		close(s.done)
	}
	s.saveSnapshot()
}

// pokeAllowedLocked rejects out-of-range and pinned targets. Pinned
// vertices must never move, including by direct displacement.
func (s *Session) pokeAllowedLocked(vertex int) bool {
	if vertex < 0 || vertex >= s.cloth.VertexCount() {
		return false
	}
	return !s.cloth.IsPinned(vertex)
}

// State returns a read-locked snapshot of the session.
func (s *Session) State() StatePayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statePayloadLocked()
}

func (s *Session) statePayloadLocked() StatePayload {
	return StatePayload{
		Token:      s.Token,
		Status:     s.status,
		Scene:      s.scene,
		Frame:      s.frames,
		Wind:       s.wind.Current(),
		Positions:  mesh.Flatten(s.cloth.Positions()),
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}

// Describe returns the static scene_init contents for a new client.
func (s *Session) Describe() SceneInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := s.cloth.Grid()
	return SceneInfo{
		Token: s.Token,
		Scene: s.scene,
		Grid: GridInfo{
			Segments:         g.Segments,
			Size:             g.Size,
			VertsPerRow:      g.VertsPerRow(),
			VertexCount:      g.VertexCount(),
			StructuralLength: g.StructuralLength(),
			ShearLength:      g.ShearLength(),
		},
		Indices:   mesh.TriangleIndices(g),
		Wind:      s.wind.Profile(),
		Positions: mesh.Flatten(s.cloth.Positions()),
	}
}

// CurrentStatus returns the lifecycle state.
func (s *Session) CurrentStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LastActive returns the time of the last client interaction.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Clients returns the number of attached clients.
func (s *Session) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients
}

// Done reports the channel closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// saveSnapshot stores the current state in Redis with a TTL.
func (s *Session) saveSnapshot() {
	if s.rdb == nil {
		return
	}

	state := s.State()
	data, err := json.Marshal(state)
	if err != nil {
		logger.Sugar.Warnw("snapshot marshal failed", "token", s.Token, "err", err)
		return
	}

	key := "session:" + s.Token + ":state"
	if err := s.rdb.SetEx(context.Background(), key, data, s.snapshotTTL).Err(); err != nil {
		logger.Sugar.Warnw("snapshot save failed", "token", s.Token, "err", err)
	}
}

// publishWindEvent fans the wind change out to every server instance.
// Subscribers drop events stamped with their own instance id; the local
// room already got the update through the sink.
func (s *Session) publishWindEvent(state sim.WindState) {
	if s.rdb == nil {
		return
	}

	payload := map[string]interface{}{
		"type":   "wind_state",
		"token":  s.Token,
		"active": state.Active,
		"force":  state.Force,
		"origin": InstanceID(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(context.Background(), "wind_events", b).Err(); err != nil {
		logger.Sugar.Warnw("wind event publish failed", "token", s.Token, "err", err)
	}
}

// recordStarted stamps the DB row when the first client attaches.
func (s *Session) recordStarted(now time.Time) {
	if s.db == nil || s.recordID == 0 {
		return
	}
	if _, err := s.db.Exec(`UPDATE sessions SET status=$1, started_at=$2 WHERE id=$3`, string(StatusRunning), now, s.recordID); err != nil {
		logger.Sugar.Warnw("session start record failed", "token", s.Token, "err", err)
	}
}

// recordClosed finalizes the DB row.
func (s *Session) recordClosed(reason string) {
	if s.db == nil || s.recordID == 0 {
		return
	}
	s.mu.RLock()
	frames := s.frames
	s.mu.RUnlock()

	if _, err := s.db.Exec(`UPDATE sessions SET status=$1, closed_at=NOW(), close_reason=$2, frame_count=$3 WHERE id=$4`,
		string(StatusClosed), reason, frames, s.recordID); err != nil {
		logger.Sugar.Warnw("session close record failed", "token", s.Token, "err", err)
	}
}
