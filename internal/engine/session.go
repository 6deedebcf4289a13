package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"learnpulse-backend/internal/models"
)

// Config tunes the engine. Zero values fall back to the defaults below.
type Config struct {
	DebounceSeconds  int           // seconds of activity between progress flushes
	TickGraceSeconds int           // slack allowed on tick plausibility checks
	IdleTimeout      time.Duration // sessions idle longer are reaped as user-exit
	Policy           GuardPolicy
}

func (c *Config) applyDefaults() {
	if c.DebounceSeconds <= 0 {
		c.DebounceSeconds = 2
	}
	if c.TickGraceSeconds <= 0 {
		c.TickGraceSeconds = 1
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 90 * time.Second
	}
	if c.Policy.Warn == nil {
		c.Policy = DefaultGuardPolicy()
	}
}

// Session is the live, in-memory state of one user working through one
// activity. All ambient state lives here rather than in globals; the
// lifecycle is start → tick/signal/answer → finalize → dispose.
type Session struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Activity models.Activity

	mu            sync.Mutex
	tracker       *Tracker
	guard         *Guard
	completed     bool
	degradedSaved bool
	score         int
	answered      int
	gemsEarned    float64
	startedAt     time.Time
	lastSeenAt    time.Time
	finalized     bool
	result        *models.SessionResult
}

// Snapshot is a read-only view of a live session.
type Snapshot struct {
	SessionID          uuid.UUID      `json:"session_id"`
	ActivityID         uuid.UUID      `json:"activity_id"`
	AccumulatedSeconds int            `json:"accumulated_seconds"`
	Complete           bool           `json:"complete"`
	GuardState         string         `json:"guard_state"`
	SignalCounts       map[string]int `json:"signal_counts"`
	Score              int            `json:"score"`
	Answered           int            `json:"answered"`
	GemsEarned         float64        `json:"gems_earned"`
	ElapsedSeconds     int            `json:"elapsed_seconds"`
	Degraded           bool           `json:"degraded"`
}

// Manager owns all live sessions. One session is driven by one client at a
// time; the manager serializes access per session and delegates durable
// state to the stores.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	progress ProgressStore
	settle   SettlementStore
	events   EventPublisher
	cfg      Config
	now      func() time.Time
}

func NewManager(progress ProgressStore, settle SettlementStore, events EventPublisher, cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		progress: progress,
		settle:   settle,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start validates the activity's configuration, loads or creates the
// durable progress record, and registers a live session. Malformed
// configuration fails here; the session never begins tracking.
func (m *Manager) Start(ctx context.Context, userID uuid.UUID, activity models.Activity) (*Session, error) {
	if err := ValidateActivity(activity); err != nil {
		return nil, err
	}
	if !activity.Active {
		return nil, &ConfigurationError{Message: "activity is not active"}
	}

	n := m.now()
	if activity.Kind == models.KindCompetition {
		if activity.StartsAt != nil && n.Before(*activity.StartsAt) {
			return nil, &ConfigurationError{Message: "competition has not started yet"}
		}
		if activity.EndsAt != nil && n.After(*activity.EndsAt) {
			return nil, &ConfigurationError{Message: "competition has ended"}
		}
	}

	rec, err := m.progress.GetOrCreate(ctx, userID, activity.ID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.New(),
		UserID:     userID,
		Activity:   activity,
		tracker:    NewTracker(rec.AccumulatedSeconds, activity.TotalDurationSeconds, m.cfg.DebounceSeconds, m.cfg.TickGraceSeconds, m.now),
		guard:      NewGuard(m.cfg.Policy),
		completed:  rec.Completed,
		startedAt:  n,
		lastSeenAt: n,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Tick applies an engaged-time delta. Implausible deltas are discarded
// without error; the response always reflects the current state. A
// competition whose clock has run out is finalized here with reason
// time-expired.
func (m *Manager) Tick(ctx context.Context, sessionID, userID uuid.UUID, deltaSeconds int) (models.TickResponse, error) {
	s, err := m.lookup(sessionID, userID)
	if err != nil {
		return models.TickResponse{}, err
	}

	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return models.TickResponse{}, ErrSessionTerminated
	}

	if s.clockExpired(m.now()) {
		s.mu.Unlock()
		if _, err := m.Finalize(ctx, sessionID, userID, models.ReasonTimeExpired); err != nil {
			return models.TickResponse{}, err
		}
		return models.TickResponse{}, ErrSessionTerminated
	}

	s.lastSeenAt = m.now()
	s.tracker.Tick(deltaSeconds)

	eval := Evaluate(s.tracker.Accumulated(), s.Activity.RequiredEngagedSeconds, s.completed)
	if eval.FirstTransition {
		s.completed = true
	}

	// Completion flushes immediately; otherwise wait out the debounce.
	if eval.FirstTransition || s.tracker.NeedsFlush() {
		m.flushLocked(ctx, s)
	}

	resp := models.TickResponse{
		AccumulatedSeconds: s.tracker.Accumulated(),
		Complete:           eval.Complete,
		FirstTransition:    eval.FirstTransition,
		Degraded:           s.tracker.Degraded(),
	}
	s.mu.Unlock()
	return resp, nil
}

// RecordSignal feeds one abuse signal into the session's guard. Crossing a
// warn threshold notifies the user; crossing a terminate threshold ends
// the session with reason abuse-detected. Signals after termination have
// no effect.
func (m *Manager) RecordSignal(ctx context.Context, sessionID, userID uuid.UUID, sig SignalType) (models.SignalResponse, error) {
	s, err := m.lookup(sessionID, userID)
	if err != nil {
		return models.SignalResponse{}, err
	}

	s.mu.Lock()
	if s.finalized {
		resp := models.SignalResponse{GuardState: string(GuardTerminated), Counts: s.guard.Counts()}
		s.mu.Unlock()
		return resp, nil
	}

	s.lastSeenAt = m.now()
	tr := s.guard.Record(sig)
	resp := models.SignalResponse{GuardState: string(tr.State), Counts: s.guard.Counts()}
	s.mu.Unlock()

	if tr.Warned {
		m.publish(ctx, userID, models.WSMessage{
			Type:    "abuse-warning",
			Payload: models.AbuseWarningEvent{SessionID: sessionID, SignalType: string(sig), Count: tr.Count},
		})
	}
	if tr.Terminated {
		if _, err := m.Finalize(ctx, sessionID, userID, models.ReasonAbuse); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// RecordAnswer tallies one answered question. Correct answers accrue the
// activity's per-question reward, settled later by Finalize.
func (m *Manager) RecordAnswer(ctx context.Context, sessionID, userID uuid.UUID, correct bool) (models.AnswerResponse, error) {
	s, err := m.lookup(sessionID, userID)
	if err != nil {
		return models.AnswerResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return models.AnswerResponse{}, ErrSessionTerminated
	}

	s.lastSeenAt = m.now()
	s.answered++
	if correct {
		s.score++
		s.gemsEarned += ComputeReward(s.Activity)
	}

	return models.AnswerResponse{
		Score:          s.score,
		Answered:       s.answered,
		GemsEarned:     s.gemsEarned,
		TotalQuestions: s.answered,
	}, nil
}

// Finalize ends a session and settles its reward exactly once. Calling it
// again, or for a session already reaped from memory, returns the stored
// result unchanged; duplicate finalizes are success, not errors.
func (m *Manager) Finalize(ctx context.Context, sessionID, userID uuid.UUID, reason string) (*models.SessionResult, error) {
	s, err := m.lookup(sessionID, userID)
	if err != nil {
		// The session may have been reaped after a successful settlement;
		// serve the stored result so retried finalizes stay idempotent.
		// Only the owner may read it.
		if result, lookupErr := m.settle.ResultBySession(ctx, sessionID); lookupErr == nil && result != nil && result.UserID == userID {
			return result, nil
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return s.result, nil
	}

	// Best-effort final flush: a lost write here costs at most the last
	// few seconds of progress, never a duplicate reward.
	m.flushLocked(ctx, s)

	timeSpent := int(m.now().Sub(s.startedAt) / time.Second)
	if limit := s.competitionClockSeconds(); limit > 0 && timeSpent > limit {
		timeSpent = limit
	}

	result, duplicate, err := m.settle.Settle(ctx, Settlement{
		SessionID:        sessionID,
		UserID:           userID,
		ActivityID:       s.Activity.ID,
		ActivityKind:     s.Activity.Kind,
		Score:            s.score,
		TotalQuestions:   s.answered,
		TimeSpentSeconds: timeSpent,
		RewardAmount:     m.rewardFor(s, reason, timeSpent),
		Reason:           reason,
	})
	if err != nil {
		// Transient: leave the session live so a retried finalize (or the
		// settlement worker) can complete it.
		return nil, err
	}

	s.finalized = true
	s.result = result

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if reason == models.ReasonAbuse {
		m.publish(ctx, userID, models.WSMessage{
			Type:    "session-terminated",
			Payload: models.SessionTerminatedEvent{SessionID: sessionID, Reason: reason},
		})
	}
	if !duplicate && result.RewardEarned > 0 {
		m.publish(ctx, userID, models.WSMessage{
			Type:    "gems-awarded",
			Payload: models.GemsAwardedEvent{SessionID: sessionID, ActivityID: s.Activity.ID, Amount: result.RewardEarned},
		})
	}

	return result, nil
}

// Snapshot returns the live view of a session.
func (m *Manager) Snapshot(sessionID, userID uuid.UUID) (Snapshot, error) {
	s, err := m.lookup(sessionID, userID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:          s.ID,
		ActivityID:         s.Activity.ID,
		AccumulatedSeconds: s.tracker.Accumulated(),
		Complete:           s.completed,
		GuardState:         string(s.guard.State()),
		SignalCounts:       s.guard.Counts(),
		Score:              s.score,
		Answered:           s.answered,
		GemsEarned:         s.gemsEarned,
		ElapsedSeconds:     int(m.now().Sub(s.startedAt) / time.Second),
		Degraded:           s.tracker.Degraded(),
	}, nil
}

// ReapIdle finalizes sessions that have gone quiet, usually closed tabs
// that never managed a teardown beacon. The conditional settlement keeps a
// late-arriving client finalize from double-crediting.
func (m *Manager) ReapIdle(ctx context.Context) int {
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.RLock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.RUnlock()

	var stale []*Session
	for _, s := range live {
		s.mu.Lock()
		if s.lastSeenAt.Before(cutoff) && !s.finalized {
			stale = append(stale, s)
		}
		s.mu.Unlock()
	}

	reaped := 0
	for _, s := range stale {
		if _, err := m.Finalize(ctx, s.ID, s.UserID, models.ReasonUserExit); err != nil {
			log.Printf("reap: finalize session %s failed: %v", s.ID, err)
			continue
		}
		reaped++
	}
	return reaped
}

// Live returns the number of sessions currently in memory.
func (m *Manager) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(sessionID, userID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// flushLocked persists the tracker's current value. Callers hold s.mu.
// Failures keep the seconds buffered for the next debounce tick; after the
// retry budget is spent the durable record is flagged degraded once.
func (m *Manager) flushLocked(ctx context.Context, s *Session) {
	if s.tracker.Pending() == 0 {
		return
	}
	if err := m.progress.SaveProgress(ctx, s.UserID, s.Activity.ID, s.tracker.Accumulated(), s.completed); err != nil {
		if s.tracker.FlushFailed() && !s.degradedSaved {
			s.degradedSaved = true
			if dErr := m.progress.MarkDegraded(ctx, s.UserID, s.Activity.ID); dErr != nil {
				log.Printf("session %s: mark degraded failed: %v", s.ID, dErr)
			}
		}
		return
	}
	s.tracker.MarkFlushed()
}

// rewardFor computes the amount to settle. Callers hold s.mu.
func (m *Manager) rewardFor(s *Session, reason string, timeSpent int) float64 {
	if reason == models.ReasonAbuse {
		return 0
	}
	switch s.Activity.Kind {
	case models.KindCompetition:
		// Per-answer gems plus a bonus for finishing with clock to spare.
		return s.gemsEarned * TimeBonusMultiplier(s.competitionClockSeconds(), timeSpent)
	case models.KindPractice:
		if !s.completed {
			return 0
		}
		return s.gemsEarned
	default: // lesson
		if !s.completed {
			return 0
		}
		return ComputeReward(s.Activity)
	}
}

func (m *Manager) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if m.events != nil {
		m.events.Publish(ctx, userID, msg)
	}
}

// clockExpired reports whether a competition session has outlived its
// clock. Lessons have no wall-clock limit. Callers hold s.mu.
func (s *Session) clockExpired(now time.Time) bool {
	limit := s.competitionClockSeconds()
	return limit > 0 && int(now.Sub(s.startedAt)/time.Second) > limit
}

func (s *Session) competitionClockSeconds() int {
	if s.Activity.Kind != models.KindCompetition {
		return 0
	}
	return s.Activity.TotalDurationSeconds
}
