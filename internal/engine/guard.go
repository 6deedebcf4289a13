package engine

// SignalType identifies a disengagement signal reported by the client.
type SignalType string

const (
	SignalTabHidden      SignalType = "tab-hidden"
	SignalFullscreenExit SignalType = "fullscreen-exit"
	SignalForbiddenKey   SignalType = "forbidden-key"
	SignalContextMenu    SignalType = "context-menu"
)

// KnownSignal reports whether s is a signal type the guard understands.
func KnownSignal(s SignalType) bool {
	switch s {
	case SignalTabHidden, SignalFullscreenExit, SignalForbiddenKey, SignalContextMenu:
		return true
	}
	return false
}

// GuardState is the anti-abuse state of one session.
type GuardState string

const (
	GuardNormal     GuardState = "normal"
	GuardWarned     GuardState = "warned"
	GuardTerminated GuardState = "terminated"
)

// GuardPolicy holds the per-signal-type thresholds. Reaching Warn while
// Normal moves the session to Warned; reaching Terminate while Warned ends
// it. Thresholds are configuration, loaded from the environment.
type GuardPolicy struct {
	Warn      map[SignalType]int
	Terminate map[SignalType]int
}

// DefaultGuardPolicy mirrors the platform's shipped tuning: keyboard and
// context-menu attempts warn at 2 and terminate at 3; losing visibility or
// fullscreen warns at 1 and terminates at 2.
func DefaultGuardPolicy() GuardPolicy {
	return GuardPolicy{
		Warn: map[SignalType]int{
			SignalForbiddenKey:   2,
			SignalContextMenu:    2,
			SignalTabHidden:      1,
			SignalFullscreenExit: 1,
		},
		Terminate: map[SignalType]int{
			SignalForbiddenKey:   3,
			SignalContextMenu:    3,
			SignalTabHidden:      2,
			SignalFullscreenExit: 2,
		},
	}
}

// GuardTransition describes the effect of one recorded signal.
type GuardTransition struct {
	State      GuardState
	Count      int
	Warned     bool // this signal crossed a warn threshold
	Terminated bool // this signal crossed a terminate threshold
}

// Guard is the per-session abuse state machine. Counters are ephemeral:
// they live only as long as the session and are never persisted.
// Terminated is absorbing; no signal moves the state back.
type Guard struct {
	policy GuardPolicy
	state  GuardState
	counts map[SignalType]int
}

func NewGuard(policy GuardPolicy) *Guard {
	return &Guard{
		policy: policy,
		state:  GuardNormal,
		counts: make(map[SignalType]int),
	}
}

func (g *Guard) State() GuardState { return g.state }

// Counts returns a copy of the per-signal counters.
func (g *Guard) Counts() map[string]int {
	out := make(map[string]int, len(g.counts))
	for sig, n := range g.counts {
		out[string(sig)] = n
	}
	return out
}

// Record applies one signal and returns the resulting transition. Signals
// recorded after termination are no-ops.
func (g *Guard) Record(sig SignalType) GuardTransition {
	if g.state == GuardTerminated {
		return GuardTransition{State: GuardTerminated, Count: g.counts[sig]}
	}

	g.counts[sig]++
	count := g.counts[sig]

	switch g.state {
	case GuardNormal:
		if limit, ok := g.policy.Warn[sig]; ok && count >= limit {
			g.state = GuardWarned
			return GuardTransition{State: GuardWarned, Count: count, Warned: true}
		}
	case GuardWarned:
		if limit, ok := g.policy.Terminate[sig]; ok && count >= limit {
			g.state = GuardTerminated
			return GuardTransition{State: GuardTerminated, Count: count, Terminated: true}
		}
	}

	return GuardTransition{State: g.state, Count: count}
}
