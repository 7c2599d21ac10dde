package build

import "sync/atomic"

// State is the coordinator's coarse lifecycle phase, exposed for health
// reporting.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateBuilding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateBuilding:
		return "building"
	default:
		return "unknown"
	}
}

type stateMachine struct {
	v atomic.Int32
}

func (m *stateMachine) get() State {
	return State(m.v.Load())
}

func (m *stateMachine) set(s State) {
	m.v.Store(int32(s))
}
