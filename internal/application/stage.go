package application

// Stage is a step of the startup sequence.
type Stage int

const (
	StageInit Stage = iota
	StageConfigResolved
	StagePrimaryListenerUp
	StageHealthListenerUp
	StageRunning
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageConfigResolved:
		return "config-resolved"
	case StagePrimaryListenerUp:
		return "primary-listener-up"
	case StageHealthListenerUp:
		return "health-listener-up"
	case StageRunning:
		return "running"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}
