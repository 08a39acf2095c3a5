package domain

// BotState is the strategy state machine's current mode. Only Scanning and
// InPosition are produced by the reference transition logic; the remaining
// states are representable so the exit paths can later be split into
// distinct observable states.
type BotState int

const (
	StateScanning BotState = iota
	StateInPosition
	StateExitingProfit
	StateExitingStopLoss
	StateRotating
)

func (s BotState) String() string {
	switch s {
	case StateScanning:
		return "SCANNING"
	case StateInPosition:
		return "IN_POSITION"
	case StateExitingProfit:
		return "EXITING_PROFIT"
	case StateExitingStopLoss:
		return "EXITING_STOP_LOSS"
	case StateRotating:
		return "ROTATING"
	default:
		return "UNKNOWN"
	}
}
