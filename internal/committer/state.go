package committer

// State is the orchestrator's current phase.
type State int32

// Run phases, in order.
const (
	Idle State = iota
	Scanning
	Fetching
	Generating
	Committing
	Pushing
)

var stateNames = [...]string{"idle", "scanning", "fetching", "generating", "committing", "pushing"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
