package job

// State names one step of the per-request acquisition machine.
type State string

const (
	StateStart         State = "start"
	StateArchiveCheck  State = "archive_check"
	StateSkipped       State = "skipped"
	StateProviderFetch State = "provider_fetch"
	StateRetryWait     State = "retry_wait"
	StateTag           State = "tag"
	StateArchiveUpdate State = "archive_update"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// allowedTransitions is the whole machine. StateFailed is absorbing and
// reachable from every non-terminal state.
var allowedTransitions = map[State]map[State]bool{
	StateStart: {
		StateArchiveCheck: true,
		StateDone:         true, // list-formats short-circuits
		StateFailed:       true,
	},
	StateArchiveCheck: {
		StateSkipped:       true,
		StateProviderFetch: true,
		StateFailed:        true,
	},
	StateSkipped: {
		StateDone: true,
	},
	StateProviderFetch: {
		StateRetryWait: true,
		StateTag:       true,
		StateFailed:    true,
	},
	StateRetryWait: {
		StateProviderFetch: true,
	},
	StateTag: {
		StateArchiveUpdate: true,
		StateFailed:        true,
	},
	StateArchiveUpdate: {
		StateDone: true,
	},
	StateDone:   {},
	StateFailed: {},
}

func canTransition(from, to State) bool {
	return allowedTransitions[from][to]
}
