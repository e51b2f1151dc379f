package engine

// State is a step of the request lifecycle.
type State string

const (
	StateReceived         State = "RECEIVED"
	StateTokenizing       State = "TOKENIZING"
	StateParsing          State = "PARSING"
	StateSemanticAnalysis State = "SEMANTIC_ANALYSIS"
	StateSuccess          State = "SUCCESS"
	StateFailed           State = "FAILED"
	StateExecuting        State = "EXECUTING"
	StateResponse         State = "RESPONSE"
)

// Terminal is the final classification of a request.
type Terminal string

const (
	TerminalExecuted    Terminal = "SUCCESS_EXECUTED"
	TerminalNotExecuted Terminal = "SUCCESS_NOT_EXECUTED"
	TerminalFailed      Terminal = "FAILED"
)

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	StateReceived:         {StateTokenizing, StateFailed},
	StateTokenizing:       {StateParsing, StateFailed},
	StateParsing:          {StateSemanticAnalysis, StateFailed},
	StateSemanticAnalysis: {StateSuccess, StateFailed},
	StateSuccess:          {StateExecuting},
	StateExecuting:        {StateResponse},
}

// CanTransition reports whether to may follow from.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
