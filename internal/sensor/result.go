package sensor

import "fmt"

// State tags which variant of a Result is active.
type State int

const (
	StateLoading State = iota
	StateData
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateData:
		return "data"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is one emission of a sensor stream: Loading, Data carrying a
// Reading, or Error carrying a message. Results compare with ==, which is
// what consecutive dedup relies on.
type Result struct {
	State   State
	Reading Reading // set only for StateData
	Message string  // set only for StateError
}

// Loading returns the initial "waiting for hardware" result.
func Loading() Result {
	return Result{State: StateLoading}
}

// Data wraps a reading.
func Data(r Reading) Result {
	return Result{State: StateData, Reading: r}
}

// Error returns an error result with a user-facing message.
func Error(msg string) Result {
	return Result{State: StateError, Message: msg}
}

// Errorf formats an error result.
func Errorf(format string, args ...interface{}) Result {
	return Error(fmt.Sprintf(format, args...))
}

func (r Result) IsLoading() bool { return r.State == StateLoading }
func (r Result) IsData() bool    { return r.State == StateData }
func (r Result) IsError() bool   { return r.State == StateError }

// Location returns the payload when the result carries a GPS fix.
func (r Result) Location() (Location, bool) {
	if r.State != StateData {
		return Location{}, false
	}
	loc, ok := r.Reading.(Location)
	return loc, ok
}

func (r Result) String() string {
	switch r.State {
	case StateData:
		return fmt.Sprintf("Data(%v)", r.Reading)
	case StateError:
		return fmt.Sprintf("Error(%s)", r.Message)
	default:
		return "Loading"
	}
}
