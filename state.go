package depository

// State is where a Feed stands with respect to its Source.
type State int32

const (
	// StateLoading: Start has not finished loading the first document.
	StateLoading State = iota
	// StateHealthy: the latest document is what the store holds at the path.
	StateHealthy
	// StateDegraded: the latest document failed to decode or was refused by a
	// filter; the path keeps the last document that made it in.
	StateDegraded
	// StateEmpty: no document has made it in yet.
	StateEmpty
)

var stateNames = [...]string{
	StateLoading:  "loading",
	StateHealthy:  "healthy",
	StateDegraded: "degraded",
	StateEmpty:    "empty",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
