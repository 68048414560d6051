package session

// State is the claim set carried by a session. Names and values are opaque to
// this package.
type State map[string]string

// Clone returns an independent copy of s.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Get returns the claim value and whether it was present.
func (s State) Get(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}
