package reorder

// Session is the state of one drag gesture. It lives from Begin until End or Cancel.
type Session struct {
	SourceIndex   int     `json:"sourceIndex"`
	SourceID      string  `json:"sourceId"`
	GhostIndex    int     `json:"ghostIndex"`
	PointerOffset float64 `json:"pointerOffset"`

	// Identities of the collection when the gesture began, in order.
	ids []string
}

func newSession(items Collection, index int) *Session {
	n := items.Len()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = items.IDAt(i)
	}
	return &Session{
		SourceIndex: index,
		SourceID:    ids[index],
		GhostIndex:  index,
		ids:         ids,
	}
}

// matches reports whether items still has the shape and order the gesture started with.
func (s *Session) matches(items Collection) bool {
	if items.Len() != len(s.ids) {
		return false
	}
	for i, id := range s.ids {
		if items.IDAt(i) != id {
			return false
		}
	}
	return true
}

func (s *Session) clone() Session {
	cp := *s
	cp.ids = append([]string(nil), s.ids...)
	return cp
}

// IDs returns the collection identities captured when the gesture began.
func (s Session) IDs() []string { return append([]string(nil), s.ids...) }
