package domain

// ItemState is the lifecycle position of an item derived from its history.
type ItemState struct {
	Last      *EventKind
	InService bool
	OnLoan    bool
	Terminal  bool
	// OpenLoan is the Borrowed event not yet closed by a Returned child.
	OpenLoan *Event
}

// StateOf folds an item's history, in timestamp order, into its current state.
func StateOf(events []Event) ItemState {
	var st ItemState
	open := make(map[int64]Event)

	for _, e := range events {
		k := e.Kind()
		st.Last = &k

		switch k {
		case EventKindPutIntoService:
			st.InService = true
		case EventKindBorrowed:
			open[e.ID] = e
		case EventKindReturned:
			if e.ParentID != nil {
				delete(open, *e.ParentID)
			}
		case EventKindRetired, EventKindLost:
			st.InService = false
			st.Terminal = true
		}
	}

	st.OpenLoan = nil
	for _, e := range open {
		if st.OpenLoan == nil || e.Timestamp.After(st.OpenLoan.Timestamp) {
			loan := e
			st.OpenLoan = &loan
		}
	}
	st.OnLoan = st.OpenLoan != nil && !st.Terminal

	return st
}
