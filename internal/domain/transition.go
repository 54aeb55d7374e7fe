package domain

// serviceable is the successor set of every non-terminal in-service state.
var serviceable = []EventKind{
	EventKindInspected,
	EventKindBorrowed,
	EventKindRetired,
	EventKindLost,
}

// AllowedAfter returns the kinds that may legally follow last.
// A nil last means the item has no events yet.
// The returned slice is a fresh copy and may be modified by the caller.
func AllowedAfter(last *EventKind) []EventKind {
	if last == nil {
		return []EventKind{EventKindManufactured}
	}

	switch *last {
	case EventKindManufactured:
		return []EventKind{EventKindPutIntoService, EventKindRetired, EventKindLost}
	case EventKindPutIntoService, EventKindInspected, EventKindReturned:
		return append([]EventKind(nil), serviceable...)
	case EventKindBorrowed:
		return []EventKind{EventKindReturned, EventKindLost}
	case EventKindRetired, EventKindLost:
		return []EventKind{}
	}

	return []EventKind{}
}

// CanTransition reports whether next may be recorded after last.
func CanTransition(last *EventKind, next EventKind) bool {
	for _, k := range AllowedAfter(last) {
		if k == next {
			return true
		}
	}
	return false
}
