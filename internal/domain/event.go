package domain

import "time"

// EventKind identifies one of the closed set of lifecycle facts.
// The string values are persisted as the "kind" tag and must never be renamed.
type EventKind string

const (
	EventKindManufactured   EventKind = "Manufactured"
	EventKindPutIntoService EventKind = "PutIntoService"
	EventKindInspected      EventKind = "Inspected"
	EventKindBorrowed       EventKind = "Borrowed"
	EventKindReturned       EventKind = "Returned"
	EventKindRetired        EventKind = "Retired"
	EventKindLost           EventKind = "Lost"
)

// EventKinds lists every kind in declaration order.
var EventKinds = []EventKind{
	EventKindManufactured,
	EventKindPutIntoService,
	EventKindInspected,
	EventKindBorrowed,
	EventKindReturned,
	EventKindRetired,
	EventKindLost,
}

func (k EventKind) String() string { return string(k) }

func (k EventKind) IsValid() bool {
	switch k {
	case EventKindManufactured, EventKindPutIntoService, EventKindInspected,
		EventKindBorrowed, EventKindReturned, EventKindRetired, EventKindLost:
		return true
	}
	return false
}

// IsUnique reports whether at most one event of this kind may exist per item.
func (k EventKind) IsUnique() bool {
	switch k {
	case EventKindManufactured, EventKindPutIntoService, EventKindRetired, EventKindLost:
		return true
	}
	return false
}

// RequiredParent returns the kind an event of kind k must reference as its parent.
func (k EventKind) RequiredParent() (EventKind, bool) {
	if k == EventKindReturned {
		return EventKindBorrowed, true
	}
	return "", false
}

// IsTerminal reports whether nothing may follow this kind.
func (k EventKind) IsTerminal() bool {
	return k == EventKindRetired || k == EventKindLost
}

// InspectionResult is the verdict of an inspection.
type InspectionResult string

const (
	// InspectionResultGood: item is new or in very good condition.
	InspectionResultGood InspectionResult = "Good"
	// InspectionResultNormalWear: item shows signs of normal use.
	InspectionResultNormalWear InspectionResult = "NormalWear"
	// InspectionResultWarning: item seems close to end of life.
	InspectionResultWarning InspectionResult = "Warning"
	// InspectionResultDanger: item must be retired.
	InspectionResultDanger InspectionResult = "Danger"
)

func (r InspectionResult) String() string { return string(r) }

func (r InspectionResult) IsValid() bool {
	switch r {
	case InspectionResultGood, InspectionResultNormalWear, InspectionResultWarning, InspectionResultDanger:
		return true
	}
	return false
}

// EventData is the payload of an event. The set of implementations is closed:
// only the variant types declared in this package satisfy it.
type EventData interface {
	Kind() EventKind
	eventData()
}

// Manufactured records when the item was produced.
type Manufactured struct{}

// PutIntoService records when the item entered service.
type PutIntoService struct{}

// Inspected records an inspection of the item.
type Inspected struct {
	Inspector string
	Result    InspectionResult
	Comment   *string
}

// Borrowed records a loan of the item.
type Borrowed struct {
	Borrower  string
	Validator string
}

// Returned records the end of a loan. It references the Borrowed event it closes.
type Returned struct {
	Validator string
}

// Retired records the end of the item's service life.
type Retired struct{}

// Lost records that the item went missing.
type Lost struct{}

func (Manufactured) Kind() EventKind   { return EventKindManufactured }
func (PutIntoService) Kind() EventKind { return EventKindPutIntoService }
func (Inspected) Kind() EventKind      { return EventKindInspected }
func (Borrowed) Kind() EventKind       { return EventKindBorrowed }
func (Returned) Kind() EventKind       { return EventKindReturned }
func (Retired) Kind() EventKind        { return EventKindRetired }
func (Lost) Kind() EventKind           { return EventKindLost }

func (Manufactured) eventData()   {}
func (PutIntoService) eventData() {}
func (Inspected) eventData()      {}
func (Borrowed) eventData()       {}
func (Returned) eventData()       {}
func (Retired) eventData()        {}
func (Lost) eventData()           {}

// Event is an immutable lifecycle fact about an item.
type Event struct {
	ID        int64
	ItemID    int64
	ParentID  *int64
	Timestamp time.Time
	Data      EventData
}

// Kind returns the kind of the event payload.
func (e Event) Kind() EventKind {
	return e.Data.Kind()
}

// NewEvent is an event that has not been persisted yet.
type NewEvent struct {
	ItemID    int64
	ParentID  *int64
	Timestamp time.Time
	Data      EventData
}
