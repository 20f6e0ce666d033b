package order

// Status represents the status of a purchase order
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusActive    Status = "active"
	StatusDelivered Status = "delivered"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Progression is the ordered delivery progression used for progress
// reporting. Draft precedes it; rejected, cancelled and completed sit
// outside it.
var Progression = []Status{
	StatusPending,
	StatusApproved,
	StatusActive,
	StatusDelivered,
	StatusFulfilled,
}

// IsValid checks if the status is a known Status value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusActive,
		StatusDelivered, StatusFulfilled, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses with no outgoing transitions
// in the strict transition table
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// ProgressionIndex returns the position of the status in the ordered
// progression, or -1 when the status is not part of it
func (s Status) ProgressionIndex() int {
	for i, p := range Progression {
		if p == s {
			return i
		}
	}
	return -1
}

// Progress returns the percentage-complete indicator for the status,
// clamped to [0,100]. Rejected reports 0 and is rendered distinctly by
// callers; draft and the terminal side-statuses also report 0.
func (s Status) Progress() int {
	idx := s.ProgressionIndex()
	if idx < 0 {
		return 0
	}
	pct := idx * 100 / (len(Progression) - 1)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// TransitionPolicy controls how strictly status transitions are checked
type TransitionPolicy string

const (
	// PolicyPermissive allows any status to be set from any other
	// status. This matches the manual-override workflows the tool is
	// used for and is the default.
	PolicyPermissive TransitionPolicy = "permissive"
	// PolicyStrict enforces the allowed-transitions table.
	PolicyStrict TransitionPolicy = "strict"
)

// allowedTransitions is the canonical transition table consulted in
// strict mode
var allowedTransitions = map[Status][]Status{
	StatusDraft:     {StatusPending, StatusCancelled},
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusActive, StatusCancelled},
	StatusActive:    {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusFulfilled, StatusCompleted},
	StatusFulfilled: {StatusCompleted},
}

// Allows reports whether the policy permits a transition from one
// status to another
func (p TransitionPolicy) Allows(from, to Status) bool {
	if p != PolicyStrict {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
