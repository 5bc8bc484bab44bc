package models

// BookingStatus is a step in the linear booking workflow.
type BookingStatus string

const (
	BookingStatusDraft        BookingStatus = "draft"
	BookingStatusProposalSent BookingStatus = "proposal_sent"
	BookingStatusOption       BookingStatus = "option"
	BookingStatusConfirmed    BookingStatus = "confirmed"
	BookingStatusCompleted    BookingStatus = "completed"
)

// bookingTransitions maps each status to the only status it may move to.
// Completed is terminal.
var bookingTransitions = map[BookingStatus]BookingStatus{
	BookingStatusDraft:        BookingStatusProposalSent,
	BookingStatusProposalSent: BookingStatusOption,
	BookingStatusOption:       BookingStatusConfirmed,
	BookingStatusConfirmed:    BookingStatusCompleted,
}

// BookingStatuses returns the workflow in order.
func BookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusDraft,
		BookingStatusProposalSent,
		BookingStatusOption,
		BookingStatusConfirmed,
		BookingStatusCompleted,
	}
}

func (s BookingStatus) IsValid() bool {
	for _, st := range BookingStatuses() {
		if st == s {
			return true
		}
	}
	return false
}

// Next returns the status that follows s, if any.
func (s BookingStatus) Next() (BookingStatus, bool) {
	next, ok := bookingTransitions[s]
	return next, ok
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	_, ok := bookingTransitions[s]
	return s.IsValid() && !ok
}

// CanTransition reports whether a booking may move from one status to another.
// Staying put is allowed; otherwise only the single next step is.
func CanTransition(from, to BookingStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}
