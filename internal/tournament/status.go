package tournament

// Status is the closed set of tournament lifecycle states. All transitions
// go through CanTransition; repositories additionally encode the expected
// source states in their UPDATE conditions so illegal transitions lose the
// race at the store as well.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusHot       Status = "hot" // promotional variant of upcoming
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusHot, StatusLive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether the tournament still accepts registrations.
func (s Status) Open() bool {
	return s == StatusUpcoming || s == StatusHot
}

// Terminal states permit no further status or slot mutation.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition is the single authority on legal status changes.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusLive:
		return from.Open()
	case StatusCancelled:
		return from.Open() || from == StatusLive
	case StatusCompleted:
		return from == StatusLive
	default:
		return false
	}
}
