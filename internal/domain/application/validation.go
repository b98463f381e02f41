package application

// validTransitions lists every allowed status change.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusWithdrawn, StatusRemoved},
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusAccepted, StatusRejected, StatusWithdrawn, StatusRemoved:
		return st, nil
	}
	return "", ErrInvalidInput
}

// ValidateTransition validates a requested status transition.
func ValidateTransition(from, to Status) error {
	for _, next := range validTransitions[from] {
		if next == to {
			return nil
		}
	}
	return ErrInvalidTransition
}
