package payment

type Status string

const (
	StatusInit       Status = "INIT"
	StatusNew        Status = "NEW"
	StatusProcessing Status = "PROCESSING"
	StatusAuthorized Status = "AUTHORIZED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
	StatusExpired    Status = "EXPIRED"
)

// allowedTransitions is the single source of truth for the lifecycle.
// The key is the current status, the value the set of legal targets.
var allowedTransitions = map[Status][]Status{
	StatusInit:       {StatusNew},
	StatusNew:        {StatusProcessing, StatusCancelled, StatusExpired},
	StatusProcessing: {StatusAuthorized, StatusCancelled, StatusExpired},
	StatusAuthorized: {StatusConfirmed, StatusCancelled, StatusRefunded, StatusExpired},
	StatusConfirmed:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
	StatusExpired:    {},
}

func Statuses() []Status {
	return []Status{
		StatusInit,
		StatusNew,
		StatusProcessing,
		StatusAuthorized,
		StatusConfirmed,
		StatusCancelled,
		StatusRefunded,
		StatusExpired,
	}
}

func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether the payment has reached a resting state. A
// confirmed payment counts as terminal for expiration and concurrency
// purposes even though the matrix still allows the refund transition.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
