package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"

	// StatusCancelled exists in the enum for historical rows and client
	// filters, but no transition produces it.
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPreparing: true},
	StatusPreparing: {StatusReady: true},
	StatusReady:     {StatusAccepted: true},
	StatusAccepted:  {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
