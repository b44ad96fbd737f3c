package hrprocess

import "github.com/warp/severance-engine/generic"

type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "em_analise"
	StatusApproved Status = "aprovado"
	StatusRejected Status = "rejeitado"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusInReview, StatusRejected},
	StatusInReview: {StatusApproved, StatusRejected},
}

// ParseStatus accepts only the known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", generic.InvalidArgument("status", "unknown status "+s)
}

// CanTransition reports whether the workflow allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen is true while the process can still change.
func (s Status) IsOpen() bool {
	return len(transitions[s]) > 0
}
