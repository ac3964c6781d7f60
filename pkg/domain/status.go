package domain

import (
	"strings"

	dErrors "firledger/pkg/domain-errors"
)

// Status is the lifecycle state of a FIR record. The transition graph is
// strictly forward: Filed -> Investigated -> Validated | Rejected, and
// Validated -> Closed. Rejected and Closed are terminal.
type Status string

const (
	StatusFiled        Status = "Filed"
	StatusInvestigated Status = "Investigated"
	StatusValidated    Status = "Validated"
	StatusRejected     Status = "Rejected"
	StatusClosed       Status = "Closed"
)

var validStatuses = map[Status]bool{
	StatusFiled:        true,
	StatusInvestigated: true,
	StatusValidated:    true,
	StatusRejected:     true,
	StatusClosed:       true,
}

// ParseStatus constructs a Status from stored or external input.
func ParseStatus(s string) (Status, error) {
	for st := range validStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown status: %s", s)
}

// IsValid checks membership in the closed enumeration.
func (s Status) IsValid() bool { return validStatuses[s] }

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool { return s == StatusRejected || s == StatusClosed }

func (s Status) String() string { return string(s) }
