package domain

import (
	"strconv"
	"strings"

	dErrors "firledger/pkg/domain-errors"
)

// FIRID identifies a FIR record. IDs are assigned in strictly increasing
// order starting at 1 and never reused.
//
// On the wire the id is a decimal string, not a numeric literal: JSON
// consumers cannot represent the full uint64 range without precision loss.
type FIRID uint64

// ParseFIRID constructs a FIRID from external input.
func ParseFIRID(s string) (FIRID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "fir_id is required")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "invalid fir_id: %s", s)
	}
	return FIRID(n), nil
}

func (id FIRID) String() string { return strconv.FormatUint(uint64(id), 10) }

// IsNil returns true for the zero id, which is never assigned.
func (id FIRID) IsNil() bool { return id == 0 }

// MarshalJSON emits the id as a decimal string.
func (id FIRID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// UnmarshalJSON accepts both a decimal string and a bare number so older
// clients that send numeric ids keep working.
func (id *FIRID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return dErrors.Newf(dErrors.CodeValidation, "invalid fir_id: %s", s)
	}
	*id = FIRID(n)
	return nil
}
