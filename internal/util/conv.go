package util

import (
	"strconv"
)

// ParseID parses a path or query id. Zero, negative, malformed and
// out-of-range values are all ErrInvalidID.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}
