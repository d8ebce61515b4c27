package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes for caller-supplied ids that cannot match a row.
const (
	pqInvalidText = "22P02"
	pqForeignKey  = "23503"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// badID reports whether err came from an id that is not a valid UUID.
func badID(err error) bool {
	return pqCode(err) == pqInvalidText
}
