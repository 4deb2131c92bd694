package database

import (
	"strconv"
	"strings"
)

// ParsePgStatus parses a PostgreSQL command status tag (as returned by the wire protocol after an
// execute, e.g. "INSERT 0 3", "UPDATE 7", "DELETE 2") into an affected-row count and, for INSERT,
// the object ID the server reported.
//
// recognized is false for any command other than INSERT/UPDATE/DELETE (or a malformed tag), in which
// case the backend adapter should fall back to treating status as an opaque, unparsed string.
func ParsePgStatus(status string) (affected int64, lastInsertID *string, recognized bool) {
	command, params, found := strings.Cut(status, " ")
	if !found {
		return 0, nil, false
	}

	switch command {
	case "INSERT":
		oid, rows, found := strings.Cut(params, " ")
		if !found {
			return 0, nil, false
		}

		n, err := strconv.ParseInt(rows, 10, 64)
		if err != nil {
			return 0, nil, false
		}

		return n, &oid, true
	case "UPDATE", "DELETE":
		n, err := strconv.ParseInt(params, 10, 64)
		if err != nil {
			return 0, nil, false
		}

		return n, nil, true
	default:
		return 0, nil, false
	}
}
