package database

import (
	"regexp"
	"strconv"
)

// PlaceholderStyle selects the native parameter marker a driver expects.
type PlaceholderStyle int

const (
	// PlaceholderQuestion rewrites "%s" to "?", used by SQLite, MySQL and ODBC-like drivers.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar rewrites "%s" to "$1", "$2", ... in order of appearance, used by PostgreSQL.
	PlaceholderDollar
)

// paramMarker matches a "%s" placeholder not itself preceded by another "%", capturing the
// preceding character so it can be re-emitted unchanged. A literal "%%s" is left alone.
var paramMarker = regexp.MustCompile(`([^%])(%s)`)

// RewritePlaceholders replaces every "%s" placeholder in sql with the driver-native marker for style,
// left to right. It is the Go equivalent of the source's PGReplacer/RE_PARAM substitution and is only
// applied when a backend's convert_params option is enabled; otherwise sql passes through the adapter
// unchanged.
func RewritePlaceholders(sql string, style PlaceholderStyle) string {
	n := 0

	return paramMarker.ReplaceAllStringFunc(sql, func(match string) string {
		n++

		prefix := match[:len(match)-2]
		if style == PlaceholderDollar {
			return prefix + "$" + strconv.Itoa(n)
		}

		return prefix + "?"
	})
}
