package database

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		style    PlaceholderStyle
		expected string
	}{
		{
			name:     "postgres two placeholders",
			sql:      `select "%s", %s`,
			style:    PlaceholderDollar,
			expected: `select "$1", $2`,
		},
		{
			name:     "question mark two placeholders",
			sql:      `select "%s", %s`,
			style:    PlaceholderQuestion,
			expected: `select "?", ?`,
		},
		{
			name:     "escaped percent left alone, postgres",
			sql:      `select "%%s"`,
			style:    PlaceholderDollar,
			expected: `select "%%s"`,
		},
		{
			name:     "escaped percent left alone, question mark",
			sql:      `select "%%s"`,
			style:    PlaceholderQuestion,
			expected: `select "%%s"`,
		},
		{
			name:     "no placeholders",
			sql:      `select 1`,
			style:    PlaceholderDollar,
			expected: `select 1`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, RewritePlaceholders(test.sql, test.style))
		})
	}
}
