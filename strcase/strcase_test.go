package strcase

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSnake(t *testing.T) {
	tests := map[string]string{
		"HostName":   "host_name",
		"ID":         "id",
		"HTTPServer": "http_server",
		"simple":     "simple",
		"":           "",
	}

	for input, expected := range tests {
		require.Equal(t, expected, Snake(input), input)
	}
}

func TestScreamingSnake(t *testing.T) {
	tests := map[string]string{
		"error":      "ERROR",
		"retryAfter": "RETRY_AFTER",
	}

	for input, expected := range tests {
		require.Equal(t, expected, ScreamingSnake(input), input)
	}
}
