package utils

import (
	"context"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestIsContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.True(t, IsContextCanceled(ctx.Err()))
	require.False(t, IsContextCanceled(nil))
}

func TestIsUnixAddr(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected bool
	}{
		{"Unix socket address", "/var/run/socket", true},
		{"Non-Unix socket address", "localhost:8080", false},
		{"Empty string", "", false},
		{"Relative path", "./socket", false},
		{"Windows path", "C:\\Program Files\\socket", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, IsUnixAddr(test.host))
		})
	}
}

func TestJoinHostPort(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     int
		expected string
	}{
		{"Hostname and port", "localhost", 8080, "localhost:8080"},
		{"IPv4 and port", "127.0.0.1", 8080, "127.0.0.1:8080"},
		{"IPv6 and port", "::1", 8080, "[::1]:8080"},
		{"Unix socket address", "/var/run/socket", 0, "/var/run/socket"},
		{"Empty host with port", "", 8080, ":8080"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, JoinHostPort(test.host, test.port))
		})
	}
}

func TestIterateOrderedMap(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}

	var keys []string
	var values []int
	for k, v := range IterateOrderedMap(m) {
		keys = append(keys, k)
		values = append(values, v)
	}

	require.Equal(t, []string{"a", "b", "c"}, keys)
	require.Equal(t, []int{1, 2, 3}, values)
}
