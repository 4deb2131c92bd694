package types

import (
	"encoding/json"
	"github.com/pkg/errors"
)

// MarshalJSON marshals v, used by the nullable types' MarshalJSON methods so that a nil/zero v encodes as JSON null.
func MarshalJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "can't marshal %#v as JSON", v)
	}

	return b, nil
}

// UnmarshalJSON unmarshals data into v, used by the nullable types' UnmarshalJSON methods.
func UnmarshalJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "can't unmarshal JSON %q", string(data))
	}

	return nil
}

// CantParseInt64 wraps err with the text that failed to parse as an int64.
func CantParseInt64(err error, text string) error {
	return errors.Wrapf(err, "can't parse %q as int64", text)
}

// CantParseUint64 wraps err with the text that failed to parse as an uint64.
func CantParseUint64(err error, text string) error {
	return errors.Wrapf(err, "can't parse %q as uint64", text)
}

// Zero returns the zero value of T.
func Zero[T any]() T {
	var zero T
	return zero
}
