package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// UUID is like uuid.UUID, but marshals itself binarily (not like xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx) in SQL context.
type UUID struct {
	uuid.UUID
}

// Value implements driver.Valuer.
func (u UUID) Value() (driver.Value, error) {
	return u.UUID[:], nil
}

// Scan implements sql.Scanner.
func (u *UUID) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		if len(v) == 16 {
			parsed, err := uuid.FromBytes(v)
			if err != nil {
				return errors.Wrap(err, "can't scan UUID from bytes")
			}
			u.UUID = parsed
			return nil
		}

		parsed, err := uuid.ParseBytes(v)
		if err != nil {
			return errors.Wrap(err, "can't scan UUID from text bytes")
		}
		u.UUID = parsed

		return nil
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return errors.Wrap(err, "can't scan UUID from string")
		}
		u.UUID = parsed

		return nil
	case nil:
		u.UUID = uuid.UUID{}
		return nil
	default:
		return errors.Errorf("can't scan %T into UUID", src)
	}
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (u *UUID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return errors.Wrapf(err, "can't parse %q as UUID", string(text))
	}

	u.UUID = parsed

	return nil
}

// Assert interface compliance.
var (
	_ encoding.TextUnmarshaler = (*UUID)(nil)
	_ driver.Valuer            = UUID{}
	_ driver.Valuer            = (*UUID)(nil)
	_ sql.Scanner              = (*UUID)(nil)
)
