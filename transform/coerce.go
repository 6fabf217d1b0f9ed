package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrOutOfRange is returned for values whose integer part does not fit in int64.
var ErrOutOfRange = errors.New("integer out of int64 range")

// CoercionError reports a value that could not be rendered as an integer.
type CoercionError struct {
	Field  string
	Record int // 1-based data record number
	Value  string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("record %d: %s value %q is not numeric: %v", e.Record, e.Field, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// CoerceInteger renders a decimal string as an exact integer, truncating
// toward zero: "1.000000000" -> "1", "12.7" -> "12", "-3.5" -> "-3".
// Already integral values are returned unchanged in value. Results outside
// int64 fail with ErrOutOfRange.
func CoerceInteger(s string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	// bound the exponent before materializing digits
	switch exp := d.Exponent(); {
	case d.IsZero():
		return "0", nil
	case exp > 18:
		return "", ErrOutOfRange
	case exp < 0 && -int(exp) >= d.NumDigits():
		return "0", nil
	}
	n := d.Truncate(0).BigInt()
	if !n.IsInt64() {
		return "", ErrOutOfRange
	}
	return n.String(), nil
}

// coerceField rewrites field idx of every record in chunk in place.
func coerceField(chunk Chunk, idx int, field string) error {
	for i, rec := range chunk.Records {
		v, err := CoerceInteger(rec[idx])
		if err != nil {
			return &CoercionError{Field: field, Record: chunk.Offset + i + 1, Value: rec[idx], Err: err}
		}
		rec[idx] = v
	}
	return nil
}
