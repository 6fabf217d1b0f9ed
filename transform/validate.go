package transform

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Inferred column kinds, named after the dtypes a dataframe loader would pick
const (
	KindInt64   = "int64"
	KindFloat64 = "float64"
	KindObject  = "object"
	KindEmpty   = "empty"
)

// DefaultValidateRecords is the prefix length read by Validate
const DefaultValidateRecords = 100

// ValidationResult is the outcome of checking one column's inferred type
type ValidationResult struct {
	OK       bool
	Observed string
	Records  int
}

// InferKind infers a column type from its textual values. Blank values force
// float64 the way missing values do in a dataframe; anything non-numeric makes
// the column an object column.
func InferKind(values []string) string {
	if len(values) == 0 {
		return KindEmpty
	}
	kind := KindInt64
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			kind = KindFloat64
			continue
		}
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			kind = KindFloat64
			continue
		}
		return KindObject
	}
	return kind
}

// Validate reads the first limit records of path and checks that field is
// integral. A limit <= 0 selects DefaultValidateRecords.
func Validate(fsys afero.Fs, path, field string, limit int) (ValidationResult, error) {
	if limit <= 0 {
		limit = DefaultValidateRecords
	}
	values, err := ReadColumn(fsys, path, field, limit)
	if err != nil {
		return ValidationResult{}, err
	}
	kind := InferKind(values)
	return ValidationResult{OK: kind == KindInt64, Observed: kind, Records: len(values)}, nil
}

// ReadColumn returns field's values from the first limit records of path, or
// from every record when limit <= 0.
func ReadColumn(fsys afero.Fs, path, field string, limit int) ([]string, error) {
	rc, err := openStripped(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = rc.Close() }()

	r := newTableReader(rc)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	idx := FieldIndex(header, field)
	if idx < 0 {
		return nil, fmt.Errorf("%s: field %q not in header", path, field)
	}

	var values []string
	for limit <= 0 || len(values) < limit {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		values = append(values, rec[idx])
	}
	return values, nil
}

// FileHasBOM reports whether the file at path starts with a UTF-8 byte-order mark.
func FileHasBOM(fsys afero.Fs, path string) (bool, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()
	buf := make([]byte, len(BOM))
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return HasBOM(buf[:n]), nil
}
