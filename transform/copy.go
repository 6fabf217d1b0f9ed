package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CopyResult reports a verbatim copy
type CopyResult struct {
	File    string
	Records int
	Skipped bool
}

// Copier copies a table byte for byte minus its byte-order mark.
type Copier struct {
	files FileStore
	name  string
}

var _ Converter[CopyResult] = (*Copier)(nil)

func NewCopier(files FileStore, name string) *Copier {
	return &Copier{files: files, name: name}
}

func (c *Copier) Name() string { return c.name }

// Convert copies the table, or reports Skipped when the input is absent.
func (c *Copier) Convert(ctx context.Context) (CopyResult, error) {
	if err := ctx.Err(); err != nil {
		return CopyResult{}, err
	}
	if !c.files.InputExists(c.name) {
		return CopyResult{File: c.name, Skipped: true}, nil
	}
	n, err := CopyWithoutBOM(c.files, c.name)
	if err != nil {
		return CopyResult{File: c.name}, err
	}
	return CopyResult{File: c.name, Records: n}, nil
}

// CopyWithoutBOM writes name from input to output unchanged except for a
// leading byte-order mark, and returns the number of data records.
func CopyWithoutBOM(files FileStore, name string) (n int, err error) {
	in, err := files.OpenInput(name)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = in.Close() }()

	out, err := files.CreateOutput(name)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()

	// the csv reader drains the tee, so every byte reaches out
	r := newTableReader(io.TeeReader(in, out))
	r.FieldsPerRecord = -1
	rows := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("copy %s: %w", name, err)
		}
		rows++
	}
	if rows == 0 {
		return 0, nil
	}
	return rows - 1, nil
}
