package preprocessor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput is wrapped by MissingFilesError.
var ErrMissingInput = errors.New("required input files missing")

// MissingFilesError lists required tables absent from the input directory.
type MissingFilesError struct {
	Dir   string
	Names []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("%s in %s: %s", ErrMissingInput, e.Dir, strings.Join(e.Names, ", "))
}

func (e *MissingFilesError) Unwrap() error { return ErrMissingInput }
