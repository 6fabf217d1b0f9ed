package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStore resolves feed file names to input and output locations and opens
// them. Inputs are returned with any UTF-8 byte-order mark stripped, and
// reading them fails with ErrInvalidUTF8 on bytes that are not UTF-8.
type FileStore interface {
	InputPath(name string) string
	OutputPath(name string) string
	InputExists(name string) bool
	OpenInput(name string) (io.ReadCloser, error)
	CreateOutput(name string) (afero.File, error)
	AppendOutput(name string) (afero.File, error)
	RemoveOutput(name string) error
	FS() afero.Fs
}

// Converter is one preprocessing step producing a single output file.
type Converter[R any] interface {
	Name() string
	Convert(ctx context.Context) (R, error)
}

// FeedFiles is the afero-backed FileStore used by every converter.
type FeedFiles struct {
	fs        afero.Fs
	inputDir  string
	outputDir string
}

var _ FileStore = (*FeedFiles)(nil)

// NewFeedFiles creates a FileStore rooted at inputDir and outputDir on fsys.
func NewFeedFiles(fsys afero.Fs, inputDir, outputDir string) *FeedFiles {
	return &FeedFiles{fs: fsys, inputDir: inputDir, outputDir: outputDir}
}

func (f *FeedFiles) FS() afero.Fs { return f.fs }

func (f *FeedFiles) InputPath(name string) string { return filepath.Join(f.inputDir, name) }

func (f *FeedFiles) OutputPath(name string) string { return filepath.Join(f.outputDir, name) }

func (f *FeedFiles) InputExists(name string) bool {
	_, err := f.fs.Stat(f.InputPath(name))
	return err == nil
}

// EnsureOutputDir creates the output directory and its parents.
func (f *FeedFiles) EnsureOutputDir() error {
	if err := f.fs.MkdirAll(f.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", f.outputDir, err)
	}
	return nil
}

func (f *FeedFiles) OpenInput(name string) (io.ReadCloser, error) {
	return openStripped(f.fs, f.InputPath(name))
}

func (f *FeedFiles) CreateOutput(name string) (afero.File, error) {
	return f.fs.OpenFile(f.OutputPath(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

func (f *FeedFiles) AppendOutput(name string) (afero.File, error) {
	return f.fs.OpenFile(f.OutputPath(name), os.O_APPEND|os.O_WRONLY, 0o644)
}

func (f *FeedFiles) RemoveOutput(name string) error {
	err := f.fs.Remove(f.OutputPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

type strippedFile struct {
	io.Reader
	f afero.File
}

func (s *strippedFile) Close() error { return s.f.Close() }

func openStripped(fsys afero.Fs, path string) (io.ReadCloser, error) {
	fh, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	return &strippedFile{Reader: RequireUTF8(StripBOM(fh)), f: fh}, nil
}
