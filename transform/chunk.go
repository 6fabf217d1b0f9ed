package transform

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when a table has no header line.
var ErrNoHeader = errors.New("table has no header line")

// Record is one table row, ordered like the header
type Record []string

// Chunk is a contiguous run of at most ChunkSize records
type Chunk struct {
	Index   int // position in the stream, starting at 0
	Offset  int // number of records preceding this chunk
	Records []Record
}

// newTableReader returns the csv reader used for every feed table. A bare
// quote inside an unquoted field is kept as data.
func newTableReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	return cr
}

// ChunkReader yields a table's records in chunks, in source order. It is
// forward-only and cannot be restarted without reopening the source.
type ChunkReader struct {
	r      *csv.Reader
	header []string
	size   int
	next   int
	read   int
	done   bool
}

// NewChunkReader reads the header from r and prepares chunks of up to size records.
func NewChunkReader(r io.Reader, size int) (*ChunkReader, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	cr := newTableReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// every record must match the header width from here on
	cr.FieldsPerRecord = len(header)
	return &ChunkReader{r: cr, header: header, size: size}, nil
}

// Header returns the table's field names.
func (c *ChunkReader) Header() []string {
	return c.header
}

// Next returns the next chunk, or io.EOF once the source is exhausted. The
// final chunk may hold fewer than size records; an empty source yields io.EOF
// on the first call.
func (c *ChunkReader) Next() (Chunk, error) {
	if c.done {
		return Chunk{}, io.EOF
	}
	chunk := Chunk{Index: c.next, Offset: c.read, Records: make([]Record, 0, min(c.size, 4096))}
	for len(chunk.Records) < c.size {
		rec, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return Chunk{}, fmt.Errorf("read record %d: %w", c.read+len(chunk.Records)+1, err)
		}
		chunk.Records = append(chunk.Records, rec)
	}
	if len(chunk.Records) == 0 {
		return Chunk{}, io.EOF
	}
	c.next++
	c.read += len(chunk.Records)
	return chunk, nil
}

// FieldIndex returns the position of name in header, matching case-insensitively, or -1.
func FieldIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
