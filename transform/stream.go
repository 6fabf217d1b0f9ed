package transform

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/telemetry"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/utils"
)

const (
	DefaultChunkSize        = 1_000_000
	DefaultProgressInterval = 5
	DefaultSampleSize       = 3
	writeBufferSize         = 1 << 20
)

// StreamOptions configures a StreamTransformer
type StreamOptions struct {
	// File is the table name resolved through the FileStore; defaults to stop_times.txt.
	File string
	// Field is the column coerced to integers; defaults to stop_sequence.
	Field string
	// ChunkSize bounds the records held in memory; 0 selects DefaultChunkSize.
	ChunkSize int
	// ProgressInterval logs progress every N chunks; 0 selects DefaultProgressInterval.
	ProgressInterval int
	// SampleSize is how many before/after values are kept from the first chunk.
	SampleSize int
	// CleanupOnError removes the partially written destination when the stream fails.
	CleanupOnError bool
	Metrics        *telemetry.Metrics
}

// StreamResult summarizes a completed stream
type StreamResult struct {
	File         string
	Records      int
	Chunks       int
	SampleBefore []string
	SampleAfter  []string
	Elapsed      time.Duration
}

// StreamTransformer rewrites one large table chunk by chunk, coercing a
// single field to integers. It is not safe for concurrent use.
type StreamTransformer struct {
	files  FileStore
	opts   StreamOptions
	logger *charmlog.Logger
}

var _ Converter[StreamResult] = (*StreamTransformer)(nil)

// NewStreamTransformer validates opts and fills in defaults.
func NewStreamTransformer(files FileStore, opts StreamOptions, logger *charmlog.Logger) (*StreamTransformer, error) {
	if opts.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", opts.ChunkSize)
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.File == "" {
		opts.File = gtfs.StopTimesFile
	}
	if opts.Field == "" {
		opts.Field = gtfs.StopSequenceField
	}
	if logger == nil {
		logger = charmlog.Default()
	}
	return &StreamTransformer{files: files, opts: opts, logger: logger.With("file", opts.File)}, nil
}

func (s *StreamTransformer) Name() string { return s.opts.File }

// Convert streams the table from input to output. On failure, chunks already
// written stay in place unless CleanupOnError is set.
func (s *StreamTransformer) Convert(ctx context.Context) (StreamResult, error) {
	res, err := s.stream(ctx)
	if err == nil {
		return res, nil
	}
	if res.Chunks > 0 {
		if s.opts.CleanupOnError {
			if rmErr := s.files.RemoveOutput(s.opts.File); rmErr != nil {
				s.logger.Error("failed to remove partial output", "path", s.files.OutputPath(s.opts.File), "err", rmErr)
			} else {
				s.logger.Warn("removed partial output", "path", s.files.OutputPath(s.opts.File))
			}
		} else {
			s.logger.Warn("partial output left on disk",
				"path", s.files.OutputPath(s.opts.File),
				"records", res.Records,
				"chunks", res.Chunks)
		}
	}
	return res, err
}

func (s *StreamTransformer) stream(ctx context.Context) (StreamResult, error) {
	start := time.Now()
	res := StreamResult{File: s.opts.File}
	s.logger.Info("coercing to integer", "field", s.opts.Field, "chunk_size", utils.FormatNumber(s.opts.ChunkSize))

	in, err := s.files.OpenInput(s.opts.File)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", s.opts.File, err)
	}
	defer func() { _ = in.Close() }()

	reader, err := NewChunkReader(in, s.opts.ChunkSize)
	if err != nil {
		return res, fmt.Errorf("%s: %w", s.opts.File, err)
	}
	header := reader.Header()
	idx := FieldIndex(header, s.opts.Field)
	if idx < 0 {
		return res, fmt.Errorf("%s: field %q not in header", s.opts.File, s.opts.Field)
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%s: %w", s.opts.File, err)
		}
		if chunk.Index == 0 {
			res.SampleBefore = sample(chunk, idx, s.opts.SampleSize)
		}
		if err := coerceField(chunk, idx, s.opts.Field); err != nil {
			return res, fmt.Errorf("%s: %w", s.opts.File, err)
		}
		if chunk.Index == 0 {
			res.SampleAfter = sample(chunk, idx, s.opts.SampleSize)
		}
		if err := s.writeChunk(header, chunk); err != nil {
			return res, err
		}
		res.Records += len(chunk.Records)
		res.Chunks++
		s.opts.Metrics.IncChunks(s.opts.File)
		s.opts.Metrics.AddRecords(s.opts.File, len(chunk.Records))
		if res.Chunks%s.opts.ProgressInterval == 0 {
			s.logger.Info("processing", "records", utils.FormatNumber(res.Records), "chunks", res.Chunks)
		}
	}

	if res.Chunks == 0 {
		// header-only table
		if err := s.writeChunk(header, Chunk{}); err != nil {
			return res, err
		}
	}
	res.Elapsed = time.Since(start)
	s.logger.Info("stream complete",
		"records", utils.FormatNumber(res.Records),
		"chunks", res.Chunks,
		"before", res.SampleBefore,
		"after", res.SampleAfter,
		"path", s.files.OutputPath(s.opts.File))
	return res, nil
}

// writeChunk truncates the destination and writes the header for chunk 0,
// and appends records only for every later chunk.
func (s *StreamTransformer) writeChunk(header []string, chunk Chunk) (err error) {
	var open func(string) (afero.File, error)
	if chunk.Index == 0 {
		open = s.files.CreateOutput
	} else {
		open = s.files.AppendOutput
	}
	f, err := open(s.opts.File)
	if err != nil {
		return fmt.Errorf("open output %s: %w", s.opts.File, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output %s: %w", s.opts.File, cerr)
		}
	}()

	bw := bufio.NewWriterSize(f, writeBufferSize)
	w := csv.NewWriter(bw)
	if chunk.Index == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header %s: %w", s.opts.File, err)
		}
	}
	for _, rec := range chunk.Records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write chunk %d of %s: %w", chunk.Index, s.opts.File, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write chunk %d of %s: %w", chunk.Index, s.opts.File, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush chunk %d of %s: %w", chunk.Index, s.opts.File, err)
	}
	return nil
}

func sample(chunk Chunk, idx, n int) []string {
	n = min(n, len(chunk.Records))
	out := make([]string, n)
	for i := range n {
		out[i] = chunk.Records[i][idx]
	}
	return out
}
