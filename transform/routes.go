package transform

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/telemetry"
)

// RouteTypeResult reports a routes.txt remapping
type RouteTypeResult struct {
	Total       int
	Original    map[int]int // source code -> route count
	Converted   map[int]int // destination code -> route count
	Unmapped    int
	UnmappedRaw map[string]int // raw values outside the mapping -> count
}

// RouteTypeMapper rewrites routes.txt route_type codes through a mapping.
type RouteTypeMapper struct {
	files   FileStore
	mapping map[int]int
	logger  *charmlog.Logger
	metrics *telemetry.Metrics
}

var _ Converter[RouteTypeResult] = (*RouteTypeMapper)(nil)

// NewRouteTypeMapper uses gtfs.RouteTypeMapping when mapping is nil.
func NewRouteTypeMapper(files FileStore, mapping map[int]int, logger *charmlog.Logger, metrics *telemetry.Metrics) *RouteTypeMapper {
	if mapping == nil {
		mapping = gtfs.RouteTypeMapping
	}
	if logger == nil {
		logger = charmlog.Default()
	}
	return &RouteTypeMapper{files: files, mapping: mapping, logger: logger.With("file", gtfs.RoutesFile), metrics: metrics}
}

func (m *RouteTypeMapper) Name() string { return gtfs.RoutesFile }

// MapCode returns the destination code for a raw route_type value. ok is
// false when the value is not an integer or has no mapping.
func (m *RouteTypeMapper) MapCode(raw string) (src, dst int, ok bool) {
	src, ok = parseCode(raw)
	if !ok {
		return 0, 0, false
	}
	dst, ok = m.mapping[src]
	return src, dst, ok
}

// Convert remaps every route_type. Values outside the mapping are counted,
// logged and written as blanks; they do not abort the conversion.
func (m *RouteTypeMapper) Convert(ctx context.Context) (RouteTypeResult, error) {
	if err := ctx.Err(); err != nil {
		return RouteTypeResult{}, err
	}
	header, rows, err := readTable(m.files, gtfs.RoutesFile)
	if err != nil {
		return RouteTypeResult{}, err
	}
	idx := FieldIndex(header, gtfs.RouteTypeField)
	if idx < 0 {
		return RouteTypeResult{}, fmt.Errorf("%s: field %q not in header", gtfs.RoutesFile, gtfs.RouteTypeField)
	}

	res := RouteTypeResult{
		Total:       len(rows),
		Original:    map[int]int{},
		Converted:   map[int]int{},
		UnmappedRaw: map[string]int{},
	}
	for _, row := range rows {
		raw := row[idx]
		if src, ok := parseCode(raw); ok {
			res.Original[src]++
		}
		_, dst, ok := m.MapCode(raw)
		if !ok {
			res.Unmapped++
			res.UnmappedRaw[raw]++
			row[idx] = ""
			continue
		}
		res.Converted[dst]++
		row[idx] = strconv.Itoa(dst)
	}

	m.logger.Info("routes read", "total", res.Total)
	for code, n := range res.Original {
		m.logger.Debug("original route_type", "code", code, "name", gtfs.RouteTypeName(gtfs.KTDBRouteTypeNames, code), "routes", n)
	}
	for code, n := range res.Converted {
		m.logger.Debug("converted route_type", "code", code, "name", gtfs.RouteTypeName(gtfs.OTPRouteTypeNames, code), "routes", n)
	}
	if res.Unmapped > 0 {
		m.logger.Warn("unmapped route_type values", "rows", res.Unmapped, "values", res.UnmappedRaw)
		m.metrics.AddUnmapped(gtfs.RoutesFile, gtfs.RouteTypeField, res.Unmapped)
	}

	if err := writeTable(m.files, gtfs.RoutesFile, header, rows); err != nil {
		return res, err
	}
	m.metrics.AddRecords(gtfs.RoutesFile, len(rows))
	return res, nil
}

// parseCode accepts integers and integral floats such as "3.0".
func parseCode(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// readTable loads a small table fully into memory.
func readTable(files FileStore, name string) ([]string, [][]string, error) {
	in, err := files.OpenInput(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = in.Close() }()
	r := newTableReader(in)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header %s: %w", name, err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	return header, rows, nil
}

// writeTable writes header and rows to output name, replacing any existing file.
func writeTable(files FileStore, name string, header []string, rows [][]string) (err error) {
	f, err := files.CreateOutput(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
