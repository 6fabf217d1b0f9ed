package transform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/telemetry"
)

// TransferHeaderRow is the 0-based sheet row holding the workbook's column names.
const TransferHeaderRow = 6

// transferColumns names the workbook columns positionally
var transferColumns = []string{"Xfer_SEQ", "Fr_Stop_ID", "To_Stop_ID", "Time_Min", "Data_Ref"}

const (
	colSeq = iota
	colFrom
	colTo
	colMinutes
)

// Skip reasons
const (
	ReasonFileNotFound = "file_not_found"
	ReasonSkipped      = "skipped_by_flag"
)

// TransferResult reports transfers.txt generation
type TransferResult struct {
	Total      int
	Dropped    int // rows missing a stop or a numeric transfer time
	AvgSeconds float64
	MinSeconds int
	MaxSeconds int
	Skipped    bool
	Reason     string
}

// TransfersConverter turns the subway transfer workbook into transfers.txt.
type TransfersConverter struct {
	files     FileStore
	xlsxPath  string
	headerRow int
	logger    *charmlog.Logger
	metrics   *telemetry.Metrics
}

var _ Converter[TransferResult] = (*TransfersConverter)(nil)

// NewTransfersConverter reads the workbook at xlsxPath, which is resolved
// against the input directory when it is a bare file name.
func NewTransfersConverter(files FileStore, xlsxPath string, logger *charmlog.Logger, metrics *telemetry.Metrics) *TransfersConverter {
	if !strings.ContainsAny(xlsxPath, `/\`) {
		xlsxPath = files.InputPath(xlsxPath)
	}
	if logger == nil {
		logger = charmlog.Default()
	}
	return &TransfersConverter{
		files:     files,
		xlsxPath:  xlsxPath,
		headerRow: TransferHeaderRow,
		logger:    logger.With("file", gtfs.TransfersFile),
		metrics:   metrics,
	}
}

func (c *TransfersConverter) Name() string { return gtfs.TransfersFile }

// Convert writes transfers.txt. A missing or unreadable workbook is not an
// error: the result is marked Skipped with the reason.
func (c *TransfersConverter) Convert(ctx context.Context) (TransferResult, error) {
	if err := ctx.Err(); err != nil {
		return TransferResult{}, err
	}
	rows, err := c.readSheet()
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("transfer workbook not found, skipping", "path", c.xlsxPath)
		return TransferResult{Skipped: true, Reason: ReasonFileNotFound}, nil
	}
	if err != nil {
		c.logger.Warn("transfer workbook unreadable, skipping", "path", c.xlsxPath, "err", err)
		return TransferResult{Skipped: true, Reason: err.Error()}, nil
	}

	out, res := BuildTransfers(rows, c.headerRow)
	c.logger.Info("transfers built",
		"total", res.Total,
		"dropped", res.Dropped,
		"avg_s", fmt.Sprintf("%.0f", res.AvgSeconds),
		"min_s", res.MinSeconds,
		"max_s", res.MaxSeconds)
	if err := writeTable(c.files, gtfs.TransfersFile, gtfs.TransfersHeader, out); err != nil {
		return res, err
	}
	c.metrics.AddRecords(gtfs.TransfersFile, len(out))
	return res, nil
}

func (c *TransfersConverter) readSheet() ([][]string, error) {
	f, err := c.files.FS().Open(c.xlsxPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	book, err := excelize.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in workbook")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// BuildTransfers converts sheet rows into transfers.txt records. Rows above
// headerRow are ignored, the header row itself is replaced by fixed column
// names, and a repeated header as the first data row is dropped.
func BuildTransfers(rows [][]string, headerRow int) ([][]string, TransferResult) {
	var res TransferResult
	if len(rows) <= headerRow+1 {
		return [][]string{}, res
	}
	data := rows[headerRow+1:]
	if len(data) > 0 && cell(data[0], colSeq) == transferColumns[colSeq] {
		data = data[1:]
	}

	out := make([][]string, 0, len(data))
	sum := 0
	for _, row := range data {
		from := cell(row, colFrom)
		to := cell(row, colTo)
		minutes, err := decimal.NewFromString(cell(row, colMinutes))
		if from == "" || to == "" || err != nil {
			res.Dropped++
			continue
		}
		secs := int(minutes.Mul(decimal.NewFromInt(60)).IntPart())
		if len(out) == 0 || secs < res.MinSeconds {
			res.MinSeconds = secs
		}
		if len(out) == 0 || secs > res.MaxSeconds {
			res.MaxSeconds = secs
		}
		sum += secs
		out = append(out, []string{from, to, strconv.Itoa(int(gtfs.TransferMinTime)), strconv.Itoa(secs)})
	}
	res.Total = len(out)
	if res.Total > 0 {
		res.AvgSeconds = float64(sum) / float64(res.Total)
	}
	return out, res
}

// WriteEmptyTransfers writes a header-only transfers.txt.
func WriteEmptyTransfers(files FileStore) error {
	return writeTable(files, gtfs.TransfersFile, gtfs.TransfersHeader, nil)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
