package preprocessor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/config"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/internal/logging"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/telemetry"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/transform"
)

const (
	inDir  = "/data/raw"
	outDir = "/data/otp"
	bom    = "\xEF\xBB\xBF"
)

var feedTables = map[string]string{
	gtfs.AgencyFile:   "agency_id,agency_name,agency_url,agency_timezone\nKTDB,KTDB,http://ktdb.go.kr,Asia/Seoul\n",
	gtfs.CalendarFile: "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\nWD,1,1,1,1,1,0,0,20230301,20231231\n",
	gtfs.StopsFile:    "stop_id,stop_name,stop_lat,stop_lon\nS1,서울역,37.554648,126.972559\nS2,시청,37.565715,126.977088\nS3,종각,37.570161,126.982923\n",
	gtfs.RoutesFile:   "route_id,agency_id,route_short_name,route_type\nR1,KTDB,1호선,1\nR2,KTDB,470,0\nR3,KTDB,KTX,6\n",
	gtfs.TripsFile:    "route_id,service_id,trip_id\nR1,WD,T1\nR2,WD,T2\n",
	gtfs.StopTimesFile: "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"T1,08:00:00,08:00:30,S1,1.000000000\n" +
		"T1,08:03:00,08:03:30,S2,2.000000000\n" +
		"T1,08:05:00,08:05:30,S3,3.000000000\n" +
		"T2,09:00:00,09:00:00,S2,1.000000000\n" +
		"T2,09:04:00,09:04:00,S3,2.000000000\n",
}

func testConfig() config.AppConfig {
	cfg := config.Default()
	cfg.Feed.InputDir = inDir
	cfg.Feed.OutputDir = outDir
	cfg.Feed.TransferXLSX = "transfers.xlsx"
	cfg.StopTimes.ChunkSize = 2
	return cfg
}

// seedFeed writes every table with a byte-order mark, as KTDB ships them.
func seedFeed(t *testing.T, fsys afero.Fs, skip ...string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(inDir, 0o755))
	skipped := map[string]bool{}
	for _, s := range skip {
		skipped[s] = true
	}
	for name, body := range feedTables {
		if skipped[name] {
			continue
		}
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(inDir, name), []byte(bom+body), 0o644))
	}
}

func seedWorkbook(t *testing.T, fsys afero.Fs) {
	t.Helper()
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"title"}, {"-"}, {"-"}, {"-"}, {"-"}, {"-"},
		{"seq", "from", "to", "minutes", "ref"},
		{1, "S1", "S2", 2.5, "KTDB"},
		{2, "S2", "S3", 1, "KTDB"},
	}
	for i, row := range rows {
		require.NoError(t, book.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row))
	}
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(inDir, "transfers.xlsx"), buf.Bytes(), 0o644))
}

func newTestPreprocessor(t *testing.T, fsys afero.Fs, cfg config.AppConfig) *Preprocessor {
	t.Helper()
	p, err := New(cfg, WithFs(fsys), WithLogger(logging.Discard()), WithMetrics(telemetry.New()))
	require.NoError(t, err)
	return p
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func TestPreprocessor_Run(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFeed(t, fsys)
	seedWorkbook(t, fsys)
	p := newTestPreprocessor(t, fsys, testConfig())

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	t.Run("copied tables lose the BOM only", func(t *testing.T) {
		for _, name := range []string{gtfs.AgencyFile, gtfs.CalendarFile, gtfs.StopsFile, gtfs.TripsFile} {
			assert.Equal(t, feedTables[name], readFile(t, fsys, filepath.Join(outDir, name)), name)
		}
		skipped := 0
		for _, c := range report.Copied {
			if c.Skipped {
				skipped++
			}
		}
		// calendar_dates, shapes and frequencies are absent
		assert.Equal(t, 3, skipped)
	})

	t.Run("routes remapped", func(t *testing.T) {
		require.NotNil(t, report.Routes)
		assert.Equal(t, 3, report.Routes.Total)
		assert.Zero(t, report.Routes.Unmapped)
		assert.Equal(t,
			"route_id,agency_id,route_short_name,route_type\nR1,KTDB,1호선,1\nR2,KTDB,470,3\nR3,KTDB,KTX,2\n",
			readFile(t, fsys, filepath.Join(outDir, gtfs.RoutesFile)))
	})

	t.Run("stop_times coerced", func(t *testing.T) {
		require.NotNil(t, report.StopTimes)
		assert.Equal(t, 5, report.StopTimes.Records)
		assert.Equal(t, 3, report.StopTimes.Chunks)
		assert.Equal(t, []string{"1", "2"}, report.StopTimes.SampleAfter)
		out := readFile(t, fsys, filepath.Join(outDir, gtfs.StopTimesFile))
		assert.Equal(t, strings.ReplaceAll(feedTables[gtfs.StopTimesFile], ".000000000", ""), out)
	})

	t.Run("transfers built", func(t *testing.T) {
		require.NotNil(t, report.Transfers)
		assert.False(t, report.Transfers.Skipped)
		assert.Equal(t, 2, report.Transfers.Total)
		assert.Equal(t,
			"from_stop_id,to_stop_id,transfer_type,min_transfer_time\nS1,S2,2,150\nS2,S3,2,60\n",
			readFile(t, fsys, filepath.Join(outDir, gtfs.TransfersFile)))
	})

	t.Run("outputs listed", func(t *testing.T) {
		var names []string
		for _, o := range report.Outputs {
			names = append(names, o.Name)
		}
		assert.Equal(t, []string{"agency.txt", "calendar.txt", "routes.txt", "stop_times.txt", "stops.txt", "transfers.txt", "trips.txt"}, names)
	})

	t.Run("output validates", func(t *testing.T) {
		vr := p.ValidateOutput()
		assert.True(t, vr.Passed, "failed checks: %+v", vr.Failed())
	})
}

func TestPreprocessor_MissingRequiredFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFeed(t, fsys, gtfs.TripsFile, gtfs.StopTimesFile)
	p := newTestPreprocessor(t, fsys, testConfig())

	report, err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrMissingInput)

	var missing *MissingFilesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{gtfs.TripsFile, gtfs.StopTimesFile}, missing.Names)
	assert.Contains(t, err.Error(), "trips.txt, stop_times.txt")

	assert.Len(t, report.Inputs, 6)
	exists, err := afero.DirExists(fsys, outDir)
	require.NoError(t, err)
	assert.False(t, exists, "nothing is written before inputs are confirmed")
}

func TestPreprocessor_SkipTransfers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFeed(t, fsys)
	seedWorkbook(t, fsys)
	cfg := testConfig()
	cfg.Feed.SkipTransfers = true

	report, err := newTestPreprocessor(t, fsys, cfg).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report.Transfers)
	assert.True(t, report.Transfers.Skipped)
	assert.Equal(t, transform.ReasonSkipped, report.Transfers.Reason)
	exists, _ := afero.Exists(fsys, filepath.Join(outDir, gtfs.TransfersFile))
	assert.False(t, exists)
}

func TestPreprocessor_EmptyTransfersOnSkip(t *testing.T) {
	tests := []struct {
		name   string
		skip   bool
		reason string
	}{
		{"skipped by flag", true, transform.ReasonSkipped},
		{"workbook missing", false, transform.ReasonFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			seedFeed(t, fsys)
			cfg := testConfig()
			cfg.Feed.SkipTransfers = tt.skip
			cfg.Feed.EmptyTransfersOnSkip = true

			report, err := newTestPreprocessor(t, fsys, cfg).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.reason, report.Transfers.Reason)
			got := readFile(t, fsys, filepath.Join(outDir, gtfs.TransfersFile))
			assert.Equal(t, strings.Join(gtfs.TransfersHeader, ",")+"\n", got)
		})
	}
}

func TestPreprocessor_MissingWorkbookContinues(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFeed(t, fsys)

	report, err := newTestPreprocessor(t, fsys, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Transfers.Skipped)
	assert.Equal(t, transform.ReasonFileNotFound, report.Transfers.Reason)
}

func TestPreprocessor_BadStopSequenceAborts(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFeed(t, fsys)
	bad := feedTables[gtfs.StopTimesFile] + "T2,09:08:00,09:08:00,S1,abc\n"
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(inDir, gtfs.StopTimesFile), []byte(bad), 0o644))

	report, err := newTestPreprocessor(t, fsys, testConfig()).Run(context.Background())
	var ce *transform.CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 6, ce.Record)
	assert.Nil(t, report.StopTimes)
	assert.Nil(t, report.Transfers, "later steps do not run")
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StopTimes.ChunkSize = 0
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestReport_WriteSummary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFeed(t, fsys)
	p := newTestPreprocessor(t, fsys, testConfig())
	p.now = func() time.Time { return time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC) }

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	report.WriteSummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "Started:  2023-03-01 09:00:00")
	assert.Contains(t, out, "stops.txt: 3 records")
	assert.Contains(t, out, "shapes.txt: not present (skipped)")
	assert.Contains(t, out, "0 (city/rural/village bus): 1")
	assert.Contains(t, out, "3 (BUS): 1")
	assert.Contains(t, out, "records: 5")
	assert.Contains(t, out, "skipped: file_not_found")
	assert.Contains(t, out, "zip korean-gtfs.zip *.txt")
}
