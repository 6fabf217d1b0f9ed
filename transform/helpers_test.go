package transform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/internal/logging"
)

const (
	testInputDir  = "/feed/raw"
	testOutputDir = "/feed/otp"
)

// newTestFiles returns a FeedFiles on an in-memory filesystem with both dirs created.
func newTestFiles(t *testing.T) *FeedFiles {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(testInputDir, 0o755))
	files := NewFeedFiles(fsys, testInputDir, testOutputDir)
	require.NoError(t, files.EnsureOutputDir())
	return files
}

func writeInput(t *testing.T, files *FeedFiles, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(files.FS(), files.InputPath(name), []byte(content), 0o644))
}

func readOutput(t *testing.T, files *FeedFiles, name string) string {
	t.Helper()
	data, err := afero.ReadFile(files.FS(), files.OutputPath(name))
	require.NoError(t, err)
	return string(data)
}

// stopTimes builds a stop_times.txt with n records whose stop_sequence is float text.
func stopTimes(n int) string {
	var b strings.Builder
	b.WriteString("trip_id,arrival_time,departure_time,stop_id,stop_sequence\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "T%d,08:%02d:00,08:%02d:30,S%d,%d.000000000\n", i%3, i%60, i%60, i, i)
	}
	return b.String()
}

// stopTimesInt is stopTimes after coercion.
func stopTimesInt(n int) string {
	var b strings.Builder
	b.WriteString("trip_id,arrival_time,departure_time,stop_id,stop_sequence\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "T%d,08:%02d:00,08:%02d:30,S%d,%d\n", i%3, i%60, i%60, i, i)
	}
	return b.String()
}

func newStream(t *testing.T, files *FeedFiles, opts StreamOptions) *StreamTransformer {
	t.Helper()
	st, err := NewStreamTransformer(files, opts, logging.Discard())
	require.NoError(t, err)
	return st
}
