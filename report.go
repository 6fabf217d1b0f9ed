package preprocessor

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/transform"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/utils"
)

// FileInfo describes an input or output table
type FileInfo struct {
	Name    string
	Size    int64
	Missing bool
}

// Report merges the results of every step of a run
type Report struct {
	InputDir  string
	OutputDir string
	Started   time.Time
	Elapsed   time.Duration

	Inputs    []FileInfo
	Copied    []transform.CopyResult
	Routes    *transform.RouteTypeResult
	StopTimes *transform.StreamResult
	Transfers *transform.TransferResult
	Outputs   []FileInfo
}

const rule = "----------------------------------------------------------------------"

// WriteSummary renders a human readable run summary.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	fmt.Fprintln(w, "  Korean GTFS Preprocessor for OpenTripPlanner")
	fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	fmt.Fprintf(w, "\nStarted:  %s\nInput:    %s\nOutput:   %s\n", r.Started.Format("2006-01-02 15:04:05"), r.InputDir, r.OutputDir)

	if len(r.Copied) > 0 {
		section(w, "Copied (BOM removed)")
		for _, c := range r.Copied {
			if c.Skipped {
				fmt.Fprintf(w, "  %s: not present (skipped)\n", c.File)
				continue
			}
			fmt.Fprintf(w, "  %s: %s records\n", c.File, utils.FormatNumber(c.Records))
		}
	}

	if r.Routes != nil {
		section(w, "routes.txt (route_type mapping)")
		fmt.Fprintf(w, "  routes: %s\n", utils.FormatNumber(r.Routes.Total))
		fmt.Fprintln(w, "  original:")
		writeDistribution(w, r.Routes.Original, gtfs.KTDBRouteTypeNames)
		fmt.Fprintln(w, "  converted:")
		writeDistribution(w, r.Routes.Converted, gtfs.OTPRouteTypeNames)
		if r.Routes.Unmapped > 0 {
			fmt.Fprintf(w, "  WARNING: %d routes with unmapped route_type (written blank)\n", r.Routes.Unmapped)
		}
	}

	if r.StopTimes != nil {
		section(w, "stop_times.txt (stop_sequence to integer)")
		fmt.Fprintf(w, "  records: %s\n  chunks:  %d\n", utils.FormatNumber(r.StopTimes.Records), r.StopTimes.Chunks)
		if len(r.StopTimes.SampleBefore) > 0 {
			fmt.Fprintf(w, "  before:  %v\n  after:   %v\n", r.StopTimes.SampleBefore, r.StopTimes.SampleAfter)
		}
	}

	if r.Transfers != nil {
		section(w, "transfers.txt (subway transfers)")
		if r.Transfers.Skipped {
			fmt.Fprintf(w, "  skipped: %s\n", r.Transfers.Reason)
		} else {
			t := r.Transfers
			fmt.Fprintf(w, "  transfers: %s (dropped %d incomplete)\n", utils.FormatNumber(t.Total), t.Dropped)
			fmt.Fprintf(w, "  avg %.0fs (%.1fmin), min %ds (%.1fmin), max %ds (%.1fmin)\n",
				t.AvgSeconds, t.AvgSeconds/60,
				t.MinSeconds, float64(t.MinSeconds)/60,
				t.MaxSeconds, float64(t.MaxSeconds)/60)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	fmt.Fprintf(w, "  Done in %s\n", utils.FormatElapsed(r.Elapsed))
	fmt.Fprintln(w, strings.Repeat("=", len(rule)))
	if len(r.Outputs) > 0 {
		fmt.Fprintln(w, "\n[generated files]")
		for _, o := range r.Outputs {
			fmt.Fprintf(w, "  %s: %s\n", o.Name, utils.FormatSize(o.Size))
		}
	}
	section(w, "Next: build the OTP graph")
	fmt.Fprintf(w, `
1. Zip the converted feed:
   cd %s
   zip korean-gtfs.zip *.txt

2. Build the graph:
   java -Xmx8G -jar otp-shaded.jar --build --save .

3. Start the server:
   java -Xmx8G -jar otp-shaded.jar --load .
`, r.OutputDir)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
}

func writeDistribution(w io.Writer, dist map[int]int, names map[int]string) {
	codes := make([]int, 0, len(dist))
	for c := range dist {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	for _, c := range codes {
		fmt.Fprintf(w, "    %d (%s): %s\n", c, gtfs.RouteTypeName(names, c), utils.FormatNumber(dist[c]))
	}
}
