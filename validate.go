package preprocessor

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/transform"
)

// Validation check names
const (
	CheckExists       = "exists"
	CheckNoBOM        = "no_bom"
	CheckRouteType    = "route_type"
	CheckStopSequence = "stop_sequence"
)

// stopSequenceProbe is how many stop_times.txt records the integer check reads.
const stopSequenceProbe = 1000

// Check is a single validation outcome
type Check struct {
	Name   string
	File   string
	Passed bool
	Detail string
}

// ValidationReport aggregates checks; Passed is false if any check failed.
type ValidationReport struct {
	Checks []Check
	Passed bool
}

func (r *ValidationReport) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// Failed returns the checks that did not pass.
func (r *ValidationReport) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// ValidateOutput checks that every required table exists without a
// byte-order mark, that route_type holds only OTP codes, and that the
// stop_times.txt prefix has integral stop_sequence values.
func ValidateOutput(fsys afero.Fs, dir string, required []string, logger *charmlog.Logger) *ValidationReport {
	if logger == nil {
		logger = charmlog.Default()
	}
	r := &ValidationReport{Passed: true}
	present := map[string]bool{}

	for _, name := range required {
		ok, _ := afero.Exists(fsys, filepath.Join(dir, name))
		present[name] = ok
		c := Check{Name: CheckExists, File: name, Passed: ok}
		if !ok {
			c.Detail = "file not found"
		}
		r.add(c)
	}

	for _, name := range required {
		if !present[name] {
			continue
		}
		has, err := transform.FileHasBOM(fsys, filepath.Join(dir, name))
		c := Check{Name: CheckNoBOM, File: name, Passed: err == nil && !has}
		switch {
		case err != nil:
			c.Detail = err.Error()
		case has:
			c.Detail = "byte-order mark present"
		}
		r.add(c)
	}

	if ok, _ := afero.Exists(fsys, filepath.Join(dir, gtfs.RoutesFile)); ok {
		r.add(checkRouteTypes(fsys, filepath.Join(dir, gtfs.RoutesFile)))
	}

	if ok, _ := afero.Exists(fsys, filepath.Join(dir, gtfs.StopTimesFile)); ok {
		c := Check{Name: CheckStopSequence, File: gtfs.StopTimesFile}
		res, err := transform.Validate(fsys, filepath.Join(dir, gtfs.StopTimesFile), gtfs.StopSequenceField, stopSequenceProbe)
		switch {
		case err != nil:
			c.Detail = err.Error()
		case !res.OK:
			c.Detail = fmt.Sprintf("stop_sequence dtype %s (not integer)", res.Observed)
		default:
			c.Passed = true
			c.Detail = fmt.Sprintf("stop_sequence dtype %s", res.Observed)
		}
		r.add(c)
	}

	for _, c := range r.Checks {
		if c.Passed {
			logger.Info("PASS", "check", c.Name, "file", c.File, "detail", c.Detail)
		} else {
			logger.Error("FAIL", "check", c.Name, "file", c.File, "detail", c.Detail)
		}
	}
	return r
}

func checkRouteTypes(fsys afero.Fs, path string) Check {
	c := Check{Name: CheckRouteType, File: gtfs.RoutesFile}
	values, err := transform.ReadColumn(fsys, path, gtfs.RouteTypeField, 0)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	seen := map[string]struct{}{}
	var invalid []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		code, err := strconv.Atoi(v)
		if _, ok := gtfs.ValidOTPRouteTypes[code]; err != nil || !ok {
			invalid = append(invalid, strconv.Quote(v))
		}
	}
	actual := make([]string, 0, len(seen))
	for v := range seen {
		actual = append(actual, v)
	}
	sort.Strings(actual)
	sort.Strings(invalid)
	if len(invalid) > 0 {
		c.Detail = "invalid route_type values: " + strings.Join(invalid, ", ")
		return c
	}
	c.Passed = true
	c.Detail = "route_type values: " + strings.Join(actual, ", ")
	return c
}

// WriteSummary renders each check and the overall verdict.
func (r *ValidationReport) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\n%s\nOutput validation\n%s\n", rule, rule)
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		line := fmt.Sprintf("  [%s] %-13s %s", status, c.Name, c.File)
		if c.Detail != "" {
			line += " - " + c.Detail
		}
		fmt.Fprintln(w, line)
	}
	if r.Passed {
		fmt.Fprintln(w, "\nAll checks passed.")
	} else {
		fmt.Fprintf(w, "\n%d check(s) failed.\n", len(r.Failed()))
	}
}
