package preprocessor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/config"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/telemetry"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/transform"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/utils"
)

// Preprocessor runs every conversion step for one feed.
type Preprocessor struct {
	cfg     config.AppConfig
	fs      afero.Fs
	files   *transform.FeedFiles
	logger  *charmlog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Option customizes a Preprocessor
type Option func(*Preprocessor)

// WithFs replaces the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(p *Preprocessor) { p.fs = fsys }
}

func WithLogger(l *charmlog.Logger) Option {
	return func(p *Preprocessor) { p.logger = l }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Preprocessor) { p.metrics = m }
}

// New validates cfg and builds a Preprocessor.
func New(cfg config.AppConfig, opts ...Option) (*Preprocessor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	p := &Preprocessor{cfg: cfg, fs: afero.NewOsFs(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = charmlog.Default()
	}
	p.files = transform.NewFeedFiles(p.fs, cfg.Feed.InputDir, cfg.Feed.OutputDir)
	return p, nil
}

// Run executes all steps. A missing required input aborts before anything is
// written and returns a *MissingFilesError.
func (p *Preprocessor) Run(ctx context.Context) (*Report, error) {
	started := p.now()
	report := &Report{
		InputDir:  p.cfg.Feed.InputDir,
		OutputDir: p.cfg.Feed.OutputDir,
		Started:   started,
	}
	p.logger.Info("preprocessing feed", "input", p.cfg.Feed.InputDir, "output", p.cfg.Feed.OutputDir)

	inputs, err := p.CheckInputs()
	report.Inputs = inputs
	if err != nil {
		return report, err
	}
	if err := p.files.EnsureOutputDir(); err != nil {
		return report, err
	}

	for _, name := range p.cfg.Feed.CopyOnlyFiles {
		res, err := runStep(ctx, p, transform.NewCopier(p.files, name))
		if err != nil {
			return report, err
		}
		if res.Skipped {
			p.logger.Info("not present, skipping", "file", name)
		} else {
			p.logger.Info("copied", "file", name, "records", utils.FormatNumber(res.Records))
			p.metrics.AddRecords(name, res.Records)
		}
		report.Copied = append(report.Copied, res)
	}

	routes, err := runStep(ctx, p, transform.NewRouteTypeMapper(p.files, nil, p.logger, p.metrics))
	if err != nil {
		return report, err
	}
	report.Routes = &routes

	st, err := transform.NewStreamTransformer(p.files, transform.StreamOptions{
		File:             gtfs.StopTimesFile,
		Field:            gtfs.StopSequenceField,
		ChunkSize:        p.cfg.StopTimes.ChunkSize,
		ProgressInterval: p.cfg.StopTimes.ProgressInterval,
		CleanupOnError:   p.cfg.StopTimes.CleanupOnError,
		Metrics:          p.metrics,
	}, p.logger)
	if err != nil {
		return report, err
	}
	stopTimes, err := runStep(ctx, p, st)
	if err != nil {
		return report, err
	}
	report.StopTimes = &stopTimes

	if p.cfg.Feed.SkipTransfers {
		p.logger.Info("transfers generation skipped", "file", gtfs.TransfersFile)
		report.Transfers = &transform.TransferResult{Skipped: true, Reason: transform.ReasonSkipped}
	} else {
		transfers, err := runStep(ctx, p, transform.NewTransfersConverter(p.files, p.cfg.Feed.TransferXLSX, p.logger, p.metrics))
		if err != nil {
			return report, err
		}
		report.Transfers = &transfers
	}
	if report.Transfers.Skipped && p.cfg.Feed.EmptyTransfersOnSkip {
		if err := transform.WriteEmptyTransfers(p.files); err != nil {
			return report, err
		}
		p.logger.Info("wrote header-only transfers", "file", gtfs.TransfersFile)
	}

	outputs, err := p.listOutputs()
	if err != nil {
		return report, err
	}
	report.Outputs = outputs
	report.Elapsed = p.now().Sub(started)
	return report, nil
}

// CheckInputs stats every required table. The returned list covers all
// required files, present or not.
func (p *Preprocessor) CheckInputs() ([]FileInfo, error) {
	var (
		infos   []FileInfo
		missing []string
	)
	for _, name := range p.cfg.Feed.RequiredFiles {
		fi, err := p.fs.Stat(p.files.InputPath(name))
		if err != nil {
			p.logger.Error("missing", "file", name)
			infos = append(infos, FileInfo{Name: name, Missing: true})
			missing = append(missing, name)
			continue
		}
		p.logger.Info("ok", "file", name, "size", utils.FormatSize(fi.Size()))
		infos = append(infos, FileInfo{Name: name, Size: fi.Size()})
	}
	if len(missing) > 0 {
		return infos, &MissingFilesError{Dir: p.cfg.Feed.InputDir, Names: missing}
	}
	return infos, nil
}

// ValidateOutput checks the configured output directory.
func (p *Preprocessor) ValidateOutput() *ValidationReport {
	return ValidateOutput(p.fs, p.cfg.Feed.OutputDir, p.cfg.Feed.RequiredFiles, p.logger)
}

func (p *Preprocessor) listOutputs() ([]FileInfo, error) {
	matches, err := afero.Glob(p.fs, filepath.Join(p.cfg.Feed.OutputDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	sort.Strings(matches)
	out := make([]FileInfo, 0, len(matches))
	for _, m := range matches {
		fi, err := p.fs.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		out = append(out, FileInfo{Name: filepath.Base(m), Size: fi.Size()})
	}
	return out, nil
}

func runStep[R any](ctx context.Context, p *Preprocessor, c transform.Converter[R]) (R, error) {
	start := time.Now()
	p.logger.Debug("step started", "step", c.Name())
	res, err := c.Convert(ctx)
	p.metrics.ObserveStep(c.Name(), time.Since(start).Seconds())
	return res, err
}
