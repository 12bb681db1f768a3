package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashmarket/discount-sync/internal/importer"
	"github.com/ashmarket/discount-sync/internal/reconcile"
	"github.com/ashmarket/discount-sync/internal/report"
	"github.com/ashmarket/discount-sync/internal/tablereader"
)

var (
	// ErrFileMissing means the import file does not exist; the run is a
	// no-op and nothing is touched.
	ErrFileMissing = errors.New("import file missing")

	// ErrUnchanged means the import file has not been modified since the
	// last recorded run; the run is a no-op.
	ErrUnchanged = errors.New("import file unchanged since last run")
)

// Variant selects which reconciliation strategy a run uses.
type Variant string

const (
	VariantDirect  Variant = "direct"
	VariantGrouped Variant = "grouped"
)

// ParseVariant validates a variant name coming from the CLI.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantDirect, VariantGrouped:
		return Variant(s), nil
	}
	return "", fmt.Errorf("unknown variant %q (want direct or grouped)", s)
}

// Prefix returns the rule-name namespace owned by the variant.
func (v Variant) Prefix() (string, error) {
	switch v {
	case VariantDirect:
		return reconcile.DirectPrefix, nil
	case VariantGrouped:
		return reconcile.GroupedPrefix, nil
	}
	return "", fmt.Errorf("unknown variant %q", v)
}

// RunState persists the last-processed stamp per variant so unchanged input
// files are skipped.
type RunState interface {
	LastImportStamp(ctx context.Context, key string) (string, error)
	SetImportStamp(ctx context.Context, key, value string) error
}

// Options carries the per-run parameters, normally filled from config with
// CLI overrides on top.
type Options struct {
	File       string
	Sheet      string
	ColumnFrom string
	ColumnTo   string
	StartRow   int
	EndRow     int
	LogFile    string
	SiteID     string
	Variant    Variant

	// Force skips the unchanged-file guard.
	Force bool
}

// Runner wires the import phases together: guard, read, parse, filter,
// reconcile, flush report, record stamp.
type Runner struct {
	// Reader is the table source; nil means an XLSX reader over
	// Options.File.
	Reader  tablereader.Reader
	Rules   reconcile.RuleStore
	Catalog reconcile.ProductCatalog
	Prices  reconcile.PriceLookup
	State   RunState
	Logger  zerolog.Logger

	// Now supplies the clock for expiry filtering and report headers; nil
	// means time.Now.
	Now func() time.Time
}

// Run executes one import. The report is flushed to Options.LogFile even
// when the run aborts mid-way, so partial outcomes are never lost.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	info, err := os.Stat(opts.File)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileMissing, opts.File)
		}
		return fmt.Errorf("failed to stat import file: %w", err)
	}

	stampKey := "discounts_excel:" + string(opts.Variant)
	stamp := strconv.FormatInt(info.ModTime().Unix(), 10)

	last, err := r.State.LastImportStamp(ctx, stampKey)
	if err != nil {
		return fmt.Errorf("failed to read last import stamp: %w", err)
	}
	if !opts.Force && last == stamp {
		return ErrUnchanged
	}

	rep := report.NewCollector()
	defer r.flushReport(rep, opts.LogFile, now)

	reader := r.Reader
	if reader == nil {
		reader = tablereader.NewXLSXReader(opts.File)
	}

	rows, err := reader.Read(ctx, opts.Sheet, tablereader.Columns(opts.ColumnFrom, opts.ColumnTo), opts.StartRow, opts.EndRow)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	records, diagnostics := importer.Parse(rows, importer.DefaultColumnMapping)
	rep.Extend(diagnostics)
	records = importer.Filter(records, now)

	r.Logger.Info().
		Str("variant", string(opts.Variant)).
		Str("file", opts.File).
		Int("rows", len(rows)).
		Int("records", len(records)).
		Msg("starting reconciliation")

	switch opts.Variant {
	case VariantDirect:
		direct := &reconcile.Direct{
			SiteID:  opts.SiteID,
			Rules:   r.Rules,
			Catalog: r.Catalog,
			Prices:  r.Prices,
			Report:  rep,
			Logger:  r.Logger,
		}
		err = direct.Run(ctx, records)
	case VariantGrouped:
		grouped := &reconcile.Grouped{
			SiteID:  opts.SiteID,
			Rules:   r.Rules,
			Catalog: r.Catalog,
			Prices:  r.Prices,
			Report:  rep,
			Logger:  r.Logger,
			Now:     r.Now,
		}
		err = grouped.Run(ctx, records)
	default:
		return fmt.Errorf("unknown variant %q", opts.Variant)
	}
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if err := r.State.SetImportStamp(ctx, stampKey, stamp); err != nil {
		return fmt.Errorf("failed to record import stamp: %w", err)
	}

	r.Logger.Info().
		Str("variant", string(opts.Variant)).
		Int("report_entries", rep.Len()).
		Msg("reconciliation finished")

	return nil
}

// Purge deletes every rule owned by the variant's namespace, reporting each
// outcome to the log file.
func (r *Runner) Purge(ctx context.Context, opts Options) ([]string, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	prefix, err := opts.Variant.Prefix()
	if err != nil {
		return nil, err
	}

	rep := report.NewCollector()
	defer r.flushReport(rep, opts.LogFile, now)

	return reconcile.Purge(ctx, r.Rules, r.Catalog, rep, r.Logger, opts.SiteID, prefix)
}

// flushReport appends the rendered report to the log file. An empty report
// writes nothing; flush failures are logged, never fatal.
func (r *Runner) flushReport(rep *report.Collector, logFile string, now time.Time) {
	if rep.Len() == 0 || logFile == "" {
		return
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.Logger.Error().Err(err).Str("file", logFile).Msg("failed to open report log")
		return
	}
	defer f.Close()

	if _, err := f.WriteString(rep.Render(now) + "\n\n"); err != nil {
		r.Logger.Error().Err(err).Str("file", logFile).Msg("failed to write report log")
	}
}
