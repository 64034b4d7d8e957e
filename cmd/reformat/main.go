// Package main provides the reformat command that turns a lead export into the call sheet workbook.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/lwilliamskeiter/leads-reformat/internal/cache"
	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/formatter"
	"github.com/lwilliamskeiter/leads-reformat/internal/ingest"
	"github.com/lwilliamskeiter/leads-reformat/internal/logger"
	"github.com/lwilliamskeiter/leads-reformat/internal/metrics"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/internal/phonevalidator"
	"github.com/lwilliamskeiter/leads-reformat/internal/pipeline"
	"github.com/lwilliamskeiter/leads-reformat/pkg/metadata"
)

var version = "dev"

var (
	errUsage            = errors.New("usage")
	errInvalidDelimiter = errors.New("delimiter must be a single character")
)

type options struct {
	configPath string
	inputPath  string
	delimiter  string
	oldPath    string
	outputDir  string
	profile    string
	validate   bool
	apiKey     string
	logLevel   string
	preview    int
	verify     string
}

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config (defaults are used when empty)")
	flag.StringVar(&opts.inputPath, "input", "", "Path to the new contacts CSV export")
	flag.StringVar(&opts.delimiter, "delimiter", ",", "Input field delimiter; a single character or \"tab\"")
	flag.StringVar(&opts.oldPath, "old", "", "Path to a previous contacts CSV; contacts found there are skipped")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Directory for the workbook (overrides output.dir)")
	flag.StringVar(&opts.profile, "profile", config.DefaultProfile, "Rule profile name")
	flag.BoolVar(&opts.validate, "validate", false, "Look up every surviving number with the phone validation service")
	flag.StringVar(&opts.apiKey, "api-key", "", "Lookup API key (defaults to the env var named by lookup.api_key_env)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.IntVar(&opts.preview, "preview", 0, "Print the first N phone rows as a markdown table")
	flag.StringVar(&opts.verify, "verify", "", "Check that this workbook was produced from -input, then exit")
	flag.Parse()

	if err := run(opts); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println("Usage: reformat -input <leads.csv> [-old <previous.csv>] [-validate] [-profile name]")
			flag.PrintDefaults()
			os.Exit(2)
		}

		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.inputPath == "" {
		return errUsage
	}

	// 2. Configuration
	// ----------------
	cfg := config.Default()

	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	base := logger.NewLogger(cfg.Logging.Level)
	if opts.logLevel != "" {
		base.SetLevel(opts.logLevel)
	}

	log, runID := base.WithRunID()

	comma, err := parseDelimiter(opts.delimiter)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if opts.verify != "" {
		return verify(opts.verify, opts.inputPath, data)
	}

	profile, err := cfg.Profile(opts.profile)
	if err != nil {
		return err
	}

	// 3. Ingestion
	// ------------
	fmt.Printf("📂 Reading: %s (%d bytes)\n", opts.inputPath, len(data))

	reader := ingest.NewReaderWithDelimiter(comma)

	newTbl, err := reader.Read(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.inputPath, err)
	}

	var oldTbl *models.Table

	if opts.oldPath != "" {
		tbl, size, took, err := reader.ReadFileWithMetrics(opts.oldPath)
		if err != nil {
			return fmt.Errorf("failed to read old contacts: %w", err)
		}

		log.Info("loaded old contacts", "path", opts.oldPath, "rows", tbl.Len(), "bytes", size, "duration", took)
		oldTbl = tbl
	}

	// 4. Processing
	// -------------
	m, err := metrics.New()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("🚀 Starting leads reformat", "profile", opts.profile, "validate", opts.validate, "version", version)

	input := pipeline.Input{New: newTbl, Old: oldTbl}

	var res *pipeline.Result

	if opts.validate {
		res, err = runValidated(ctx, cfg, opts, profile, input, m, log)
	} else {
		res, err = pipeline.New(profile, cfg.Input.Patterns, log, pipeline.WithMetrics(m)).Run(ctx, input)
	}

	if err != nil {
		return err
	}

	// 5. Output
	// ---------
	outDir := cfg.Output.Dir
	if opts.outputDir != "" {
		outDir = opts.outputDir
	}

	now := time.Now()
	outPath := filepath.Join(outDir, metadata.OutputName(cfg.Output.Prefix, opts.inputPath, now))

	if err := formatter.WriteFile(outPath, formatter.Workbook{
		Phone:          res.Phone,
		Email:          res.Email,
		PhoneColumns:   res.PhoneColumns,
		AddressColumns: res.Mapping.AddressColumns(),
		FirstName:      res.Mapping.FirstName,
		TimezoneColumn: pipeline.TimezoneColumn,
		Metadata:       metadata.New(data, opts.inputPath, version, opts.validate, now),
	}); err != nil {
		return err
	}

	if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		log.Warn("metrics not written", "error", err)
	}

	if opts.preview > 0 {
		fmt.Println()
		fmt.Print(formatter.Markdown(res.Phone, opts.preview))
	}

	// 6. Final Report
	// ---------------
	printReport(res.Report, runID)
	fmt.Printf("✅ Saved to: %s\n", outPath)

	return nil
}

func runValidated(ctx context.Context, cfg *config.Config, opts options, profile config.Profile, input pipeline.Input, m *metrics.Metrics, log *logger.Logger) (*pipeline.Result, error) {
	apiKey := opts.apiKey
	if apiKey == "" {
		key, err := cfg.Lookup.APIKey()
		if err != nil {
			return nil, err
		}

		apiKey = key
	}

	client, err := phonevalidator.NewHTTPClient(cfg.Lookup, apiKey, log)
	if err != nil {
		return nil, err
	}

	store, err := cache.OpenStore(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup cache: %w", err)
	}

	var res *pipeline.Result

	err = cache.With(ctx, store, func(c *cache.Cache) error {
		log.Info("lookup cache opened", "backend", cfg.Cache.Backend, "entries", c.Len())

		p := pipeline.New(profile, cfg.Input.Patterns, log,
			pipeline.WithMetrics(m),
			pipeline.WithValidation(client, c,
				phonevalidator.WithConcurrency(cfg.Lookup.Concurrency),
				phonevalidator.WithObserver(m),
			),
		)

		var runErr error

		res, runErr = p.Run(ctx, input)

		return runErr
	})

	return res, err
}

// parseDelimiter accepts a single character, or "tab" and `\t` for tab-separated exports.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}

	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", errInvalidDelimiter, s)
	}

	r, _ := utf8.DecodeRuneInString(s)

	return r, nil
}

func verify(workbook, inputPath string, data []byte) error {
	meta, err := formatter.ReadMetadata(workbook)
	if err != nil {
		return err
	}

	if err := meta.Verify(data); err != nil {
		return fmt.Errorf("%s was not produced from %s: %w", workbook, inputPath, err)
	}

	fmt.Printf("✅ %s matches %s (version %s, validated %t, %s)\n",
		workbook, meta.Source, meta.Version, meta.Validation, meta.LastModify.Format(time.RFC3339))

	return nil
}

func printReport(r pipeline.Report, runID string) {
	fmt.Println()
	fmt.Printf("📊 Run %s\n", runID)
	fmt.Printf("   Input rows:            %d\n", r.Input)
	fmt.Printf("   Domestic:              %d\n", r.Domestic)
	fmt.Printf("   Not in old contacts:   %d\n", r.Unseen)
	fmt.Printf("   Outside excl. cities:  %d\n", r.City)
	fmt.Printf("   Outside excl. areas:   %d\n", r.AreaCode)
	fmt.Printf("   Passed quality gates:  %d (score-gated %d, slots blanked %d, no usable number %d)\n",
		r.Quality.Out, r.Quality.ScoreGated, r.Quality.SlotsBlanked, r.Quality.NoUsableNumber)
	fmt.Printf("   Phone sheet rows:      %d\n", r.PhoneRows)
	fmt.Printf("   Email sheet rows:      %d\n", r.EmailRows)

	if r.Validated {
		fmt.Printf("   Lookups:               %d cached, %d remote, %d service errors\n",
			r.Lookups.CacheHits, r.Lookups.Remote, r.Lookups.ServiceErrors)
	}

	fmt.Printf("   Duration:              %s\n", r.Duration.Round(time.Millisecond))
}
