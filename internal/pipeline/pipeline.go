// Package pipeline turns a raw lead export into the phone and email call sheets.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lwilliamskeiter/leads-reformat/internal/cache"
	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/logger"
	"github.com/lwilliamskeiter/leads-reformat/internal/metrics"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/internal/normalizer"
	"github.com/lwilliamskeiter/leads-reformat/internal/phonevalidator"
	"github.com/lwilliamskeiter/leads-reformat/internal/schema"
	"github.com/lwilliamskeiter/leads-reformat/internal/timezone"
)

// TimezoneColumn is the derived column added to the phone sheet.
const TimezoneColumn = "Timezone"

// ErrNilInput is returned when Run gets no new-contacts table.
var ErrNilInput = errors.New("pipeline input table is nil")

// Gate names, in the order rows pass through them.
const (
	StageInput    = "input"
	StageDomestic = "domestic"
	StageUnseen   = "unseen"
	StageCity     = "city"
	StageAreaCode = "area_code"
	StageQuality  = "quality"
)

// Input holds the tables of one run. Old is optional.
type Input struct {
	New *models.Table
	Old *models.Table
}

// Report counts rows surviving each gate and lookup outcomes.
type Report struct {
	Input     int
	Domestic  int
	Unseen    int
	City      int
	AreaCode  int
	Quality   normalizer.QualityStats
	PhoneRows int
	EmailRows int
	Validated bool
	Lookups   phonevalidator.Stats
	Duration  time.Duration
}

// Result is the output of a run.
type Result struct {
	Phone        *models.Table
	Email        *models.Table
	PhoneColumns []string
	Mapping      *schema.Mapping
	Report       Report
}

// Pipeline runs one rule profile over contact tables.
type Pipeline struct {
	profile  config.Profile
	patterns config.SchemaPatterns
	cleaner  *normalizer.Cleaner
	quality  *normalizer.QualityFilter
	gateway  *phonevalidator.Gateway
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithValidation enables phone validation through client, backed by c. The
// gateway shares the pipeline's cleaner and logger.
func WithValidation(client phonevalidator.Client, c *cache.Cache, opts ...phonevalidator.GatewayOption) Option {
	return func(p *Pipeline) {
		p.gateway = phonevalidator.NewGateway(client, c, p.cleaner, p.logger, opts...)
	}
}

// WithMetrics records gate counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a pipeline for profile.
func New(profile config.Profile, patterns config.SchemaPatterns, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.NewLogger("error")
	}

	p := &Pipeline{
		profile:  profile,
		patterns: patterns,
		cleaner:  normalizer.NewCleaner(normalizer.NewParser(profile)),
		quality:  normalizer.NewQualityFilter(profile.ConfidenceFloor()),
		logger:   log,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run executes every stage. Schema problems fail before any row is touched; a
// lookup outage fails the whole run.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()

	if in.New == nil {
		return nil, ErrNilInput
	}

	mapping, err := schema.Resolve(in.New.Header, p.patterns, p.profile.SlotLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input columns: %w", err)
	}

	var seen map[string]bool

	if in.Old != nil {
		if err := mapping.RequireIdentity(); err != nil {
			return nil, fmt.Errorf("new contacts: %w", err)
		}

		oldID, err := schema.ResolveIdentity(in.Old.Header, p.patterns)
		if err != nil {
			return nil, fmt.Errorf("old contacts: %w", err)
		}

		seen = make(map[string]bool, in.Old.Len())
		for r := range in.Old.Rows {
			seen[oldID.Key(in.Old, r)] = true
		}
	}

	report := Report{Input: in.New.Len(), Validated: p.gateway != nil}
	p.gate(StageInput, report.Input, report.Input)

	// (a) domestic contacts only
	tbl := in.New.Filter(func(r int) bool {
		return anyIn(in.New, r, mapping.Countries, p.profile.DomesticCountries)
	})
	report.Domestic = tbl.Len()
	p.gate(StageDomestic, report.Input, report.Domestic)

	// (b) drop contacts already in the prior export
	unseenIn := tbl
	if seen != nil {
		id := mapping.Identity()
		tbl = tbl.Filter(func(r int) bool { return !seen[id.Key(unseenIn, r)] })
	}
	report.Unseen = tbl.Len()
	p.gate(StageUnseen, report.Domestic, report.Unseen)

	// (c) excluded cities
	cityIn := tbl
	tbl = tbl.Filter(func(r int) bool {
		return !anyIn(cityIn, r, mapping.Cities, p.profile.ExcludedCities)
	})
	report.City = tbl.Len()
	p.gate(StageCity, report.Unseen, report.City)

	// (d) excluded area codes on the primary slot
	primary := mapping.Slots[0].Phone
	areaIn := tbl
	tbl = tbl.Filter(func(r int) bool {
		code, ok := p.cleaner.AreaCode(areaIn.Value(r, primary))
		return !ok || !contains(p.profile.ExcludedAreaCodes, code)
	})
	report.AreaCode = tbl.Len()
	p.gate(StageAreaCode, report.City, report.AreaCode)

	// (k) the email sheet is cut from the filtered contacts before phone handling
	email := tbl.Select(mapping.EmailColumns())
	report.EmailRows = email.Len()

	phone, err := p.buildPhoneSheet(ctx, tbl, mapping, &report)
	if err != nil {
		return nil, err
	}

	report.PhoneRows = phone.Table.Len()
	report.Duration = time.Since(start)

	if p.gateway != nil {
		report.Lookups = p.gateway.Stats()
	}

	p.metrics.SetRows("phone_rows", report.PhoneRows)
	p.metrics.SetRows("email_rows", report.EmailRows)
	p.metrics.ObserveRun(report.Duration)

	p.logger.Info("pipeline complete",
		"phone_rows", report.PhoneRows,
		"email_rows", report.EmailRows,
		"validated", report.Validated,
		"duration", report.Duration.Round(time.Millisecond),
	)

	return &Result{
		Phone:        phone.Table,
		Email:        email,
		PhoneColumns: phone.Columns,
		Mapping:      mapping,
		Report:       report,
	}, nil
}

type phoneResult struct {
	Table   *models.Table
	Columns []string
}

// buildPhoneSheet runs stages (e) through (j).
func (p *Pipeline) buildPhoneSheet(ctx context.Context, tbl *models.Table, m *schema.Mapping, report *Report) (phoneResult, error) {
	identity := append([]string{m.FirstName, m.ProfileURL}, m.States...)

	projected := append([]string(nil), identity...)
	for _, s := range m.Slots {
		projected = append(projected, s.Phone)
		if s.Confidence != "" {
			projected = append(projected, s.Confidence)
		}
	}

	sheet := tbl.Select(projected)

	// (e) normalize every slot
	for r := range sheet.Rows {
		for _, s := range m.Slots {
			cleaned, _ := p.cleaner.Clean(sheet.Value(r, s.Phone))
			sheet.Set(r, s.Phone, cleaned)
		}
	}

	// (f) confidence gates
	sheet, report.Quality = p.quality.Apply(sheet, m.Slots)
	p.gate(StageQuality, report.AreaCode, report.Quality.Out,
		"score_gated", report.Quality.ScoreGated,
		"slots_blanked", report.Quality.SlotsBlanked,
		"no_usable_number", report.Quality.NoUsableNumber,
	)

	sheet = sheet.Select(append(append([]string(nil), identity...), m.PhoneColumns()...))
	phoneCols := m.PhoneColumns()

	// (g) splice validation records in place of the raw numbers
	if p.gateway != nil {
		phoneCols = make([]string, 0, len(m.Slots))

		for _, s := range m.Slots {
			cols, values, err := p.gateway.ValidateColumn(ctx, s, sheet.Column(s.Phone))
			if err != nil {
				return phoneResult{}, fmt.Errorf("phone validation aborted: %w", err)
			}

			sheet.ReplaceColumn(s.Phone, cols, values)
			phoneCols = append(phoneCols, cols[0])
		}

		stats := p.gateway.Stats()
		p.logger.Info("phone validation",
			"cache_hits", stats.CacheHits,
			"remote", stats.Remote,
			"service_errors", stats.ServiceErrors,
			"skipped", stats.Skipped,
		)
	}

	// (h) display formatting
	for r := range sheet.Rows {
		for _, col := range phoneCols {
			if formatted, ok := p.cleaner.Clean(sheet.Value(r, col)); ok {
				sheet.Set(r, col, formatted)
			}
		}
	}

	// (i) timezone from every state column
	zones := make([]string, sheet.Len())
	for r := range sheet.Rows {
		states := make([]string, len(m.States))
		for i, col := range m.States {
			states[i] = sheet.Value(r, col)
		}

		zones[r] = timezone.For(states...)
	}

	sheet.AddColumn(TimezoneColumn, zones)

	// (j) presentation order
	return phoneResult{
		Table:   sheet.Select(presentationOrder(sheet.Header, m, phoneCols)),
		Columns: phoneCols,
	}, nil
}

// presentationOrder is first name, phone slots, timezone, states, everything
// else, then the profile URL.
func presentationOrder(header []string, m *schema.Mapping, phoneCols []string) []string {
	order := []string{m.FirstName}
	order = append(order, phoneCols...)
	order = append(order, TimezoneColumn)
	order = append(order, m.States...)

	placed := make(map[string]bool, len(header))
	for _, c := range order {
		placed[c] = true
	}

	placed[m.ProfileURL] = true

	for _, c := range header {
		if !placed[c] {
			order = append(order, c)
			placed[c] = true
		}
	}

	return append(order, m.ProfileURL)
}

func (p *Pipeline) gate(stage string, in, out int, extra ...any) {
	p.metrics.SetRows(stage, out)

	args := append([]any{"stage", stage, "in", in, "out", out, "dropped", in - out}, extra...)
	p.logger.Info("gate", args...)
}

func anyIn(tbl *models.Table, r int, cols, values []string) bool {
	for _, c := range cols {
		if contains(values, tbl.Value(r, c)) {
			return true
		}
	}

	return false
}

func contains(values []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}

	for _, want := range values {
		if strings.EqualFold(want, v) {
			return true
		}
	}

	return false
}
