package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	statistic "adjustment-calculator/internal/analytics/domain/statistic"
	ingest "adjustment-calculator/internal/ingest/domain"
	"adjustment-calculator/internal/observability/metrics"
	reconciliation "adjustment-calculator/internal/reconciliation/domain"
	settlement "adjustment-calculator/internal/settlement/domain"
	tariff "adjustment-calculator/internal/tariff/domain"
)

// Request is one adjustment run: uploaded files plus the operator's parameters.
// Month, Year and Date are the raw filter text; empty means unset.
type Request struct {
	IEXFiles         []ingest.SourceFile
	CPPFiles         []ingest.SourceFile
	ConsumptionFiles []ingest.SourceFile

	EnableIEX bool
	EnableCPP bool

	IEXLossPct *float64
	CPPLossPct *float64
	// WheelingLossPct overrides the loss used for the wheeling reference energy.
	WheelingLossPct *float64
	// ConsumptionMultiplier scales consumption; zero means 1.
	ConsumptionMultiplier float64

	Tier             string
	Month            string
	Year             string
	Date             string
	AutoDetectPeriod bool
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AdjustmentService runs the normalize, reconcile, settle pipeline for one request.
// It keeps no state between runs.
type AdjustmentService struct {
	resolver *tariff.Resolver
	rollup   *statistic.DailyRollupService
	clock    Clock
	logger   zerolog.Logger
	newID    func() string
}

// Option configures an AdjustmentService.
type Option func(*AdjustmentService)

// WithClock overrides the report timestamp clock.
func WithClock(clock Clock) Option {
	return func(s *AdjustmentService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *AdjustmentService) {
		s.logger = logger
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(s *AdjustmentService) {
		if next != nil {
			s.newID = next
		}
	}
}

// NewAdjustmentService constructs the service.
func NewAdjustmentService(resolver *tariff.Resolver, opts ...Option) (*AdjustmentService, error) {
	if resolver == nil {
		return nil, errors.New("adjustment service: nil tariff resolver")
	}
	s := &AdjustmentService{
		resolver: resolver,
		rollup:   statistic.NewDailyRollupService(0),
		clock:    SystemClock{},
		logger:   zerolog.Nop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Run executes one adjustment. Validation failures come back as *ValidationError.
func (s *AdjustmentService) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	runID := s.newID()
	logger := s.logger.With().Str("run_id", runID).Logger()

	report, err := s.run(ctx, runID, logger, req)
	result := metrics.ResultSuccess
	switch {
	case err == nil:
		metrics.ObserveSlots(len(report.Slots))
	case IsValidationError(err):
		result = metrics.ResultInvalid
		logger.Info().Err(err).Msg("adjustment rejected")
	default:
		result = metrics.ResultError
		logger.Error().Err(err).Msg("adjustment failed")
	}
	metrics.ObserveRun(result, time.Since(start))
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("slots", len(report.Slots)).
		Float64("total_excess_kwh", report.Energy.TotalExcessKWh).
		Float64("final_amount", report.Settlement.FinalAmountRounded).
		Msg("adjustment completed")
	return report, nil
}

func (s *AdjustmentService) run(ctx context.Context, runID string, logger zerolog.Logger, req Request) (*Report, error) {
	params, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	filter, err := reconciliation.ParseFilter(req.Month, req.Year, req.Date)
	if err != nil {
		return nil, toValidationError(err)
	}

	report := &Report{
		RunID:                 runID,
		GeneratedAt:           s.clock.Now().UTC(),
		Tier:                  params.tier,
		IEXEnabled:            req.EnableIEX,
		CPPEnabled:            req.EnableCPP,
		ConsumptionMultiplier: params.multiplier,
	}

	batches := make(map[ingest.SourceType]*ingest.Batch, 3)
	for _, item := range []struct {
		source  ingest.SourceType
		enabled bool
		files   []ingest.SourceFile
		opts    []ingest.NormalizerOption
	}{
		{ingest.SourceIEX, req.EnableIEX, req.IEXFiles, nil},
		{ingest.SourceCPP, req.EnableCPP, req.CPPFiles, nil},
		{ingest.SourceConsumption, true, req.ConsumptionFiles, []ingest.NormalizerOption{ingest.WithMultiplier(params.multiplier)}},
	} {
		if !item.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		normalizer, err := ingest.NewNormalizer(item.source, item.opts...)
		if err != nil {
			return nil, toValidationError(err)
		}
		batch, err := normalizer.Normalize(item.files)
		if err != nil {
			return nil, toValidationError(err)
		}
		batches[item.source] = batch
		report.addBatchWarnings(logger, batch)
	}

	if req.AutoDetectPeriod && filter.Date.IsZero() && !filter.HasPeriod() {
		var generation []ingest.Record
		for _, source := range []ingest.SourceType{ingest.SourceIEX, ingest.SourceCPP} {
			if b := batches[source]; b != nil {
				generation = append(generation, b.Records...)
			}
		}
		if detected, ok := reconciliation.DetectPeriod(generation, batches[ingest.SourceConsumption].Records); ok {
			if filter.Month == 0 {
				filter.Month = detected.Month
			}
			if filter.Year == 0 {
				filter.Year = detected.Year
			}
			report.Period.AutoDetected = true
			logger.Info().Int("month", filter.Month).Int("year", filter.Year).Msg("billing period detected")
		}
	}

	in := reconciliation.Input{
		Consumption: reconciliation.Source{Records: batches[ingest.SourceConsumption].Records},
		Filter:      filter,
	}
	if b := batches[ingest.SourceIEX]; b != nil {
		in.IEX = &reconciliation.Source{Records: b.Records, LossPct: params.iexLoss}
	}
	if b := batches[ingest.SourceCPP]; b != nil {
		in.CPP = &reconciliation.Source{Records: b.Records, LossPct: params.cppLoss}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := reconciliation.Reconcile(in)
	if err != nil {
		return nil, toValidationError(err)
	}
	report.applyTable(logger, table)

	month, year := billingPeriod(filter)
	report.Period.Month, report.Period.Year = month, year
	report.Period.Label = periodLabel(filter, month, year)

	rates, err := s.resolver.ResolveTariffRates(params.tier, month, year)
	if err != nil {
		return nil, toValidationError(err)
	}
	report.Tariff = rates
	report.Surcharge = s.resolver.ResolveAdditionalSurcharge(month, year)
	report.addTariffWarnings(logger)

	rollMonth, rollYear := 0, 0
	if filter.HasPeriod() {
		rollMonth, rollYear = filter.Month, filter.Year
	}
	days, err := s.rollup.Rollup(table.Slots, rollMonth, rollYear)
	if err != nil {
		return nil, fmt.Errorf("adjustment service: day rollup: %w", err)
	}
	report.Days = days

	report.WheelingLossPct = wheelingLoss(req, params)
	totals := reconciliation.Summarize(table.Slots)
	report.Energy = newEnergySummary(totals)
	report.TOD = newTODBreakdown(totals)

	base := rates.Rates()
	result, err := settlement.Calculate(settlement.Input{
		TotalExcessKWh:   totals.TotalExcessKWh,
		PeakExcessKWh:    totals.PeakExcessKWh(),
		OffPeakExcessKWh: totals.OffPeakExcessKWh(),
		IEXExcessKWh:     totals.IEXExcessKWh,
		WheelingLossPct:  report.WheelingLossPct,
		Rates: settlement.Rates{
			Base:                base.Base,
			PeakBand:            base.PeakBand,
			OffPeakBand:         base.OffPeakBand,
			Wheeling:            base.Wheeling,
			CrossSubsidy:        base.CrossSubsidy,
			AdditionalSurcharge: report.Surcharge.Rate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("adjustment service: settlement: %w", err)
	}
	report.Settlement = result
	report.Steps = result.Steps()
	return report, nil
}

type requestParams struct {
	tier       tariff.Tier
	multiplier float64
	iexLoss    float64
	cppLoss    float64
}

func validateRequest(req Request) (requestParams, error) {
	var p requestParams
	if !req.EnableIEX && !req.EnableCPP {
		return p, invalid(CodeNoSourceEnabled, "", "enable at least one of IEX and CPP")
	}
	if req.EnableIEX && len(req.IEXFiles) == 0 {
		return p, invalid(CodeMissingGenerationFiles, "iex_files", "IEX is enabled but no IEX files were uploaded")
	}
	if req.EnableCPP && len(req.CPPFiles) == 0 {
		return p, invalid(CodeMissingGenerationFiles, "cpp_files", "CPP is enabled but no CPP files were uploaded")
	}
	if len(req.ConsumptionFiles) == 0 {
		return p, invalid(CodeMissingConsumptionFiles, "consumption_files", "no consumption files were uploaded")
	}

	var err error
	if req.EnableIEX {
		if p.iexLoss, err = requireLoss(req.IEXLossPct, "iex_loss_pct"); err != nil {
			return p, err
		}
	}
	if req.EnableCPP {
		if p.cppLoss, err = requireLoss(req.CPPLossPct, "cpp_loss_pct"); err != nil {
			return p, err
		}
	}
	if req.WheelingLossPct != nil && !lossInRange(*req.WheelingLossPct) {
		return p, invalid(CodeInvalidLoss, "wheeling_loss_pct", "loss percentage must be between 0 and 100")
	}

	p.multiplier = req.ConsumptionMultiplier
	if p.multiplier == 0 {
		p.multiplier = 1
	}
	if !(p.multiplier > 0) || math.IsInf(p.multiplier, 0) {
		return p, invalid(CodeInvalidMultiplier, "multiplier", "multiplier must be a positive number")
	}

	if p.tier, err = tariff.ParseTier(req.Tier); err != nil {
		return p, toValidationError(err)
	}
	return p, nil
}

func requireLoss(value *float64, field string) (float64, error) {
	if value == nil {
		return 0, invalid(CodeMissingLoss, field, "a T&D loss percentage is required for an enabled source")
	}
	if !lossInRange(*value) {
		return 0, invalid(CodeInvalidLoss, field, "loss percentage must be between 0 and 100")
	}
	return *value, nil
}

func lossInRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

// wheelingLoss is the IEX loss when IEX is enabled, otherwise the CPP loss.
func wheelingLoss(req Request, p requestParams) float64 {
	if req.WheelingLossPct != nil {
		return *req.WheelingLossPct
	}
	if req.EnableIEX {
		return p.iexLoss
	}
	return p.cppLoss
}

// billingPeriod is the month and year used for tariff lookup. A single date
// filter bills the month containing it.
func billingPeriod(f reconciliation.Filter) (int, int) {
	if f.HasPeriod() {
		return f.Month, f.Year
	}
	if !f.Date.IsZero() {
		return int(f.Date.Month()), f.Date.Year()
	}
	return 0, 0
}

func periodLabel(f reconciliation.Filter, month, year int) string {
	if !f.Date.IsZero() {
		return f.Date.Format(ingest.DisplayDateLayout)
	}
	if month != 0 && year != 0 {
		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	}
	return f.String()
}
