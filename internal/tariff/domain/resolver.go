package tariff

import (
	"errors"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Resolver answers rate and surcharge lookups for a billing period.
// It holds immutable tables and is safe to share between runs.
type Resolver struct {
	rates      *RateTable
	surcharges *SurchargeTable
	clock      Clock
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides the clock used when no billing month is given.
func WithClock(clock Clock) ResolverOption {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewResolver constructs a resolver over both tables.
func NewResolver(rates *RateTable, surcharges *SurchargeTable, opts ...ResolverOption) (*Resolver, error) {
	if rates == nil {
		return nil, errors.New("tariff resolver: nil rate table")
	}
	if surcharges == nil {
		surcharges = &SurchargeTable{}
	}
	r := &Resolver{rates: rates, surcharges: surcharges, clock: SystemClock{}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// ResolveTariffRates resolves rates for the first day of the billing month.
// Without a month or year the current date is the reference and TodayFallback is set.
func (r *Resolver) ResolveTariffRates(tier Tier, month, year int) (RateResolution, error) {
	if month == 0 || year == 0 {
		res, err := r.rates.Resolve(tier, r.clock.Now().UTC())
		if err != nil {
			return RateResolution{}, err
		}
		res.TodayFallback = true
		return res, nil
	}
	reference, err := BillingReference(month, year)
	if err != nil {
		return RateResolution{}, err
	}
	return r.rates.Resolve(tier, reference)
}

// ResolveAdditionalSurcharge resolves the additional surcharge for the billing month.
func (r *Resolver) ResolveAdditionalSurcharge(month, year int) SurchargeResolution {
	return r.surcharges.Resolve(month, year)
}

// RateTable exposes the underlying rate table.
func (r *Resolver) RateTable() *RateTable { return r.rates }

// SurchargeTable exposes the underlying surcharge table.
func (r *Resolver) SurchargeTable() *SurchargeTable { return r.surcharges }
