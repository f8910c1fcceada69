package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"adjustment-calculator/internal/settlement/application"
	tariff "adjustment-calculator/internal/tariff/domain"
)

// TariffsHandler serves the rate and surcharge tables.
type TariffsHandler struct {
	resolver *tariff.Resolver
}

// NewTariffsHandler constructs a TariffsHandler.
func NewTariffsHandler(resolver *tariff.Resolver) (*TariffsHandler, error) {
	if resolver == nil {
		return nil, errors.New("tariffs handler: nil resolver")
	}
	return &TariffsHandler{resolver: resolver}, nil
}

type tariffTable struct {
	Rates      map[tariff.Tier][]tariff.RateWindow `json:"rates"`
	Surcharges []tariff.SurchargeWindow            `json:"additional_surcharges"`
}

type tariffLookup struct {
	Rates     tariff.RateResolution      `json:"rates"`
	Surcharge tariff.SurchargeResolution `json:"additional_surcharge"`
}

// ServeHTTP handles GET /api/v1/tariffs. Without a tier the full table is returned;
// with a tier the windows for month and year are resolved.
func (h *TariffsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	rawTier := strings.TrimSpace(query.Get("tier"))
	if rawTier == "" {
		table := tariffTable{
			Rates:      make(map[tariff.Tier][]tariff.RateWindow, len(tariff.Tiers)),
			Surcharges: h.resolver.SurchargeTable().Windows(),
		}
		for _, tier := range tariff.Tiers {
			table.Rates[tier] = h.resolver.RateTable().Windows(tier)
		}
		writeJSON(w, http.StatusOK, table)
		return
	}

	tier, err := tariff.ParseTier(rawTier)
	if err != nil {
		writeValidation(w, &application.ValidationError{Code: application.CodeInvalidTier, Field: "tier", Message: "tier must be one of I, II-A, II-B, III"})
		return
	}
	month, err := parsePeriodPart(query.Get("month"), "month")
	if err != nil {
		writeValidation(w, err)
		return
	}
	year, err := parsePeriodPart(query.Get("year"), "year")
	if err != nil {
		writeValidation(w, err)
		return
	}

	rates, err := h.resolver.ResolveTariffRates(tier, month, year)
	if err != nil {
		if errors.Is(err, tariff.ErrInvalidPeriod) {
			writeValidation(w, &application.ValidationError{Code: application.CodeInvalidFilter, Field: "month", Message: "month must be 1-12 with a positive year"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tariffLookup{
		Rates:     rates,
		Surcharge: h.resolver.ResolveAdditionalSurcharge(month, year),
	})
}

func parsePeriodPart(value, field string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &application.ValidationError{Code: application.CodeInvalidFilter, Field: field, Message: field + " must be a number"}
	}
	return n, nil
}
