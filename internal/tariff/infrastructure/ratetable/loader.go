package ratetable

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	tariff "adjustment-calculator/internal/tariff/domain"
)

//go:embed default_tables.yaml
var defaultTables []byte

const dateLayout = "2006-01-02"

// Tables bundles both regulatory tables loaded from one document.
type Tables struct {
	Rates      *tariff.RateTable
	Surcharges *tariff.SurchargeTable
}

type document struct {
	TariffWindows       []windowDoc    `yaml:"tariff_windows"`
	AdditionalSurcharge []surchargeDoc `yaml:"additional_surcharge"`
}

type windowDoc struct {
	Start string              `yaml:"start"`
	Label string              `yaml:"label"`
	Tiers map[string]ratesDoc `yaml:"tiers"`
}

type ratesDoc struct {
	Base         float64 `yaml:"base"`
	PeakBand     float64 `yaml:"peak_band"`
	OffPeakBand  float64 `yaml:"offpeak_band"`
	Wheeling     float64 `yaml:"wheeling"`
	CrossSubsidy float64 `yaml:"cross_subsidy"`
}

type surchargeDoc struct {
	Start string  `yaml:"start"`
	End   string  `yaml:"end"`
	Rate  float64 `yaml:"rate"`
	Label string  `yaml:"label"`
}

// Default returns the embedded tables.
func Default() (*Tables, error) {
	return Load(bytes.NewReader(defaultTables))
}

// LoadFile reads tables from path, or the embedded tables when path is empty.
func LoadFile(path string) (*Tables, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tables, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("rate tables %s: %w", path, err)
	}
	return tables, nil
}

// Load decodes a YAML document into validated tables.
func Load(r io.Reader) (*Tables, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.TariffWindows) == 0 {
		return nil, errors.New("ratetable: no tariff windows")
	}

	var windows []tariff.RateWindow
	for _, w := range doc.TariffWindows {
		start, err := parseDate(w.Start)
		if err != nil {
			return nil, fmt.Errorf("tariff window %q: %w", w.Label, err)
		}
		for name, rates := range w.Tiers {
			tier, err := tariff.ParseTier(name)
			if err != nil {
				return nil, fmt.Errorf("tariff window %q: %w", w.Label, err)
			}
			windows = append(windows, tariff.RateWindow{
				Start: start,
				Tier:  tier,
				Label: w.Label,
				Rates: tariff.Rates{
					Base:         rates.Base,
					PeakBand:     rates.PeakBand,
					OffPeakBand:  rates.OffPeakBand,
					Wheeling:     rates.Wheeling,
					CrossSubsidy: rates.CrossSubsidy,
				},
			})
		}
	}
	rateTable, err := tariff.NewRateTable(windows)
	if err != nil {
		return nil, err
	}

	surcharges := make([]tariff.SurchargeWindow, 0, len(doc.AdditionalSurcharge))
	for _, s := range doc.AdditionalSurcharge {
		start, err := parseDate(s.Start)
		if err != nil {
			return nil, fmt.Errorf("additional surcharge %q: %w", s.Label, err)
		}
		end, err := parseDate(s.End)
		if err != nil {
			return nil, fmt.Errorf("additional surcharge %q: %w", s.Label, err)
		}
		surcharges = append(surcharges, tariff.SurchargeWindow{Start: start, End: end, Rate: s.Rate, Label: s.Label})
	}
	surchargeTable, err := tariff.NewSurchargeTable(surcharges)
	if err != nil {
		return nil, err
	}
	return &Tables{Rates: rateTable, Surcharges: surchargeTable}, nil
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
}
