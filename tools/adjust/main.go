package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"adjustment-calculator/internal/ingest/infrastructure/spreadsheet"
	"adjustment-calculator/internal/settlement/application"
	"adjustment-calculator/internal/settlement/interfaces"
	tariff "adjustment-calculator/internal/tariff/domain"
	"adjustment-calculator/internal/tariff/infrastructure/ratetable"
)

type config struct {
	iexFiles         string
	cppFiles         string
	consumptionFiles string
	enableIEX        bool
	enableCPP        bool
	iexLoss          string
	cppLoss          string
	wheelingLoss     string
	multiplier       string
	tier             string
	month            string
	year             string
	date             string
	autoDetect       bool
	tariffPath       string
	outDir           string
	formats          string
	view             string
	verbose          bool
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger := zerolog.Nop()
	if cfg.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	req, err := buildRequest(cfg)
	if err != nil {
		exit(err)
	}

	tables, err := ratetable.LoadFile(cfg.tariffPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rate tables:", err)
		os.Exit(1)
	}
	resolver, err := tariff.NewResolver(tables.Rates, tables.Surcharges)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tariff resolver:", err)
		os.Exit(1)
	}
	service, err := application.NewAdjustmentService(resolver, application.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "adjustment service:", err)
		os.Exit(1)
	}

	report, err := service.Run(context.Background(), req)
	if err != nil {
		exit(err)
	}

	view, err := interfaces.ParseView(cfg.view)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "create out dir:", err)
		os.Exit(1)
	}
	for _, name := range splitList(cfg.formats) {
		format, err := interfaces.ParseFormat(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		sheets := []string{""}
		if format == interfaces.FormatCSV {
			sheets = []string{interfaces.TableSlots, interfaces.TableDaywise}
		}
		for _, table := range sheets {
			opts := interfaces.Options{View: view, Table: table}
			if err := writeStatement(report, format, opts, cfg.outDir); err != nil {
				fmt.Fprintln(os.Stderr, "write statement:", err)
				os.Exit(1)
			}
		}
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning %s: %s\n", w.Code, w.Message)
	}
	fmt.Printf("run %s %s tier %s excess %.3f kWh payable Rs. %s\n",
		report.RunID, report.Period.Label, report.Tier,
		report.Settlement.TotalExcessKWh, interfaces.Money(report.Settlement.FinalAmountRounded))
}

func parseFlags() (config, error) {
	var cfg config
	flag.StringVar(&cfg.iexFiles, "iex", "", "comma separated IEX generation files (xlsx or csv)")
	flag.StringVar(&cfg.cppFiles, "cpp", "", "comma separated CPP generation files")
	flag.StringVar(&cfg.consumptionFiles, "consumption", "", "comma separated consumption files")
	flag.BoolVar(&cfg.enableIEX, "enable-iex", true, "include IEX generation")
	flag.BoolVar(&cfg.enableCPP, "enable-cpp", true, "include CPP generation")
	flag.StringVar(&cfg.iexLoss, "iex-loss", "", "IEX T&D loss percentage")
	flag.StringVar(&cfg.cppLoss, "cpp-loss", "", "CPP T&D loss percentage")
	flag.StringVar(&cfg.wheelingLoss, "wheeling-loss", "", "wheeling loss percentage override (optional)")
	flag.StringVar(&cfg.multiplier, "multiplier", "1", "consumption multiplier")
	flag.StringVar(&cfg.tier, "tier", "I", "tariff tier: I, II-A, II-B or III")
	flag.StringVar(&cfg.month, "month", "", "billing month 1-12")
	flag.StringVar(&cfg.year, "year", "", "billing year")
	flag.StringVar(&cfg.date, "date", "", "single date filter dd/mm/yyyy (optional)")
	flag.BoolVar(&cfg.autoDetect, "auto-detect", false, "detect month and year from the data")
	flag.StringVar(&cfg.tariffPath, "tariffs", os.Getenv("TARIFF_TABLE_PATH"), "rate table YAML (default embedded)")
	flag.StringVar(&cfg.outDir, "out", "./out", "output directory")
	flag.StringVar(&cfg.formats, "formats", "pdf,xlsx", "statement formats: pdf, xlsx, csv")
	flag.StringVar(&cfg.view, "view", "all", "slot view: all or excess")
	flag.BoolVar(&cfg.verbose, "v", false, "log to stderr")
	flag.Parse()

	if cfg.enableIEX && cfg.iexFiles == "" {
		return cfg, errors.New("missing --iex (or pass --enable-iex=false)")
	}
	if cfg.enableCPP && cfg.cppFiles == "" {
		return cfg, errors.New("missing --cpp (or pass --enable-cpp=false)")
	}
	if cfg.consumptionFiles == "" {
		return cfg, errors.New("missing --consumption")
	}
	return cfg, nil
}

func buildRequest(cfg config) (application.Request, error) {
	req := application.Request{
		EnableIEX:        cfg.enableIEX,
		EnableCPP:        cfg.enableCPP,
		Tier:             cfg.tier,
		Month:            cfg.month,
		Year:             cfg.year,
		Date:             cfg.date,
		AutoDetectPeriod: cfg.autoDetect,
	}
	var err error
	if req.IEXLossPct, err = application.ParseLoss("iex_loss_pct", cfg.iexLoss); err != nil {
		return req, err
	}
	if req.CPPLossPct, err = application.ParseLoss("cpp_loss_pct", cfg.cppLoss); err != nil {
		return req, err
	}
	if req.WheelingLossPct, err = application.ParseLoss("wheeling_loss_pct", cfg.wheelingLoss); err != nil {
		return req, err
	}
	if req.ConsumptionMultiplier, err = application.ParseMultiplier(cfg.multiplier); err != nil {
		return req, err
	}
	if cfg.enableIEX {
		if req.IEXFiles, err = spreadsheet.ReadFiles(splitList(cfg.iexFiles)); err != nil {
			return req, err
		}
	}
	if cfg.enableCPP {
		if req.CPPFiles, err = spreadsheet.ReadFiles(splitList(cfg.cppFiles)); err != nil {
			return req, err
		}
	}
	if req.ConsumptionFiles, err = spreadsheet.ReadFiles(splitList(cfg.consumptionFiles)); err != nil {
		return req, err
	}
	return req, nil
}

func writeStatement(report *application.Report, format interfaces.Format, opts interfaces.Options, outDir string) error {
	data, err := interfaces.Export(report, format, opts)
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, interfaces.FileName(report, format, opts))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// exit prints err and exits 2 for rejected input, 1 otherwise.
func exit(err error) {
	var ve *application.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(os.Stderr, "invalid input:", ve.Error())
		if len(ve.AvailableDates) > 0 {
			fmt.Fprintln(os.Stderr, "available dates:", strings.Join(ve.AvailableDates, ", "))
		}
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
