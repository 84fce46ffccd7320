// advisor runs one utility program analysis from the command line.
//
// Usage:
//
//	advisor analyze -territory PGE -naics 622110 -customer-type healthcare -peak-kw 600 -annual-kwh 2500000
//	advisor analyze -profile site.json -interval meter.csv -format yaml
//	advisor catalog PGE
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/seu-repo/utility-advisor/internal/adapter/cache"
	"github.com/seu-repo/utility-advisor/internal/adapter/storage/file"
	"github.com/seu-repo/utility-advisor/internal/adapter/weather"
	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/service/analysis"
	"github.com/seu-repo/utility-advisor/internal/service/catalog"
	"github.com/seu-repo/utility-advisor/pkg/config"
	applogger "github.com/seu-repo/utility-advisor/pkg/logger"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "advisor",
		Usage:   "Evaluate utility programs and rate options for a customer site",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "Log level (debug, info, warn, error)", EnvVars: []string{"ADVISOR_LOG_LEVEL"}},
			&cli.StringFlag{Name: "catalog-dir", Usage: "Directory of <territory>.yaml catalogs overriding the built-in ones", EnvVars: []string{"ADVISOR_CATALOG_DIR"}},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format (json, yaml)"},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			catalogCommand(),
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run one analysis and print the result bundle",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Usage: "JSON customer profile used as the base; flags override its fields"},
			&cli.StringFlag{Name: "territory", Usage: "Utility territory code (PGE, SCE, ...)"},
			&cli.StringFlag{Name: "naics", Usage: "NAICS code"},
			&cli.StringFlag{Name: "customer-type", Usage: "Customer segment (healthcare, agriculture, ...)"},
			&cli.StringFlag{Name: "rate", Usage: "Current rate code, e.g. B-19"},
			&cli.Float64Flag{Name: "peak-kw", Usage: "Billed peak demand in kW"},
			&cli.Float64Flag{Name: "monthly-kwh", Usage: "Typical monthly usage in kWh"},
			&cli.Float64Flag{Name: "annual-kwh", Usage: "Annual usage in kWh"},
			&cli.StringFlag{Name: "schedule", Usage: "Operating schedule (24_7, business_hours, mixed)"},
			&cli.Float64Flag{Name: "load-shift-score", Usage: "Load flexibility score in [0,1]"},
			&cli.BoolFlag{Name: "has-ami", Usage: "Site has an advanced meter"},
			&cli.Float64Flag{Name: "lat", Usage: "Site latitude, enables weather correlation with -weather"},
			&cli.Float64Flag{Name: "lon", Usage: "Site longitude"},
			&cli.StringFlag{Name: "interval", Usage: "Interval fixture (.csv or .json)"},
			&cli.StringFlag{Name: "bill-text", Usage: "File holding raw bill text"},
			&cli.StringFlag{Name: "now", Usage: "Generation timestamp (RFC 3339); defaults to the current time"},
			&cli.BoolFlag{Name: "weather", Usage: "Fetch temperatures from Open-Meteo"},
		},
		Action: runAnalyze,
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:      "catalog",
		Usage:     "Print the program catalog for a territory, or list territories",
		ArgsUsage: "[territory]",
		Action: func(c *cli.Context) error {
			registry := catalog.NewRegistry(zap.NewNop(), c.String("catalog-dir"))
			if c.NArg() == 0 {
				return render(c.App.Writer, c.String("format"), registry.Territories())
			}
			cat, err := registry.CatalogFor(c.Context, strings.ToUpper(c.Args().First()))
			if err != nil {
				return err
			}
			return render(c.App.Writer, c.String("format"), cat)
		},
	}
}

func runAnalyze(c *cli.Context) error {
	log, err := applogger.New(config.LoggingConfig{Level: c.String("log-level"), Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	defer log.Sync()

	req, err := buildRequest(c)
	if err != nil {
		return err
	}

	deps := analysis.Dependencies{
		Catalogs: catalog.NewRegistry(log, c.String("catalog-dir")),
	}
	if c.Bool("weather") {
		local := cache.NewLocalCache(time.Minute, 64, log)
		defer local.Close()
		deps.Weather = weather.NewOpenMeteoClient(weather.DefaultOpenMeteoConfig(), local, log)
	}
	if req.Profile.IntervalRef != "" {
		deps.Telemetry = file.NewFixtureLoader("", log)
	}

	result, err := analysis.NewService(log, nil, deps).Analyze(context.Background(), req)
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), result)
}

// buildRequest layers flags over an optional profile file
func buildRequest(c *cli.Context) (domain.AnalysisRequest, error) {
	var req domain.AnalysisRequest
	if path := c.String("profile"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read profile: %w", err)
		}
		if err := json.Unmarshal(data, &req.Profile); err != nil {
			return req, fmt.Errorf("parse profile: %w", err)
		}
	}
	p := &req.Profile

	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setFloat := func(flag string, dst **float64) {
		if c.IsSet(flag) {
			v := c.Float64(flag)
			*dst = &v
		}
	}

	setString("territory", &p.Territory)
	setString("naics", &p.NAICS)
	setString("customer-type", &p.CustomerSegment)
	setString("rate", &p.CurrentRate)
	setString("interval", &p.IntervalRef)
	setFloat("peak-kw", &p.Billing.PeakKw)
	setFloat("monthly-kwh", &p.Billing.MonthlyKwh)
	setFloat("annual-kwh", &p.Billing.AnnualKwh)
	setFloat("load-shift-score", &p.Constraints.LoadShiftScore)
	setFloat("lat", &p.Site.Latitude)
	setFloat("lon", &p.Site.Longitude)
	if c.IsSet("schedule") {
		p.Constraints.ScheduleType = domain.ParseScheduleType(c.String("schedule"))
	}
	if c.IsSet("has-ami") {
		v := c.Bool("has-ami")
		p.Meter.HasAMI = &v
	}
	if path := c.String("bill-text"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read bill text: %w", err)
		}
		p.RawBillText = string(data)
	}

	req.Now = c.String("now")
	if req.Now == "" {
		req.Now = time.Now().UTC().Format(time.RFC3339)
	}
	return req, nil
}

// render prints v as JSON, or as YAML keyed by the JSON field names
func render(w io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
