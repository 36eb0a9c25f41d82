// Command analyze fetches the current forecast for one or more locations and
// prints the extreme-weather alerts the analyzer raises, without notifying
// anyone. It reads the same environment as the service for API endpoints.
//
// Usage:
//
//	go run ./cmd/analyze -json Zermatt "Grindelwald, Switzerland"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/adapter/openmeteo"
	"github.com/couchcryptid/hikecast-alerts/internal/config"
	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
)

// report is the analysis of one location.
type report struct {
	Location string         `json:"location"`
	Place    string         `json:"place,omitempty"`
	Alerts   []domain.Alert `json:"alerts"`
	Error    string         `json:"error,omitempty"`
}

func main() {
	asJSON := flag.Bool("json", false, "print reports as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := openmeteo.NewClient(cfg.GeocodingURL, cfg.ForecastURL, cfg.ForecastDays, cfg.WeatherTimeout, logger)
	gateway := openmeteo.NewGateway(client, client, nil, 0, observability.NewMetrics(), logger)

	reports := analyze(ctx, gateway, domain.NewAnalyzer(domain.DefaultThresholds()), flag.Args())
	if err := render(os.Stdout, reports, *asJSON); err != nil {
		fmt.Fprintln(os.Stderr, "output:", err)
		os.Exit(1)
	}
	for _, r := range reports {
		if r.Error != "" {
			os.Exit(1)
		}
	}
}

type weatherFetcher interface {
	FetchWeather(ctx context.Context, location string) (domain.LocationWeather, error)
}

func analyze(ctx context.Context, weather weatherFetcher, analyzer *domain.Analyzer, locations []string) []report {
	reports := make([]report, 0, len(locations))
	for _, loc := range locations {
		r := report{Location: loc}
		lw, err := weather.FetchWeather(ctx, loc)
		if err != nil {
			r.Error = err.Error()
			reports = append(reports, r)
			continue
		}
		r.Place = lw.Geo.Label()
		r.Alerts = domain.SortBySeverity(analyzer.Analyze(lw.Snapshot, loc))
		reports = append(reports, r)
	}
	return reports
}

func render(w io.Writer, reports []report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "%s\terror: %s\n", r.Location, r.Error)
		case len(r.Alerts) == 0:
			fmt.Fprintf(tw, "%s (%s)\tno alerts\n", r.Location, r.Place)
		default:
			fmt.Fprintf(tw, "%s (%s)\t%d alert(s)\n", r.Location, r.Place, len(r.Alerts))
			for _, a := range r.Alerts {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.Severity, a.Type, a.Day, a.Message)
			}
		}
	}
	return tw.Flush()
}
