// Command validate performs catalog integrity checks against a DWD
// open-data server: it verifies that the configured series exists, that
// its time-bucket tree yields archives and station descriptions, that the
// station table parses cleanly, and that the bundled station lookup is
// covered by the live catalog.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -base-url https://opendata.dwd.de/climate_environment/CDC/observations_germany/climate/ \
//	  -resolution 10_minutes \
//	  -parameter air_temperature
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/climatehub/dwd-cdc-etl/internal/adapter/cdc"
	"github.com/climatehub/dwd-cdc-etl/internal/domain"
	"github.com/climatehub/dwd-cdc-etl/internal/lookup"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	baseURL := flag.String("base-url", "", "CDC climate root (default: public server)")
	forecastURL := flag.String("forecast-url", "", "MOSMIX index URL (default: public server)")
	resolution := flag.String("resolution", "10_minutes", "sampling interval directory")
	parameter := flag.String("parameter", "air_temperature", "measurement parameter directory")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	flag.Parse()

	if code := run(*baseURL, *forecastURL, *resolution, *parameter, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(baseURL, forecastURL, resolution, parameter string, timeout time.Duration) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := cdc.NewClient(baseURL, forecastURL, timeout, logger)

	fmt.Println("=== DWD Catalog Validation ===")
	fmt.Println()

	var resources []domain.Resource
	phases := []*phase{
		validateCatalog(ctx, client, resolution, parameter),
		validateSeries(ctx, client, resolution, parameter, &resources),
		validateStations(ctx, client, resources),
		validateForecastIndex(ctx, client),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Catalog ──
// The configured resolution and parameter must appear in the listings.

func validateCatalog(ctx context.Context, client *cdc.Client, resolution, parameter string) *phase {
	p := &phase{name: "Phase 1: Catalog (resolution/parameter)"}

	resolutions, err := client.Resolutions(ctx)
	if err != nil {
		p.errorf("list resolutions: %v", err)
		return p
	}
	if !containsURI(resolutions, resolution) {
		p.errorf("resolution %q not in catalog (%d entries)", resolution, len(resolutions))
		return p
	}

	parameters, err := client.Parameters(ctx, resolution)
	if err != nil {
		p.errorf("list parameters for %s: %v", resolution, err)
		return p
	}
	if !containsURI(parameters, parameter) {
		p.errorf("parameter %q not under %s (%d entries)", parameter, resolution, len(parameters))
	}
	return p
}

// ── Phase 2: Series tree ──
// Walking the time buckets must yield archives and station descriptions.

func validateSeries(ctx context.Context, client *cdc.Client, resolution, parameter string, out *[]domain.Resource) *phase {
	p := &phase{name: "Phase 2: Series tree (time buckets)"}

	resources, err := client.GatherResources(ctx, resolution, parameter)
	if err != nil {
		p.errorf("gather %s/%s: %v", resolution, parameter, err)
		return p
	}
	*out = resources

	buckets := map[domain.TimeBucket]int{}
	for _, r := range resources {
		buckets[r.Bucket]++
	}
	fmt.Printf("  %d resources (historical=%d recent=%d now=%d)\n",
		len(resources), buckets[domain.BucketHistorical], buckets[domain.BucketRecent], buckets[domain.BucketNow])

	if len(domain.SelectArchives(resources)) == 0 {
		p.errorf("no measurement archives in series tree")
	}
	if len(domain.SelectStationDescriptions(resources)) == 0 {
		p.errorf("no station description tables in series tree")
	}
	return p
}

// ── Phase 3: Station table ──
// The first description table must parse, and every observation id in the
// bundled lookup should exist in it.

func validateStations(ctx context.Context, client *cdc.Client, resources []domain.Resource) *phase {
	p := &phase{name: "Phase 3: Station table + lookup coverage"}

	descriptions := domain.SelectStationDescriptions(resources)
	if len(descriptions) == 0 {
		p.errorf("no station description to check")
		return p
	}

	stations, err := client.FetchStations(ctx, descriptions[0].URI)
	if err != nil {
		p.errorf("fetch stations %s: %v", descriptions[0].URI, err)
		return p
	}
	if len(stations) == 0 {
		p.errorf("station table %s parsed to zero rows", descriptions[0].URI)
		return p
	}
	fmt.Printf("  %d stations in %s\n", len(stations), descriptions[0].URI)

	known := make(map[string]bool, len(stations))
	for _, s := range stations {
		known[s.StationID] = true
	}
	for _, id := range lookup.Default().ObservationIDs() {
		if !known[id] {
			p.errorf("lookup station %s missing from live table", id)
		}
	}
	return p
}

// ── Phase 4: Forecast index ──

func validateForecastIndex(ctx context.Context, client *cdc.Client) *phase {
	p := &phase{name: "Phase 4: Forecast index (MOSMIX)"}

	index, err := client.ForecastIndex(ctx)
	if err != nil {
		p.errorf("list forecast index: %v", err)
		return p
	}
	if len(index) == 0 {
		p.errorf("forecast index is empty")
		return p
	}
	fmt.Printf("  %d forecast bundles\n", len(index))
	return p
}

func containsURI(resources []domain.Resource, name string) bool {
	for _, r := range resources {
		if r.URI == name {
			return true
		}
	}
	return false
}
