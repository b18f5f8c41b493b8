package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/evanhutnik/trailweather/internal/config"
	"github.com/evanhutnik/trailweather/internal/plot"
	"github.com/evanhutnik/trailweather/internal/route"
	"github.com/evanhutnik/trailweather/internal/scheduler"
	"github.com/evanhutnik/trailweather/internal/table"
	"github.com/evanhutnik/trailweather/internal/trailweather"
	"github.com/evanhutnik/trailweather/internal/types"
)

const usage = `usage: trailweather <command> [flags]

commands:
  route   fetch the weather along a recorded route, write records, CSV and plots
  point   print the extensive forecast for a single coordinate
  serve   run the HTTP API and the optional route refresh
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "route":
		err = runRoute(os.Args[2:])
	case "point":
		err = runPoint(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "trailweather %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		base *zap.Logger
		err  error
	)
	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}
	return base.Sugar(), nil
}

type routeArgs struct {
	file        string
	fromRecords string
	workers     int
	sample      time.Duration
	reverseGeo  bool
}

func runRoute(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("route", flag.ExitOnError)
	file := fs.String("file", cfg.RouteFile, "GPX track converted to JSON")
	workers := fs.Int("workers", cfg.Workers, "number of concurrent weather requests")
	sample := fs.Duration("sample", cfg.SampleInterval, "minimum walking time between looked up segments, 0 for every segment")
	out := fs.String("out", cfg.OutputDir, "directory for the records file, CSV and plots")
	fromRecords := fs.String("from-records", "", "render from a saved records file instead of fetching")
	reverseGeo := fs.Bool("reverse-geo", false, "label segments with positionstack place names")
	debug := fs.Bool("debug", false, "development logging")
	fs.Parse(args)

	cfg.Workers = *workers
	cfg.SampleInterval = *sample
	cfg.OutputDir = *out
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return routeWeather(ctx, cfg, logger, routeArgs{
		file:        *file,
		fromRecords: *fromRecords,
		workers:     *workers,
		sample:      *sample,
		reverseGeo:  *reverseGeo,
	}, os.Stdout, os.Stderr)
}

// routeWeather fetches or reloads the records, then writes the records file,
// the CSV and the plots into cfg.OutputDir and prints the route table.
func routeWeather(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, args routeArgs, stdout, stderr io.Writer) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	var (
		records []types.Record
		err     error
	)
	if args.fromRecords != "" {
		records, err = trailweather.LoadRecords(args.fromRecords)
		if err != nil {
			return err
		}
	} else {
		if args.file == "" {
			return errors.New("-file is required")
		}
		opts := trailweather.RouteOptions{
			Workers:    args.workers,
			Sample:     args.sample,
			ReverseGeo: args.reverseGeo,
		}
		if opts.Sample == 0 {
			opts.Sample = -1
		}
		records, err = fetchRoute(ctx, cfg, logger, args.file, opts, stderr)
		if err != nil {
			return err
		}
		recordsPath := filepath.Join(cfg.OutputDir, cfg.RecordsFile)
		if err := trailweather.SaveRecords(recordsPath, records); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved %d weather records to %s\n", len(records), recordsPath)
	}

	if len(records) == 0 {
		fmt.Fprintln(stdout, "No weather records were fetched.")
		return nil
	}

	frame := table.Flatten(records)
	csvPath := filepath.Join(cfg.OutputDir, "route_weather.csv")
	if err := writeCSV(csvPath, frame.Table()); err != nil {
		return err
	}

	paths, err := plot.RenderAll(frame, cfg.OutputDir)
	if err != nil {
		return err
	}

	table.RouteTable(table.AlongRoute(records)).Render(stdout)
	fmt.Fprintf(stdout, "\nWrote %s\n", csvPath)
	for _, p := range paths {
		fmt.Fprintf(stdout, "Wrote %s\n", p)
	}
	return nil
}

func fetchRoute(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, file string, opts trailweather.RouteOptions, stderr io.Writer) ([]types.Record, error) {
	r, err := route.LoadFile(file)
	if err != nil {
		return nil, err
	}

	svc, err := trailweather.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	var bar *progressbar.ProgressBar
	opts.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("fetching weather"),
				progressbar.OptionSetWriter(stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}

	res, err := svc.RouteWeather(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	if res.Failed > 0 {
		fmt.Fprintf(stderr, "%d of %d segments failed, see the log for details\n", res.Failed, res.Segments)
	}
	return res.Records, nil
}

type pointArgs struct {
	coords types.Coordinates
	place  string
	csvDir string
}

func runPoint(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("point", flag.ExitOnError)
	lat := fs.Float64("lat", 36.6519, "latitude")
	lon := fs.Float64("lon", 50.749, "longitude")
	place := fs.String("place", "", "geocode a place name with positionstack instead of -lat/-lon")
	csvDir := fs.String("csv", "", "also write each table as CSV into this directory")
	debug := fs.Bool("debug", false, "development logging")
	fs.Parse(args)

	logger, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pointForecast(ctx, cfg, logger, pointArgs{
		coords: types.Coordinates{Latitude: *lat, Longitude: *lon},
		place:  *place,
		csvDir: *csvDir,
	}, os.Stdout)
}

// pointForecast prints the metadata and every forecast block for one coordinate.
func pointForecast(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, args pointArgs, stdout io.Writer) error {
	svc, err := trailweather.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	coords := args.coords
	if args.place != "" {
		c, err := svc.GeoCode(ctx, args.place)
		if err != nil {
			return err
		}
		coords = *c
	}

	f, err := svc.PointForecast(ctx, coords)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Coordinates %v°N %v°E\n", f.Latitude, f.Longitude)
	fmt.Fprintf(stdout, "Elevation %v m asl\n", f.Elevation)
	fmt.Fprintf(stdout, "Timezone %v %v\n", f.Timezone, f.TimezoneAbbreviation)
	fmt.Fprintf(stdout, "Timezone difference to GMT+0 %v s\n", f.UtcOffsetSeconds)

	loc := f.Location()
	blocks := []struct {
		name  string
		table *table.Table
	}{
		{"current", table.FromCurrent(f.Current, loc)},
		{"minutely_15", table.FromSeries(f.Minutely15, loc)},
		{"hourly", table.FromSeries(f.Hourly, loc)},
		{"daily", table.FromSeries(f.Daily, loc)},
	}
	if args.csvDir != "" {
		if err := os.MkdirAll(args.csvDir, 0o755); err != nil {
			return fmt.Errorf("error creating csv directory: %w", err)
		}
	}
	for _, b := range blocks {
		if len(b.table.Rows) == 0 {
			continue
		}
		fmt.Fprintf(stdout, "\n%s data\n", b.name)
		b.table.Render(stdout)
		if args.csvDir != "" {
			if err := writeCSV(filepath.Join(args.csvDir, b.name+".csv"), b.table); err != nil {
				return err
			}
		}
	}
	return nil
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "listen address")
	debug := fs.Bool("debug", false, "development logging")
	fs.Parse(args)

	logger, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := trailweather.New(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.RouteFile != "" {
		sched := scheduler.New(svc, cfg.RefreshInterval, logger)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("error starting scheduler: %w", err)
		}
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return svc.Start(ctx, *addr)
}

func writeCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}
