package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/water-guardian-cli/internal/delivery"
	"github.com/forest-guardian/water-guardian-cli/internal/notification"
	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"github.com/forest-guardian/water-guardian-cli/internal/sentinel"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type downloadOptions struct {
	area       string
	region     string
	start      string
	end        string
	waterMask  bool
	timeSeries bool
}

func newRootCommand() *cobra.Command {
	opts := &downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the Sentinel-2 time series of a region and derive its water products",
		Long: "Loads the stored patch of a region or downloads it from Sentinel Hub, then optionally\n" +
			"derives the water mask of the latest acquisition and the water share time series.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.area, "area", "", "area name, a file at data/geojsons/<area>.geojson")
	flags.StringVar(&opts.region, "region", "", "region_id of the feature to use")
	flags.StringVar(&opts.start, "start", "", "first day of the interval (YYYY-MM-DD)")
	flags.StringVar(&opts.end, "end", time.Now().UTC().Format(sentinel.DateLayout), "last day of the interval (YYYY-MM-DD)")
	flags.BoolVar(&opts.waterMask, "water-mask", false, "derive the water mask of the latest acquisition")
	flags.BoolVar(&opts.timeSeries, "time-series", false, "extract the water share time series of the region")
	_ = cmd.MarkFlagRequired("area")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func run(ctx context.Context, opts *downloadOptions) error {
	interval, err := sentinel.ParseTimeInterval(opts.start, opts.end)
	if err != nil {
		return err
	}

	cfg := properties.LoadFromEnv()
	cfg.InitializeLogging()
	notifier := notification.NewNotifier(cfg)

	service, err := delivery.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	r := delivery.Region{Area: opts.area, ID: opts.region}

	fail := func(err error) error {
		if nerr := notifier.SendError(ctx, fmt.Sprintf("%s: %s", r, err.Error())); nerr != nil {
			log.Warn().Err(nerr).Msg("failed to send notification")
		}
		return err
	}

	p, err := service.LoadRegionPatch(ctx, r, interval)
	if err != nil {
		return fail(err)
	}
	log.Info().Stringer("region", r).Int("frames", p.Len()).Msg("region patch ready")

	var summary []string
	if opts.waterMask {
		result, err := service.EvaluateWaterMask(ctx, r, interval)
		if err != nil {
			return fail(err)
		}
		summary = append(summary, result.ImagePath, result.GeoTIFFPath)
	}
	if opts.timeSeries {
		result, err := service.EvaluateTimeSeries(ctx, r, interval)
		if err != nil {
			return fail(err)
		}
		summary = append(summary, result.CSVPath)
		if result.PlotPath != "" {
			summary = append(summary, result.PlotPath)
		}
	}

	if len(summary) > 0 {
		message := fmt.Sprintf("%s finished with %d acquisitions", r, p.Len())
		for _, path := range summary {
			message += "\n" + path
			fmt.Println(path)
		}
		if err := notifier.SendSuccess(ctx, message); err != nil {
			log.Warn().Err(err).Msg("failed to send notification")
		}
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../../.env")
	}
	godal.RegisterAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
