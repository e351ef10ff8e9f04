package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/water-guardian-cli/internal/delivery"
	"github.com/forest-guardian/water-guardian-cli/internal/notification"
	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"github.com/forest-guardian/water-guardian-cli/internal/ui"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func printBanner() {
	figure1 := figure.NewFigure("Water", "isometric1", true)
	figure2 := figure.NewFigure("Guardian", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func loadEnv() {
	for _, path := range []string{"../../.env", "../.env", ".env"} {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
	log.Warn().Msg("no .env file found, using process environment")
}

func initCLI(ctx context.Context, cfg *properties.Config) {
	notifier := notification.NewNotifier(cfg)

	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			location := "Unknown location"
			if ok {
				location = fmt.Sprintf("%s:%d in %s", file, line, runtime.FuncForPC(pc).Name())
			}

			ui.PrintError(fmt.Sprintf("PANIC: %v\nLocation: %s\nPlease check the input and try again.\nExiting...", r, location))

			errMessage := fmt.Sprintf("Water Guardian CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, debug.Stack())
			if err := notifier.SendError(ctx, errMessage); err != nil {
				ui.PrintError(fmt.Sprintf("Failed to send notification: %s", err.Error()))
			}
		}
	}()

	printBanner()

	service, err := delivery.NewService(ctx, cfg)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	ui.ShowMenu(ctx, service, notifier)
}

func main() {
	loadEnv()

	cfg := properties.LoadFromEnv()
	cfg.InitializeLogging()
	godal.RegisterAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	initCLI(ctx, cfg)
}
