package ui

import (
	"context"
	"fmt"

	"github.com/forest-guardian/water-guardian-cli/internal/delivery"
	"github.com/forest-guardian/water-guardian-cli/internal/notification"
	"github.com/rs/zerolog/log"
)

type menuOption struct {
	title   string
	handler func()
}

type menu struct {
	ctx      context.Context
	service  *delivery.Service
	notifier *notification.Notifier
}

func (m *menu) notifyError(message string) {
	if err := m.notifier.SendError(m.ctx, message); err != nil {
		log.Warn().Err(err).Msg("failed to send notification")
	}
}

func (m *menu) notifySuccess(message string) {
	if err := m.notifier.SendSuccess(m.ctx, message); err != nil {
		log.Warn().Err(err).Msg("failed to send notification")
	}
}

// ShowMenu displays the main menu and handles user input until the user exits
func ShowMenu(ctx context.Context, service *delivery.Service, notifier *notification.Notifier) {
	m := &menu{ctx: ctx, service: service, notifier: notifier}
	exit := false
	menuOptions := []menuOption{
		{"Download or load the image time series of a region", m.LoadRegion},
		{"Derive the water mask of a region", m.AnalyzeWaterMask},
		{"Extract the water time series of a region", m.AnalyzeTimeSeries},
		{"Remove an acquisition from a stored region", m.RemoveFrame},
		{"View the list of available areas", m.ListAreas},
		{"View the list of regions of an area", func() { m.listRegions("") }},
		{"Exit the application", func() { fmt.Println("Exiting..."); exit = true }},
	}

	for !exit {
		fmt.Println("\033[34m===================\033[0m")
		for i, opt := range menuOptions {
			fmt.Printf("\033[34m%d. %s\033[0m\n", i+1, opt.title)
		}

		choice, err := ReadInt("Please enter your choice: ", 1, len(menuOptions))
		if err != nil {
			PrintError(err.Error())
			continue
		}
		menuOptions[choice-1].handler()
	}
}
