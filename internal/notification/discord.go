package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"github.com/rs/zerolog/log"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

const (
	colorRed   = 16711680
	colorGreen = 65280
)

// Notifier posts run results to Discord webhooks. An empty webhook URL disables the
// matching notification.
type Notifier struct {
	errorURL   string
	successURL string
	client     *http.Client
}

func NewNotifier(cfg *properties.Config) *Notifier {
	return &Notifier{
		errorURL:   cfg.DiscordErrorNotificationURL,
		successURL: cfg.DiscordSuccessNotificationURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) SendError(ctx context.Context, errorMessage string) error {
	return n.send(ctx, n.errorURL, DiscordEmbed{
		Title:       "🚨 Error Notification",
		Description: fmt.Sprintf("Water mask run failed.\n\nAn error occurred: %s", errorMessage),
		Color:       colorRed,
	})
}

func (n *Notifier) SendSuccess(ctx context.Context, successMessage string) error {
	return n.send(ctx, n.successURL, DiscordEmbed{
		Title:       "✅ Success Notification",
		Description: fmt.Sprintf("Water mask run finished.\n\n%s", successMessage),
		Color:       colorGreen,
	})
}

func (n *Notifier) send(ctx context.Context, url string, embed DiscordEmbed) error {
	if url == "" {
		log.Debug().Str("title", embed.Title).Msg("discord webhook not configured, skipping")
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}
	return nil
}
