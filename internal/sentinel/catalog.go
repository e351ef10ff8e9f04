package sentinel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/utils"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

const (
	catalogPath  = "/api/v1/catalog/1.0.0/search"
	catalogLimit = 100
)

type catalogFields struct {
	Include []string `json:"include"`
}

type catalogRequest struct {
	BBox        [4]float64    `json:"bbox"`
	Datetime    string        `json:"datetime"`
	Collections []string      `json:"collections"`
	Limit       int           `json:"limit"`
	Filter      string        `json:"filter,omitempty"`
	FilterLang  string        `json:"filter-lang,omitempty"`
	Fields      catalogFields `json:"fields"`
	Next        int           `json:"next,omitempty"`
}

type catalogResponse struct {
	Features []struct {
		Properties struct {
			Datetime time.Time `json:"datetime"`
		} `json:"properties"`
	} `json:"features"`
	Context struct {
		Next int `json:"next"`
	} `json:"context"`
}

func bboxArray(b orb.Bound) [4]float64 {
	return [4]float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()}
}

// cloudCoverFilter is the CQL2 filter for the maximum cloud cover, given as a fraction.
func cloudCoverFilter(maxcc float64) string {
	return fmt.Sprintf("eo:cloud_cover <= %g", maxcc*100)
}

// SearchTimestamps lists the acquisitions over bbox inside interval whose tile cloud
// cover does not exceed the configured tolerance. Results are sorted, deduplicated and cached.
func (c *Client) SearchTimestamps(ctx context.Context, bbox orb.Bound, interval TimeInterval) ([]time.Time, error) {
	maxcc := c.cfg.CloudTolerance
	key := c.catalog.GenerateKey(c.cfg.DataCollection, bboxArray(bbox), interval.Datetime(), maxcc)
	if cached, ok := c.catalog.Get(key); ok {
		log.Debug().Int("timestamps", len(cached)).Msg("catalog search served from cache")
		return cached, nil
	}

	request := catalogRequest{
		BBox:        bboxArray(bbox),
		Datetime:    interval.Datetime(),
		Collections: []string{c.cfg.DataCollection},
		Limit:       catalogLimit,
		Filter:      cloudCoverFilter(maxcc),
		FilterLang:  "cql2-text",
		Fields:      catalogFields{Include: []string{"properties.datetime"}},
	}

	var timestamps []time.Time
	for {
		content, err := c.postJSON(ctx, catalogPath, request, "application/geo+json")
		if err != nil {
			return nil, fmt.Errorf("catalog search failed: %w", err)
		}
		var page catalogResponse
		if err := json.Unmarshal(content, &page); err != nil {
			return nil, fmt.Errorf("failed to parse catalog response: %w", err)
		}
		for _, f := range page.Features {
			timestamps = append(timestamps, f.Properties.Datetime.UTC())
		}
		if page.Context.Next == 0 {
			break
		}
		request.Next = page.Context.Next
	}

	timestamps = utils.SortDates(timestamps, true)
	if err := c.catalog.Set(key, timestamps); err != nil {
		log.Warn().Err(err).Msg("failed to cache catalog search")
	}
	log.Info().Int("timestamps", len(timestamps)).Str("interval", interval.String()).Msg("catalog search finished")
	return timestamps, nil
}

// FilterTimes keeps a timestamp only if it is more than diff after the last kept one.
// Input must be sorted.
func FilterTimes(timestamps []time.Time, diff time.Duration) []time.Time {
	var kept []time.Time
	for _, ts := range timestamps {
		if len(kept) == 0 || ts.Sub(kept[len(kept)-1]) > diff {
			kept = append(kept, ts)
		}
	}
	return kept
}
