package utils

import (
	"math"
	"time"

	"leadcore/models"
)

const (
	scoreBase        = 50.0
	decayWindowDays  = 30.0
	freshnessBonus   = 20
	freshnessWindow  = 24 * time.Hour
	callPenalty      = 10
	callPenaltyAbove = 3
)

// eventWeights is the total weight table for recognized behavioral
// event types. Unrecognized types carry no weight and are reported in
// the breakdown instead of silently dropped.
var eventWeights = map[string]float64{
	models.EventPageView:        2,
	models.EventFormInteraction: 10,
	models.EventEmailOpen:       5,
	models.EventEmailClick:      15,
	models.EventPricingView:     25,
	models.EventDownload:        20,
}

// EventWeight returns the scoring weight for an event type and whether
// the type is recognized.
func EventWeight(eventType string) (float64, bool) {
	w, ok := eventWeights[eventType]
	return w, ok
}

// ScoreBreakdown details how a lead's predictive score was computed.
type ScoreBreakdown struct {
	Base               float64 `json:"base"`
	EventPoints        float64 `json:"event_points"`
	FreshnessBonus     int     `json:"freshness_bonus"`
	CallPenalty        int     `json:"call_penalty"`
	UnrecognizedEvents int     `json:"unrecognized_events"`
	Score              int     `json:"score"`
}

// ComputeScore converts a lead's behavioral event log plus profile
// facts into a predictive score in [0,100]. Each event contributes its
// type weight scaled by a linear 30-day decay; a lead created within
// the last 24 hours earns a freshness bonus; more than three call
// attempts costs a penalty. Pure function of its inputs.
func ComputeScore(lead *models.Lead, events []models.BehavioralEvent, now time.Time) ScoreBreakdown {
	breakdown := ScoreBreakdown{Base: scoreBase}

	for _, event := range events {
		weight, ok := EventWeight(event.EventType)
		if !ok {
			breakdown.UnrecognizedEvents++
			continue
		}
		days := now.Sub(event.OccurredAt).Hours() / 24
		decay := 1 - days/decayWindowDays
		if decay < 0 {
			decay = 0
		}
		breakdown.EventPoints += weight * decay
	}

	if now.Sub(lead.CreatedAt) < freshnessWindow {
		breakdown.FreshnessBonus = freshnessBonus
	}
	if lead.CallAttempts > callPenaltyAbove {
		breakdown.CallPenalty = callPenalty
	}

	raw := breakdown.Base + breakdown.EventPoints +
		float64(breakdown.FreshnessBonus) - float64(breakdown.CallPenalty)
	breakdown.Score = clampScore(int(math.Round(raw)))
	return breakdown
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
