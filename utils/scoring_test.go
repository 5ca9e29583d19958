package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leadcore/models"
)

func leadCreatedAt(at time.Time) *models.Lead {
	lead := &models.Lead{TenantID: 1, FirstName: "Marie"}
	lead.CreatedAt = at
	return lead
}

func eventAt(eventType string, at time.Time) models.BehavioralEvent {
	return models.BehavioralEvent{EventType: eventType, OccurredAt: at}
}

func TestComputeScoreFreshLeadWithPricingView(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now)
	events := []models.BehavioralEvent{eventAt(models.EventPricingView, now)}

	breakdown := ComputeScore(lead, events, now)
	// 50 base + 25 pricing view + 20 freshness
	assert.Equal(t, 95, breakdown.Score)
	assert.Equal(t, 20, breakdown.FreshnessBonus)
	assert.InDelta(t, 25, breakdown.EventPoints, 1e-9)
}

func TestComputeScoreEventOlderThanDecayWindow(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now)
	events := []models.BehavioralEvent{
		eventAt(models.EventPricingView, now.Add(-31*24*time.Hour)),
	}

	breakdown := ComputeScore(lead, events, now)
	// aged event contributes nothing, freshness still applies
	assert.Equal(t, 70, breakdown.Score)
	assert.InDelta(t, 0, breakdown.EventPoints, 1e-9)
}

func TestComputeScoreStaleLeadNoEvents(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now.Add(-48 * time.Hour))

	breakdown := ComputeScore(lead, nil, now)
	assert.Equal(t, 50, breakdown.Score)
	assert.Equal(t, 0, breakdown.FreshnessBonus)
}

func TestComputeScoreLinearDecayHalfWindow(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now.Add(-48 * time.Hour))
	events := []models.BehavioralEvent{
		eventAt(models.EventEmailClick, now.Add(-15*24*time.Hour)),
	}

	breakdown := ComputeScore(lead, events, now)
	// 15 * (1 - 15/30) = 7.5, rounds with base 50 to 58
	assert.InDelta(t, 7.5, breakdown.EventPoints, 1e-9)
	assert.Equal(t, 58, breakdown.Score)
}

func TestComputeScoreCallAttemptPenalty(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now.Add(-48 * time.Hour))
	lead.CallAttempts = 4

	breakdown := ComputeScore(lead, nil, now)
	assert.Equal(t, 10, breakdown.CallPenalty)
	assert.Equal(t, 40, breakdown.Score)

	lead.CallAttempts = 3
	breakdown = ComputeScore(lead, nil, now)
	assert.Equal(t, 0, breakdown.CallPenalty)
}

func TestComputeScoreClampsToHundred(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now)
	var events []models.BehavioralEvent
	for i := 0; i < 10; i++ {
		events = append(events, eventAt(models.EventPricingView, now))
	}

	breakdown := ComputeScore(lead, events, now)
	assert.Equal(t, 100, breakdown.Score)
}

func TestComputeScoreUnrecognizedEventType(t *testing.T) {
	now := time.Now()
	lead := leadCreatedAt(now.Add(-48 * time.Hour))
	events := []models.BehavioralEvent{
		eventAt("CARRIER_PIGEON", now),
		eventAt(models.EventPageView, now),
	}

	breakdown := ComputeScore(lead, events, now)
	assert.Equal(t, 1, breakdown.UnrecognizedEvents)
	assert.InDelta(t, 2, breakdown.EventPoints, 1e-9)
	assert.Equal(t, 52, breakdown.Score)
}

func TestEventWeightTable(t *testing.T) {
	cases := map[string]float64{
		models.EventPageView:        2,
		models.EventFormInteraction: 10,
		models.EventEmailOpen:       5,
		models.EventEmailClick:      15,
		models.EventPricingView:     25,
		models.EventDownload:        20,
	}
	for eventType, expected := range cases {
		w, ok := EventWeight(eventType)
		assert.True(t, ok, eventType)
		assert.Equal(t, expected, w, eventType)
	}

	_, ok := EventWeight("SOMETHING_ELSE")
	assert.False(t, ok)
}
