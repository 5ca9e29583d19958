package worker

import (
	"context"
	"log"
	"time"

	"leadcore/store"
	"leadcore/utils"
)

// scoreLookback bounds which leads get refreshed: only those with
// behavioral activity inside the decay window matter, older events
// contribute nothing anyway.
const scoreLookback = 30 * 24 * time.Hour

// ScoreWorker periodically recomputes predictive scores for leads with
// recent behavioral activity, so stored scores decay even when nobody
// asks for them.
type ScoreWorker struct {
	Leads    store.LeadStore
	Journey  store.JourneyStore
	Logger   *log.Logger
	Interval time.Duration
}

func NewScoreWorker(leads store.LeadStore, journey store.JourneyStore, logger *log.Logger, interval time.Duration) *ScoreWorker {
	return &ScoreWorker{
		Leads:    leads,
		Journey:  journey,
		Logger:   logger,
		Interval: interval,
	}
}

func (sw *ScoreWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	sw.Logger.Println("Score refresh worker started")

	ticker := time.NewTicker(sw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Println("Score refresh worker shutting down...")
			return
		case <-ticker.C:
			sw.refreshActiveLeads()
		}
	}
}

func (sw *ScoreWorker) refreshActiveLeads() {
	ids, err := sw.Journey.ActiveLeadIDs(time.Now().Add(-scoreLookback))
	if err != nil {
		sw.Logger.Printf("Error fetching active leads: %v", err)
		return
	}

	refreshed := 0
	for _, leadID := range ids {
		if err := sw.refreshLead(leadID); err != nil {
			sw.Logger.Printf("Error refreshing score for lead %d: %v", leadID, err)
			continue
		}
		refreshed++
	}

	if len(ids) > 0 {
		sw.Logger.Printf("Refreshed %d/%d lead scores", refreshed, len(ids))
	}
}

func (sw *ScoreWorker) refreshLead(leadID uint) error {
	lead, err := sw.Leads.FindByID(leadID)
	if err != nil {
		return err
	}
	events, err := sw.Journey.ListEvents(leadID)
	if err != nil {
		return err
	}
	breakdown := utils.ComputeScore(lead, events, time.Now())
	return sw.Leads.SaveScore(leadID, breakdown.Score)
}
