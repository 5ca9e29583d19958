package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcore/models"
	"leadcore/store"
	"leadcore/utils"
)

func scoreApp(st *store.MemoryStore) *fiber.App {
	app := fiber.New()
	sc := NewScoreController(st, st, testLogger())
	app.Get("/leads/:id/score", sc.GetScore)
	app.Post("/scores/refresh", sc.RefreshScores)
	return app
}

func TestGetScoreComputesAndPersists(t *testing.T) {
	st := store.NewMemoryStore()
	lead := seedLead(t, st, "alice@example.com")
	require.NoError(t, st.AppendEvent(&models.BehavioralEvent{
		LeadID:     lead.ID,
		EventType:  models.EventPricingView,
		OccurredAt: time.Now(),
	}))
	app := scoreApp(st)

	resp, err := app.Test(httptest.NewRequest("GET", "/leads/1/score", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data utils.ScoreBreakdown `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))

	// fresh lead: 50 base + 25 pricing view + 20 freshness
	assert.Equal(t, 95, envelope.Data.Score)

	stored, err := st.FindByID(lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 95, stored.Score)
}

func TestGetScoreUnknownLead(t *testing.T) {
	st := store.NewMemoryStore()
	app := scoreApp(st)

	resp, err := app.Test(httptest.NewRequest("GET", "/leads/42/score", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRefreshScoresToleratesMissingLeads(t *testing.T) {
	st := store.NewMemoryStore()
	first := seedLead(t, st, "alice@example.com")
	second := seedLead(t, st, "bob@example.com")
	app := scoreApp(st)

	code := postJSON(t, app, "/scores/refresh", fiber.Map{
		"lead_ids": []uint{first.ID, 999, second.ID},
	})
	require.Equal(t, fiber.StatusOK, code)

	stored, err := st.FindByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, stored.Score) // 50 base + 20 freshness

	stored, err = st.FindByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, stored.Score)
}

func TestRefreshScoresReportsFailures(t *testing.T) {
	st := store.NewMemoryStore()
	lead := seedLead(t, st, "alice@example.com")
	app := scoreApp(st)

	body, err := json.Marshal(fiber.Map{"lead_ids": []uint{lead.ID, 999}})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/scores/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data RefreshResult `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))

	assert.Equal(t, 1, envelope.Data.Refreshed)
	require.Len(t, envelope.Data.Failures, 1)
	assert.Equal(t, uint(999), envelope.Data.Failures[0].LeadID)
}

func TestRefreshScoresRequiresLeadIDs(t *testing.T) {
	st := store.NewMemoryStore()
	app := scoreApp(st)

	code := postJSON(t, app, "/scores/refresh", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, code)
}
