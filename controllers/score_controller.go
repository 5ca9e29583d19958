package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"leadcore/store"
	"leadcore/utils"
)

// ScoreController computes and persists predictive lead scores.
type ScoreController struct {
	Leads   store.LeadStore
	Journey store.JourneyStore
	Logger  *log.Logger
}

func NewScoreController(leads store.LeadStore, journey store.JourneyStore, logger *log.Logger) *ScoreController {
	return &ScoreController{
		Leads:   leads,
		Journey: journey,
		Logger:  logger,
	}
}

// GetScore handles GET /leads/:id/score: recomputes the score from the
// event log, writes it back and returns the full breakdown.
func (sc *ScoreController) GetScore(c *fiber.Ctx) error {
	leadID, err := parseLeadID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", err)
	}

	lead, err := sc.Leads.FindByID(leadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch lead", err)
	}

	events, err := sc.Journey.ListEvents(leadID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch events", err)
	}

	breakdown := utils.ComputeScore(lead, events, time.Now())
	if err := sc.Leads.SaveScore(leadID, breakdown.Score); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to persist score", err)
	}

	return c.JSON(utils.SuccessResponse(breakdown))
}

type refreshScoresRequest struct {
	LeadIDs []uint `json:"lead_ids" validate:"required,min=1"`
}

// ScoreFailure records one lead whose refresh failed.
type ScoreFailure struct {
	LeadID uint   `json:"lead_id"`
	Error  string `json:"error"`
}

// RefreshResult summarizes a bulk score refresh.
type RefreshResult struct {
	Refreshed int            `json:"refreshed"`
	Failures  []ScoreFailure `json:"failures"`
}

// RefreshScores handles POST /scores/refresh: recomputes and persists
// each score sequentially. Individual lookup failures are collected,
// never aborting the rest of the batch.
func (sc *ScoreController) RefreshScores(c *fiber.Ctx) error {
	var req refreshScoresRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	result := RefreshResult{Failures: []ScoreFailure{}}
	for _, leadID := range req.LeadIDs {
		if err := sc.refreshOne(leadID); err != nil {
			sc.Logger.Printf("score refresh failed for lead %d: %v", leadID, err)
			result.Failures = append(result.Failures, ScoreFailure{LeadID: leadID, Error: err.Error()})
			continue
		}
		result.Refreshed++
	}

	return c.JSON(utils.SuccessResponse(result))
}

func (sc *ScoreController) refreshOne(leadID uint) error {
	lead, err := sc.Leads.FindByID(leadID)
	if err != nil {
		return err
	}
	events, err := sc.Journey.ListEvents(leadID)
	if err != nil {
		return err
	}
	breakdown := utils.ComputeScore(lead, events, time.Now())
	return sc.Leads.SaveScore(leadID, breakdown.Score)
}
