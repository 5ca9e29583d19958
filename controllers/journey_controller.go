package controller

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"leadcore/models"
	"leadcore/store"
	"leadcore/utils"
)

// JourneyController records behavioral events and marketing
// touchpoints, and serves attribution reports.
type JourneyController struct {
	Leads   store.LeadStore
	Journey store.JourneyStore
	Logger  *log.Logger
}

func NewJourneyController(leads store.LeadStore, journey store.JourneyStore, logger *log.Logger) *JourneyController {
	return &JourneyController{
		Leads:   leads,
		Journey: journey,
		Logger:  logger,
	}
}

type recordEventRequest struct {
	LeadID     uint   `json:"lead_id"`
	Email      string `json:"email"`
	EventType  string `json:"event_type" validate:"required"`
	OccurredAt string `json:"occurred_at"` // RFC3339, defaults to now
	Metadata   string `json:"metadata"`
}

// RecordEvent handles POST /events. The target lead may be addressed
// by id or by email; an email resolves to the most recently created
// match. Duplicate delivery of the same event is acceptable, decay
// makes repeats marginal, so there is no dedup here.
func (jc *JourneyController) RecordEvent(c *fiber.Ctx) error {
	var req recordEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	lead, err := jc.resolveLead(req.LeadID, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
		}
		if errors.Is(err, errNoIdentifier) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "lead_id or email is required", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve lead", err)
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "occurred_at must be RFC3339", err)
		}
	}

	event := &models.BehavioralEvent{
		LeadID:     lead.ID,
		EventType:  strings.ToUpper(strings.TrimSpace(req.EventType)),
		OccurredAt: occurredAt,
		Metadata:   req.Metadata,
	}
	if err := jc.Journey.AppendEvent(event); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record event", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(event))
}

var errNoIdentifier = errors.New("no lead identifier")

func (jc *JourneyController) resolveLead(leadID uint, email string) (*models.Lead, error) {
	if leadID != 0 {
		return jc.Leads.FindByID(leadID)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errNoIdentifier
	}
	return jc.Leads.FindLatestByEmail(email)
}

type addTouchpointRequest struct {
	TouchType  string `json:"touch_type" validate:"required"`
	Source     string `json:"source" validate:"required"`
	Medium     string `json:"medium"`
	Campaign   string `json:"campaign"`
	OccurredAt string `json:"occurred_at"` // RFC3339, defaults to now
}

// AddTouchpoint handles POST /leads/:id/touchpoints.
func (jc *JourneyController) AddTouchpoint(c *fiber.Ctx) error {
	leadID, err := parseLeadID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", err)
	}

	var req addTouchpointRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if _, err := jc.Leads.FindByID(leadID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch lead", err)
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "occurred_at must be RFC3339", err)
		}
	}

	tp := &models.Touchpoint{
		LeadID:     leadID,
		TouchType:  strings.ToUpper(strings.TrimSpace(req.TouchType)),
		Source:     strings.TrimSpace(req.Source),
		Medium:     req.Medium,
		Campaign:   req.Campaign,
		OccurredAt: occurredAt,
	}
	if err := jc.Journey.AppendTouchpoint(tp); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record touchpoint", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tp))
}

// GetAttribution handles GET /leads/:id/attribution?model=...
// replaying the lead's ordered touchpoints through the selected
// credit-allocation model.
func (jc *JourneyController) GetAttribution(c *fiber.Ctx) error {
	leadID, err := parseLeadID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", err)
	}

	model, err := utils.ParseAttributionModel(c.Query("model", string(utils.Linear)))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid attribution model", err)
	}

	if _, err := jc.Leads.FindByID(leadID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch lead", err)
	}

	touchpoints, err := jc.Journey.ListTouchpoints(leadID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch touchpoints", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"lead_id":     leadID,
		"model":       model,
		"touchpoints": len(touchpoints),
		"attribution": utils.Attribute(touchpoints, model),
	}))
}

func parseLeadID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
