package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"leadcore/middleware"
	"leadcore/models"
	"leadcore/store"
	"leadcore/utils"
)

// MergePolicy controls what happens when an ingestion item matches an
// existing lead by email or phone.
type MergePolicy string

const (
	// MergeOverwrite updates the existing lead with the incoming
	// non-empty fields.
	MergeOverwrite MergePolicy = "overwrite"
	// MergeSkip leaves the existing lead untouched.
	MergeSkip MergePolicy = "skip"
)

// ParseMergePolicy accepts a policy name, defaulting to overwrite.
func ParseMergePolicy(s string) MergePolicy {
	if MergePolicy(strings.ToLower(strings.TrimSpace(s))) == MergeSkip {
		return MergeSkip
	}
	return MergeOverwrite
}

// ItemError records a per-item failure with the item's original index.
type ItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkIngestionResult aggregates one bulk submission. It is returned
// once to the caller and never persisted. Callers must inspect Errors
// to detect partial failure; the transport status is 200 either way.
type BulkIngestionResult struct {
	BatchID            string      `json:"batch_id"`
	Total              int         `json:"total"`
	CreatedProspection int         `json:"created_prospection"`
	CreatedCRM         int         `json:"created_crm"`
	Updated            int         `json:"updated"`
	Skipped            int         `json:"skipped"`
	Quarantined        int         `json:"quarantined"`
	Errors             []ItemError `json:"errors"`
}

type itemOutcome int

const (
	outcomeCreatedProspection itemOutcome = iota
	outcomeCreatedCRM
	outcomeUpdated
	outcomeSkipped
)

// IngestController orchestrates bulk lead intake: per-item sanitize,
// branch mapping, routing, dedup and persistence.
type IngestController struct {
	Leads    store.LeadStore
	Branches store.BranchStore
	Logger   *log.Logger
	Policy   MergePolicy

	// IsCRMRoute decides whether an item is routed straight into the
	// CRM path rather than prospection. The surrounding CRM owns the
	// rule; nil falls back to DefaultCRMRoute.
	IsCRMRoute func(item utils.APILeadItem) bool
}

func NewIngestController(leads store.LeadStore, branches store.BranchStore, logger *log.Logger, policy MergePolicy) *IngestController {
	return &IngestController{
		Leads:    leads,
		Branches: branches,
		Logger:   logger,
		Policy:   policy,
	}
}

// DefaultCRMRoute treats any sales stage other than empty or NOUVEAU
// as "already claimed by the CRM".
func DefaultCRMRoute(item utils.APILeadItem) bool {
	stage := strings.ToUpper(strings.TrimSpace(item.SalesStage))
	return stage != "" && stage != models.SalesStageNew
}

type bulkRequest struct {
	Leads []utils.APILeadItem `json:"leads" validate:"required"`
}

// IngestBulk handles POST /leads/bulk. One malformed item never
// poisons the batch: item failures land in errors[] and the response
// is 200 for both full and partial success. Only a structurally
// invalid envelope is a 400.
func (ic *IngestController) IngestBulk(c *fiber.Ctx) error {
	cred := c.Locals(middleware.LocalCredential).(*models.IngestionCredential)

	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "leads array is required", err)
	}

	result := ic.ingestBulk(cred, req.Leads)
	return c.JSON(utils.SuccessResponse(result))
}

func (ic *IngestController) ingestBulk(cred *models.IngestionCredential, items []utils.APILeadItem) BulkIngestionResult {
	result := BulkIngestionResult{
		BatchID: uuid.NewString(),
		Total:   len(items),
		Errors:  []ItemError{},
	}

	for i, raw := range items {
		item, err := utils.SanitizeLeadItem(raw)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Error: err.Error()})
			continue
		}

		tenantID := ic.resolveTenant(cred.TenantID, item.BranchID, result.BatchID)

		outcome, err := ic.persistItem(tenantID, item)
		if err != nil {
			ic.Logger.Printf("batch %s item %d: persistence failure: %v", result.BatchID, i, err)
			sentry.CaptureException(err)
			result.Errors = append(result.Errors, ItemError{Index: i, Error: "persistence failure: " + err.Error()})
			continue
		}

		switch outcome {
		case outcomeCreatedProspection:
			result.CreatedProspection++
		case outcomeCreatedCRM:
			result.CreatedCRM++
		case outcomeUpdated:
			result.Updated++
		case outcomeSkipped:
			result.Skipped++
		}
	}

	result.Quarantined = len(result.Errors)
	ic.Logger.Printf("batch %s: total=%d prospection=%d crm=%d updated=%d skipped=%d quarantined=%d",
		result.BatchID, result.Total, result.CreatedProspection, result.CreatedCRM,
		result.Updated, result.Skipped, result.Quarantined)
	return result
}

// resolveTenant maps an external branch identifier to its tenant.
// Mapping is advisory routing, not a constraint: lookup failures
// degrade to the credential's tenant and never fail the item. A
// missing mapping and a broken lookup are logged as distinct signals
// so operators can tell them apart.
func (ic *IngestController) resolveTenant(defaultTenantID uint, externalBranchID int, batchID string) uint {
	if externalBranchID == 0 {
		return defaultTenantID
	}

	target, err := ic.Branches.ResolveBranch(defaultTenantID, externalBranchID)
	if err != nil {
		fields := logrus.Fields{
			"batch_id":  batchID,
			"tenant_id": defaultTenantID,
			"branch_id": externalBranchID,
		}
		if errors.Is(err, store.ErrNotFound) {
			logrus.WithFields(fields).Info("no branch mapping configured, routing to default tenant")
		} else {
			logrus.WithError(err).WithFields(fields).Warn("branch mapping lookup failed, routing to default tenant")
			sentry.CaptureException(err)
		}
		return defaultTenantID
	}
	return target
}

func (ic *IngestController) persistItem(tenantID uint, item utils.APILeadItem) (itemOutcome, error) {
	isCRM := DefaultCRMRoute(item)
	if ic.IsCRMRoute != nil {
		isCRM = ic.IsCRMRoute(item)
	}

	existing, err := ic.findExisting(tenantID, item)
	if err != nil {
		return 0, err
	}

	if existing != nil {
		if ic.Policy == MergeSkip {
			return outcomeSkipped, nil
		}
		mergeLead(existing, item)
		if err := ic.Leads.Update(existing); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}

	lead := buildLead(tenantID, item, isCRM)
	if err := ic.Leads.Create(lead); err != nil {
		return 0, err
	}
	if isCRM {
		return outcomeCreatedCRM, nil
	}
	return outcomeCreatedProspection, nil
}

// findExisting dedups by (tenant, email) then (tenant, phone).
func (ic *IngestController) findExisting(tenantID uint, item utils.APILeadItem) (*models.Lead, error) {
	if item.Email != "" {
		lead, err := ic.Leads.FindByEmail(tenantID, item.Email)
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if item.Phone != "" {
		lead, err := ic.Leads.FindByPhone(tenantID, item.Phone)
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func buildLead(tenantID uint, item utils.APILeadItem, isCRM bool) *models.Lead {
	lead := &models.Lead{
		TenantID:     tenantID,
		BranchID:     item.BranchID,
		FirstName:    item.FirstName,
		LastName:     item.LastName,
		Email:        item.Email,
		Phone:        item.Phone,
		Address:      item.Address,
		PostalCode:   item.PostalCode,
		City:         item.City,
		Status:       models.StatusProspection,
		SalesStage:   strings.TrimSpace(item.SalesStage),
		Source:       item.Source,
		ExamCenterID: item.ExamCenterID,
	}
	if isCRM {
		lead.Status = models.StatusProspect
	}
	if t, err := time.Parse(utils.DateLayout, item.ResponseDate); err == nil {
		lead.RespondedAt = &t
	}
	if item.ConsentDate != "" {
		if t, err := time.Parse(utils.DateLayout, item.ConsentDate); err == nil {
			lead.ConsentAt = &t
		}
	}
	return lead
}

// mergeLead applies the overwrite policy: incoming non-empty fields
// replace the stored ones, missing contact channels are backfilled.
func mergeLead(lead *models.Lead, item utils.APILeadItem) {
	lead.FirstName = item.FirstName
	if item.LastName != "" {
		lead.LastName = item.LastName
	}
	if item.Email != "" {
		lead.Email = item.Email
	}
	if item.Phone != "" {
		lead.Phone = item.Phone
	}
	if item.Address != "" {
		lead.Address = item.Address
	}
	if item.PostalCode != "" {
		lead.PostalCode = item.PostalCode
	}
	if item.City != "" {
		lead.City = item.City
	}
	if item.ExamCenterID != 0 {
		lead.ExamCenterID = item.ExamCenterID
	}
	if stage := strings.TrimSpace(item.SalesStage); stage != "" {
		lead.SalesStage = stage
	}
	if t, err := time.Parse(utils.DateLayout, item.ResponseDate); err == nil {
		lead.RespondedAt = &t
	}
	if item.ConsentDate != "" {
		if t, err := time.Parse(utils.DateLayout, item.ConsentDate); err == nil {
			lead.ConsentAt = &t
		}
	}
}
