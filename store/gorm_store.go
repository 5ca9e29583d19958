package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"leadcore/models"
)

// GormStore implements the persistence collaborator on GORM/Postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) FindByAPIKey(key string) (*models.IngestionCredential, error) {
	var cred models.IngestionCredential
	if err := s.DB.Where("key = ?", key).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (s *GormStore) TouchLastUsed(credentialID uint, at time.Time) error {
	return s.DB.Model(&models.IngestionCredential{}).
		Where("id = ?", credentialID).
		Update("last_used", at).Error
}

func (s *GormStore) FindByID(id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := s.DB.First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (s *GormStore) FindByEmail(tenantID uint, email string) (*models.Lead, error) {
	return s.findLead("tenant_id = ? AND email = ?", tenantID, email)
}

func (s *GormStore) FindByPhone(tenantID uint, phone string) (*models.Lead, error) {
	return s.findLead("tenant_id = ? AND phone = ?", tenantID, phone)
}

func (s *GormStore) FindLatestByEmail(email string) (*models.Lead, error) {
	return s.findLead("email = ?", email)
}

func (s *GormStore) findLead(query string, args ...interface{}) (*models.Lead, error) {
	var lead models.Lead
	err := s.DB.Where(query, args...).Order("created_at DESC").First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (s *GormStore) Create(lead *models.Lead) error {
	return s.DB.Create(lead).Error
}

func (s *GormStore) Update(lead *models.Lead) error {
	return s.DB.Save(lead).Error
}

func (s *GormStore) SaveScore(leadID uint, score int) error {
	return s.DB.Model(&models.Lead{}).
		Where("id = ?", leadID).
		Update("score", score).Error
}

func (s *GormStore) ResolveBranch(tenantID uint, externalBranchID int) (uint, error) {
	var mapping models.BranchMapping
	err := s.DB.Where("tenant_id = ? AND external_branch_id = ?", tenantID, externalBranchID).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return mapping.TargetTenantID, nil
}

func (s *GormStore) AppendEvent(event *models.BehavioralEvent) error {
	return s.DB.Create(event).Error
}

func (s *GormStore) ListEvents(leadID uint) ([]models.BehavioralEvent, error) {
	var events []models.BehavioralEvent
	err := s.DB.Where("lead_id = ?", leadID).Order("occurred_at ASC").Find(&events).Error
	return events, err
}

func (s *GormStore) AppendTouchpoint(tp *models.Touchpoint) error {
	return s.DB.Create(tp).Error
}

func (s *GormStore) ListTouchpoints(leadID uint) ([]models.Touchpoint, error) {
	var tps []models.Touchpoint
	err := s.DB.Where("lead_id = ?", leadID).Order("occurred_at ASC").Find(&tps).Error
	return tps, err
}

func (s *GormStore) ActiveLeadIDs(since time.Time) ([]uint, error) {
	var ids []uint
	err := s.DB.Model(&models.BehavioralEvent{}).
		Where("occurred_at >= ?", since).
		Distinct("lead_id").
		Pluck("lead_id", &ids).Error
	return ids, err
}
