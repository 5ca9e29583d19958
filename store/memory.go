package store

import (
	"sort"
	"sync"
	"time"

	"leadcore/models"
)

// MemoryStore is an in-memory persistence collaborator. It backs the
// package tests and can serve single-instance development without a
// database.
type MemoryStore struct {
	mu sync.RWMutex

	leads       map[uint]*models.Lead
	credentials map[string]*models.IngestionCredential
	mappings    map[uint]map[int]uint // tenantID -> externalBranchID -> targetTenantID
	events      map[uint][]models.BehavioralEvent
	touchpoints map[uint][]models.Touchpoint

	nextLeadID  uint
	nextEventID uint

	// CreateErr, when set, is consulted before persisting a lead so
	// tests can inject persistence failures.
	CreateErr func(lead *models.Lead) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:       make(map[uint]*models.Lead),
		credentials: make(map[string]*models.IngestionCredential),
		mappings:    make(map[uint]map[int]uint),
		events:      make(map[uint][]models.BehavioralEvent),
		touchpoints: make(map[uint][]models.Touchpoint),
	}
}

// AddCredential registers an ingestion credential.
func (s *MemoryStore) AddCredential(cred *models.IngestionCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.Key] = cred
}

// AddBranchMapping registers an external branch mapping.
func (s *MemoryStore) AddBranchMapping(tenantID uint, externalBranchID int, targetTenantID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mappings[tenantID] == nil {
		s.mappings[tenantID] = make(map[int]uint)
	}
	s.mappings[tenantID][externalBranchID] = targetTenantID
}

func (s *MemoryStore) FindByAPIKey(key string) (*models.IngestionCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cred
	return &copied, nil
}

func (s *MemoryStore) TouchLastUsed(credentialID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cred := range s.credentials {
		if cred.ID == credentialID {
			cred.LastUsed = &at
		}
	}
	return nil
}

func (s *MemoryStore) FindByID(id uint) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *lead
	return &copied, nil
}

func (s *MemoryStore) FindByEmail(tenantID uint, email string) (*models.Lead, error) {
	return s.findLead(func(l *models.Lead) bool {
		return l.TenantID == tenantID && l.Email != "" && l.Email == email
	})
}

func (s *MemoryStore) FindByPhone(tenantID uint, phone string) (*models.Lead, error) {
	return s.findLead(func(l *models.Lead) bool {
		return l.TenantID == tenantID && l.Phone != "" && l.Phone == phone
	})
}

func (s *MemoryStore) FindLatestByEmail(email string) (*models.Lead, error) {
	return s.findLead(func(l *models.Lead) bool {
		return l.Email != "" && l.Email == email
	})
}

func (s *MemoryStore) findLead(match func(*models.Lead) bool) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Lead
	for _, lead := range s.leads {
		if !match(lead) {
			continue
		}
		if best == nil || lead.CreatedAt.After(best.CreatedAt) {
			best = lead
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (s *MemoryStore) Create(lead *models.Lead) error {
	if s.CreateErr != nil {
		if err := s.CreateErr(lead); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLeadID++
	lead.ID = s.nextLeadID
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	copied := *lead
	s.leads[lead.ID] = &copied
	return nil
}

func (s *MemoryStore) Update(lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; !ok {
		return ErrNotFound
	}
	copied := *lead
	s.leads[lead.ID] = &copied
	return nil
}

func (s *MemoryStore) SaveScore(leadID uint, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.Score = score
	return nil
}

func (s *MemoryStore) ResolveBranch(tenantID uint, externalBranchID int) (uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if target, ok := s.mappings[tenantID][externalBranchID]; ok {
		return target, nil
	}
	return 0, ErrNotFound
}

func (s *MemoryStore) AppendEvent(event *models.BehavioralEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	event.ID = s.nextEventID
	s.events[event.LeadID] = append(s.events[event.LeadID], *event)
	return nil
}

func (s *MemoryStore) ListEvents(leadID uint) ([]models.BehavioralEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]models.BehavioralEvent, len(s.events[leadID]))
	copy(events, s.events[leadID])
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return events, nil
}

func (s *MemoryStore) AppendTouchpoint(tp *models.Touchpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchpoints[tp.LeadID] = append(s.touchpoints[tp.LeadID], *tp)
	return nil
}

func (s *MemoryStore) ListTouchpoints(leadID uint) ([]models.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tps := make([]models.Touchpoint, len(s.touchpoints[leadID]))
	copy(tps, s.touchpoints[leadID])
	sort.SliceStable(tps, func(i, j int) bool {
		return tps[i].OccurredAt.Before(tps[j].OccurredAt)
	})
	return tps, nil
}

func (s *MemoryStore) ActiveLeadIDs(since time.Time) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uint
	for leadID, events := range s.events {
		for _, e := range events {
			if !e.OccurredAt.Before(since) {
				ids = append(ids, leadID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
