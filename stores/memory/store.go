package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"printstudio/core"
)

// memStore implements both ShareStore and DesignStore in memory.
type memStore struct {
	mu sync.RWMutex

	shares map[string]core.Share
	// designs is keyed by ownerID, then by design id.
	designs map[string]map[string]*core.Design
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		shares:  make(map[string]core.Share),
		designs: make(map[string]map[string]*core.Design),
	}
}

// FindID retrieves a shared scene by its ID. Part of the ShareStore interface.
func (s *memStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("share_id", id)
	if val, ok := s.shares[id]; ok {
		log.Info("Share retrieved successfully")
		return &val, nil
	}
	log.Warn("Share with specified ID not found")
	return nil, fmt.Errorf("share with id %s not found", id)
}

// Create stores a new shared scene. Part of the ShareStore interface.
func (s *memStore) Create(ctx context.Context, share *core.Share) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ulid.Make().String()
	s.shares[id] = *share
	logrus.WithFields(logrus.Fields{
		"share_id":    id,
		"data_length": share.Data.Len(),
	}).Info("Share created successfully")
	return id, nil
}

// List returns metadata for all designs owned by a user. Part of the DesignStore interface.
func (s *memStore) List(ctx context.Context, ownerID string) ([]*core.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned, ok := s.designs[ownerID]
	if !ok {
		return []*core.Design{}, nil
	}

	designs := make([]*core.Design, 0, len(owned))
	for _, d := range owned {
		// List views omit the heavy scene and preview payloads.
		designs = append(designs, &core.Design{
			ID:          d.ID,
			OwnerID:     d.OwnerID,
			Name:        d.Name,
			TemplateID:  d.TemplateID,
			ColorChoice: d.ColorChoice,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		})
	}

	logrus.WithField("owner_id", ownerID).Infof("Listed %d designs", len(designs))
	return designs, nil
}

// Get returns a single design, ensuring it belongs to the owner. Part of the DesignStore interface.
func (s *memStore) Get(ctx context.Context, ownerID, id string) (*core.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "design_id": id})

	owned, ok := s.designs[ownerID]
	if !ok {
		log.Warn("Owner has no designs")
		return nil, fmt.Errorf("design with id %s not found for owner %s", id, ownerID)
	}
	d, ok := owned[id]
	if !ok {
		log.Warn("Design not found for owner")
		return nil, fmt.Errorf("design with id %s not found for owner %s", id, ownerID)
	}
	log.Info("Design retrieved successfully")
	return d, nil
}

// Save creates or updates a design. Part of the DesignStore interface.
func (s *memStore) Save(ctx context.Context, design *core.Design) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if design.OwnerID == "" {
		return fmt.Errorf("design owner cannot be empty")
	}
	if design.ID == "" {
		return fmt.Errorf("design id cannot be empty for save operation")
	}

	owned, ok := s.designs[design.OwnerID]
	if !ok {
		owned = make(map[string]*core.Design)
		s.designs[design.OwnerID] = owned
	}

	now := time.Now()
	if existing, exists := owned[design.ID]; exists {
		design.CreatedAt = existing.CreatedAt
	} else {
		design.CreatedAt = now
	}
	design.UpdatedAt = now
	owned[design.ID] = design

	logrus.WithFields(logrus.Fields{
		"owner_id":  design.OwnerID,
		"design_id": design.ID,
	}).Info("Design saved successfully")
	return nil
}

// Delete removes a design, ensuring it belongs to the owner. Part of the DesignStore interface.
func (s *memStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "design_id": id})

	owned, ok := s.designs[ownerID]
	if !ok {
		log.Warn("Owner has no designs to delete from")
		return fmt.Errorf("owner %s has no designs", ownerID)
	}
	if _, ok := owned[id]; !ok {
		log.Warn("Design not found for deletion")
		return fmt.Errorf("design with id %s not found for owner %s", id, ownerID)
	}
	delete(owned, id)
	log.Info("Design deleted successfully")
	return nil
}
