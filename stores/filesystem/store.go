package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"printstudio/core"
)

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store. Shares live under
// shares/, design records under designs/<ownerID>/.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{basePath, filepath.Join(basePath, "shares"), filepath.Join(basePath, "designs")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create storage directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath}
}

// ShareStore implementation
func (s *fsStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	filePath := filepath.Join(s.basePath, "shares", id)
	log := logrus.WithField("share_id", id)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Share with specified ID not found")
			return nil, fmt.Errorf("share with id %s not found", id)
		}
		log.WithError(err).Error("Failed to retrieve share")
		return nil, err
	}

	share := core.Share{
		Data: *bytes.NewBuffer(data),
	}
	log.Info("Share retrieved successfully")
	return &share, nil
}

func (s *fsStore) Create(ctx context.Context, share *core.Share) (string, error) {
	id := ulid.Make().String()
	filePath := filepath.Join(s.basePath, "shares", id)
	log := logrus.WithFields(logrus.Fields{
		"share_id":  id,
		"file_path": filePath,
	})

	if err := os.WriteFile(filePath, share.Data.Bytes(), 0644); err != nil {
		log.WithError(err).Error("Failed to create share")
		return "", err
	}

	log.Info("Share created successfully")
	return id, nil
}

// DesignStore implementation
func (s *fsStore) ownerPath(ownerID string) string {
	return filepath.Join(s.basePath, "designs", ownerID)
}

// designPath validates that the resolved file stays inside the owner's
// directory; ids arriving from the URL must not traverse out of it.
func (s *fsStore) designPath(ownerID, id string) (string, error) {
	ownerPath := s.ownerPath(ownerID)
	filePath := filepath.Join(ownerPath, id)

	absOwner, err := filepath.Abs(ownerPath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absOwner+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid design id: access denied")
	}
	return absFile, nil
}

func (s *fsStore) List(ctx context.Context, ownerID string) ([]*core.Design, error) {
	ownerPath := s.ownerPath(ownerID)
	log := logrus.WithField("owner_id", ownerID).WithField("path", ownerPath)

	files, err := os.ReadDir(ownerPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("Owner directory does not exist, returning empty list.")
			return []*core.Design{}, nil
		}
		log.WithError(err).Error("Failed to read owner directory")
		return nil, err
	}

	designs := make([]*core.Design, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ownerPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read design file %s, skipping", file.Name())
			continue
		}
		var d core.Design
		if err := json.Unmarshal(data, &d); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal design file %s, skipping", file.Name())
			continue
		}
		d.OwnerID = ownerID
		d.SceneData = nil
		d.Preview = nil
		designs = append(designs, &d)
	}

	log.Infof("Listed %d designs", len(designs))
	return designs, nil
}

func (s *fsStore) Get(ctx context.Context, ownerID, id string) (*core.Design, error) {
	filePath, err := s.designPath(ownerID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "design_id": id})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Design file not found")
			return nil, fmt.Errorf("design %s not found", id)
		}
		log.WithError(err).Error("Failed to read design file")
		return nil, err
	}

	var stored fsDesign
	if err := json.Unmarshal(data, &stored); err != nil {
		log.WithError(err).Error("Failed to unmarshal design data")
		return nil, err
	}
	d := stored.Design
	d.SceneData = stored.SceneData
	d.Preview = stored.Preview
	d.OwnerID = ownerID

	log.Info("Design retrieved successfully")
	return &d, nil
}

// fsDesign is the on-disk layout; the heavy fields are embedded so a
// single file carries the whole record.
type fsDesign struct {
	core.Design
	SceneData []byte `json:"sceneData,omitempty"`
	Preview   []byte `json:"preview,omitempty"`
}

func (s *fsStore) Save(ctx context.Context, design *core.Design) error {
	if design.OwnerID == "" || design.ID == "" {
		return fmt.Errorf("design owner and id must be set")
	}
	filePath, err := s.designPath(design.OwnerID, design.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": design.OwnerID, "design_id": design.ID, "path": filePath})

	if err := os.MkdirAll(s.ownerPath(design.OwnerID), 0755); err != nil {
		log.WithError(err).Error("Failed to create owner directory")
		return err
	}

	if existing, err := s.Get(ctx, design.OwnerID, design.ID); err == nil {
		design.CreatedAt = existing.CreatedAt
	} else {
		design.CreatedAt = time.Now()
	}
	design.UpdatedAt = time.Now()

	data, err := json.Marshal(fsDesign{Design: *design, SceneData: design.SceneData, Preview: design.Preview})
	if err != nil {
		log.WithError(err).Error("Failed to marshal design for saving")
		return err
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write design file")
		return err
	}

	log.Info("Design saved successfully")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, ownerID, id string) error {
	filePath, err := s.designPath(ownerID, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "design_id": id})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Design file not found for deletion, considered successful.")
			return nil
		}
		log.WithError(err).Error("Failed to delete design file")
		return err
	}

	log.Info("Design deleted successfully")
	return nil
}
