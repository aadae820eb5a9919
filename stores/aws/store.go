package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"

	"printstudio/core"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

// ShareStore implementation
func (s *s3Store) FindID(ctx context.Context, id string) (*core.Share, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join("shares", id)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get share with id %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read share data: %v", err)
	}

	share := core.Share{
		Data: *bytes.NewBuffer(data),
	}
	return &share, nil
}

func (s *s3Store) Create(ctx context.Context, share *core.Share) (string, error) {
	id := ulid.Make().String()

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join("shares", id)),
		Body:   bytes.NewReader(share.Data.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload share: %v", err)
	}

	return id, nil
}

// DesignStore implementation
func (s *s3Store) designKey(ownerID, designID string) (string, error) {
	// The design id must be a simple name, not a path, to keep records
	// inside the owner's prefix.
	if path.Base(designID) != designID {
		return "", fmt.Errorf("invalid design id: must not be a path")
	}
	if designID == "" || designID == "." || designID == ".." {
		return "", fmt.Errorf("invalid design id: must not be empty or a dot directory")
	}
	return path.Join("designs", ownerID, designID), nil
}

// s3Design is the stored layout; the heavy fields are embedded so one
// object carries the whole record.
type s3Design struct {
	core.Design
	SceneData []byte `json:"sceneData,omitempty"`
	Preview   []byte `json:"preview,omitempty"`
	OwnerID   string `json:"ownerId"`
}

func (s *s3Store) List(ctx context.Context, ownerID string) ([]*core.Design, error) {
	prefix := path.Join("designs", ownerID) + "/"
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list designs for owner %s: %v", ownerID, err)
	}

	designs := make([]*core.Design, 0, len(output.Contents))
	for _, object := range output.Contents {
		resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    object.Key,
		})
		if err != nil {
			log.Printf("warn: failed to get object %s: %v", *object.Key, err)
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("warn: failed to read object body %s: %v", *object.Key, err)
			continue
		}

		var stored s3Design
		if err := json.Unmarshal(data, &stored); err != nil {
			log.Printf("warn: failed to unmarshal design %s: %v", *object.Key, err)
			continue
		}

		// List views omit the heavy payloads.
		d := stored.Design
		d.OwnerID = ownerID
		d.SceneData = nil
		d.Preview = nil
		designs = append(designs, &d)
	}

	return designs, nil
}

func (s *s3Store) Get(ctx context.Context, ownerID, id string) (*core.Design, error) {
	key, err := s.designKey(ownerID, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("design not found")
		}
		return nil, fmt.Errorf("failed to get design %s: %v", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read design data: %v", err)
	}

	var stored s3Design
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal design data: %v", err)
	}
	d := stored.Design
	d.SceneData = stored.SceneData
	d.Preview = stored.Preview
	d.OwnerID = ownerID

	return &d, nil
}

func (s *s3Store) Save(ctx context.Context, design *core.Design) error {
	key, err := s.designKey(design.OwnerID, design.ID)
	if err != nil {
		return err
	}

	// Preserve CreatedAt on update
	if design.CreatedAt.IsZero() {
		existing, err := s.Get(ctx, design.OwnerID, design.ID)
		if err == nil && existing != nil {
			design.CreatedAt = existing.CreatedAt
		} else {
			design.CreatedAt = time.Now()
		}
	}
	design.UpdatedAt = time.Now()

	data, err := json.Marshal(s3Design{
		Design:    *design,
		SceneData: design.SceneData,
		Preview:   design.Preview,
		OwnerID:   design.OwnerID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal design: %v", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save design %s: %v", design.ID, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, ownerID, id string) error {
	key, err := s.designKey(ownerID, id)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete design %s: %v", id, err)
	}
	return nil
}
