package core

import (
	"context"
	"time"
)

type (
	// Design is a persisted design record: the serialized scene plus the
	// flattened preview the storefront shows at checkout.
	Design struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"-"` // Not exposed in JSON responses, used internally.
		Name        string    `json:"name"`
		TemplateID  string    `json:"templateId"`
		ColorChoice string    `json:"colorChoice"`
		SceneData   []byte    `json:"sceneData,omitempty"` // The serialized scene, not included in list views.
		Preview     []byte    `json:"-"`                   // PNG bytes, served through a dedicated endpoint.
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// DesignStore defines the persistence layer for user-owned designs.
	// All operations are scoped to a specific owner.
	DesignStore interface {
		// List returns metadata for all designs owned by a user. The
		// returned records should not carry SceneData or Preview to keep
		// the response light.
		List(ctx context.Context, ownerID string) ([]*Design, error)

		// Get returns a single design by its ID, ensuring it belongs to the owner.
		Get(ctx context.Context, ownerID, id string) (*Design, error)

		// Save creates or updates a design, preserving CreatedAt on update.
		Save(ctx context.Context, design *Design) error

		// Delete removes a design, ensuring it belongs to the owner.
		Delete(ctx context.Context, ownerID, id string) error
	}
)
