package core

import (
	"bytes"
	"context"
)

type (
	// Share is an anonymous, immutable copy of a serialized scene, created
	// so a draft can be passed around by link (the storefront's gifting
	// flow) without an owner account.
	Share struct {
		Data bytes.Buffer
	}

	// ShareStore persists shares under server-assigned ids.
	ShareStore interface {
		FindID(ctx context.Context, id string) (*Share, error)
		Create(ctx context.Context, share *Share) (string, error)
	}
)
