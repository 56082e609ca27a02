package repository

import (
	"context"
	"errors"

	"loan-eligibility/model"
)

var ErrModelNotFound = errors.New("model not found")

// ModelRepository persists trained model bundles.
type ModelRepository interface {
	Save(ctx context.Context, b *model.Bundle) error
	Load(ctx context.Context, id string) (*model.Bundle, error)

	// Latest returns the most recently created bundle.
	Latest(ctx context.Context) (*model.Bundle, error)

	// List returns metadata of every stored bundle, newest first.
	List(ctx context.Context) ([]model.Metadata, error)
}
