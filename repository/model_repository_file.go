package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"loan-eligibility/model"
)

const modelFileExt = ".model"

// FileModelRepository stores one file per bundle, named by bundle ID, under
// a directory.
type FileModelRepository struct {
	dir string
	mu  sync.RWMutex
}

// NewFileModelRepository creates dir if needed.
func NewFileModelRepository(dir string) (*FileModelRepository, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	return &FileModelRepository{dir: dir}, nil
}

func (r *FileModelRepository) path(id string) string {
	return filepath.Join(r.dir, id+modelFileExt)
}

// Save writes the bundle to a temporary file and renames it into place.
func (r *FileModelRepository) Save(_ context.Context, b *model.Bundle) error {
	if _, err := uuid.Parse(b.Metadata.ID); err != nil {
		return fmt.Errorf("invalid model id %q: %w", b.Metadata.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.dir, "tmp-*"+modelFileExt)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := model.Encode(tmp, b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path(b.Metadata.ID)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename model file: %w", err)
	}
	return nil
}

func (r *FileModelRepository) Load(_ context.Context, id string) (*model.Bundle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := os.Open(r.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return model.Decode(f)
}

func (r *FileModelRepository) Latest(ctx context.Context) (*model.Bundle, error) {
	metas, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, ErrModelNotFound
	}
	return r.Load(ctx, metas[0].ID)
}

// List skips files that cannot be read as bundles.
func (r *FileModelRepository) List(_ context.Context) ([]model.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read model directory: %w", err)
	}

	var metas []model.Metadata
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, modelFileExt) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		f, err := os.Open(filepath.Join(r.dir, name))
		if err != nil {
			continue
		}
		meta, err := model.ReadMetadata(f)
		_ = f.Close()
		if err != nil {
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt.After(metas[j].CreatedAt) })
	return metas, nil
}
