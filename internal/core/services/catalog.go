package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
	"vehicle-insurance-mlops/internal/ml"
)

const pointerObject = "current.json"

// ModelCatalog tracks pushed models in the object store. Model objects are
// written once; only the pointer object is ever replaced.
type ModelCatalog struct {
	store  output.ModelStore
	prefix string
}

func NewModelCatalog(store output.ModelStore, prefix string) *ModelCatalog {
	return &ModelCatalog{store: store, prefix: prefix}
}

func (c *ModelCatalog) PointerKey() string {
	if c.prefix == "" {
		return pointerObject
	}
	return path.Join(c.prefix, pointerObject)
}

func (c *ModelCatalog) Bucket() string { return c.store.Bucket() }

func (c *ModelCatalog) URI(key string) string { return c.store.URI(key) }

// Current returns the pointer to the deployed model, or domain.ErrModelNotFound.
func (c *ModelCatalog) Current(ctx context.Context) (*domain.ModelPointer, error) {
	data, err := c.store.Get(ctx, c.PointerKey())
	if err != nil {
		return nil, err
	}
	var p domain.ModelPointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: pointer: %v", domain.ErrCorruptArtifact, err)
	}
	if p.Key == "" {
		return nil, domain.ErrModelNotFound
	}
	return &p, nil
}

// LoadCurrent downloads and decodes the deployed model. Only a missing
// pointer yields domain.ErrModelNotFound; a pointer whose object is gone
// yields domain.ErrReferenceMissing.
func (c *ModelCatalog) LoadCurrent(ctx context.Context) (*ml.Model, *domain.ModelPointer, error) {
	p, err := c.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := c.store.Get(ctx, p.Key)
	if isNotFound(err) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrReferenceMissing, p.Key)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get model %s: %w", p.Key, err)
	}
	model, err := ml.DecodeModel(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode model %s: %w", p.Key, err)
	}
	return model, p, nil
}

// Publish uploads a model under a fresh key and then moves the pointer to it.
func (c *ModelCatalog) Publish(ctx context.Context, data []byte, contentType string, pointer domain.ModelPointer) error {
	exists, err := c.store.Exists(ctx, pointer.Key)
	if err != nil {
		return fmt.Errorf("check model key: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrModelKeyExists, pointer.Key)
	}
	if err := c.store.Put(ctx, pointer.Key, data, contentType); err != nil {
		return fmt.Errorf("upload model: %w", err)
	}

	raw, err := json.Marshal(pointer)
	if err != nil {
		return fmt.Errorf("marshal pointer: %w", err)
	}
	if err := c.store.Put(ctx, c.PointerKey(), raw, "application/json"); err != nil {
		return fmt.Errorf("upload pointer: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrModelNotFound)
}
