package nafee3

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/nafee3/nafee3/embedding"
	"github.com/nafee3/nafee3/vector"
)

// RecordStore keeps payload and vector of a profile together in one point
// keyed by profile id.
//
// Insert, Replace and Delete check existence before writing. The check and the
// write are two separate store calls, so concurrent writers on the same id can
// race; none of the backends offers a conditional point write to close that
// window.
type RecordStore struct {
	collection vector.Collection
	embedder   embedding.Embedder
}

func NewRecordStore(collection vector.Collection, embedder embedding.Embedder) *RecordStore {
	return &RecordStore{
		collection: collection,
		embedder:   embedder,
	}
}

func (s *RecordStore) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := s.collection.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: exists: %w", ErrStore, err)
	}

	return ok, nil
}

// Insert creates a point. It never overwrites an existing one.
func (s *RecordStore) Insert(ctx context.Context, id string, payload map[string]any, text string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}

	if exists {
		return ErrProfileConflict
	}

	return s.write(ctx, id, payload, text)
}

// Replace overwrites both payload and vector of an existing point.
func (s *RecordStore) Replace(ctx context.Context, id string, payload map[string]any, text string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}

	if !exists {
		return ErrProfileNotFound
	}

	return s.write(ctx, id, payload, text)
}

func (s *RecordStore) Retrieve(ctx context.Context, id string) (map[string]any, error) {
	point, err := s.collection.Get(ctx, id)
	if err != nil {
		if errors.Is(err, vector.ErrPointNotFound) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("%w: retrieve: %w", ErrStore, err)
	}

	return point.Payload, nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}

	if !exists {
		return ErrProfileNotFound
	}

	if err := s.collection.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete: %w", ErrStore, err)
	}

	return nil
}

func (s *RecordStore) write(ctx context.Context, id string, payload map[string]any, text string) error {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	// The payload id always mirrors the point id.
	payload = maps.Clone(payload)
	if payload == nil {
		payload = make(map[string]any)
	}

	payload[IDField] = id

	point := vector.Point{
		ID:      id,
		Payload: payload,
		Vector:  vec,
	}

	if err := s.collection.Upsert(ctx, point); err != nil {
		return fmt.Errorf("%w: upsert: %w", ErrStore, err)
	}

	return nil
}
