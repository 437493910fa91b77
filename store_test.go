package nafee3

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafee3/nafee3/persistence/chromem"
	"github.com/nafee3/nafee3/vector"
)

var errUnavailable = errors.New("store unavailable")

// brokenCollection fails every call.
type brokenCollection struct{}

func (brokenCollection) Exists(ctx context.Context, id string) (bool, error) {
	return false, errUnavailable
}

func (brokenCollection) Upsert(ctx context.Context, point vector.Point) error {
	return errUnavailable
}

func (brokenCollection) Get(ctx context.Context, id string) (vector.Point, error) {
	return vector.Point{}, errUnavailable
}

func (brokenCollection) Delete(ctx context.Context, id string) error {
	return errUnavailable
}

func (brokenCollection) Query(ctx context.Context, embedding []float32, k int) ([]vector.ScoredPoint, error) {
	return nil, errUnavailable
}

func newTestStore(t *testing.T) *RecordStore {
	ctx := context.Background()

	db, err := chromem.NewChromemVectorDB(vector.Config{})
	require.NoError(t, err)

	embedder, err := newTestEmbedder(ctx)
	require.NoError(t, err)

	collection, err := db.Collection(ctx, vector.CollectionConfig{
		Name:       "store-test",
		Dimension:  embedder.Dimension(),
		VectorName: VectorName,
		IDField:    IDField,
	})
	require.NoError(t, err)

	return NewRecordStore(collection, embedder)
}

func TestRecordStoreInsertRetrieve(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := newTestStore(t)
	id := uuid.NewString()

	payload := map[string]any{
		"full_name":           "Amina",
		"service_description": "plumber available weekends",
	}

	if err := store.Insert(ctx, id, payload, "plumber available weekends"); err != nil {
		assert.Fail(err.Error())
		return
	}

	_, ok := payload[IDField]
	assert.False(ok, "caller payload must not be modified")

	got, err := store.Retrieve(ctx, id)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(id, got[IDField])
	assert.Equal("Amina", got["full_name"])

	err = store.Insert(ctx, id, payload, "plumber available weekends")
	assert.ErrorIs(err, ErrProfileConflict)
}

func TestRecordStoreNotFound(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := newTestStore(t)
	id := uuid.NewString()

	_, err := store.Retrieve(ctx, id)
	assert.ErrorIs(err, ErrProfileNotFound)

	err = store.Replace(ctx, id, map[string]any{}, "anything")
	assert.ErrorIs(err, ErrProfileNotFound)

	err = store.Delete(ctx, id)
	assert.ErrorIs(err, ErrProfileNotFound)

	exists, err := store.Exists(ctx, id)
	assert.NoError(err)
	assert.False(exists)
}

func TestRecordStoreReplaceAndDelete(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := newTestStore(t)
	id := uuid.NewString()

	err := store.Insert(ctx, id, map[string]any{"phone_number": "0500000000"}, "painter")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	err = store.Replace(ctx, id, map[string]any{"email": "new@example.com"}, "gardener")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	got, err := store.Retrieve(ctx, id)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.NotContains(got, "phone_number")
	assert.Equal("new@example.com", got["email"])

	if err := store.Delete(ctx, id); err != nil {
		assert.Fail(err.Error())
		return
	}

	exists, err := store.Exists(ctx, id)
	assert.NoError(err)
	assert.False(exists)
}

func TestRecordStoreWrapsStoreErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	embedder, err := newTestEmbedder(ctx)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	store := NewRecordStore(brokenCollection{}, embedder)
	id := uuid.NewString()

	_, err = store.Exists(ctx, id)
	assert.ErrorIs(err, ErrStore)
	assert.ErrorIs(err, errUnavailable)

	err = store.Insert(ctx, id, nil, "text")
	assert.ErrorIs(err, ErrStore)

	_, err = store.Retrieve(ctx, id)
	assert.ErrorIs(err, ErrStore)
	assert.NotErrorIs(err, ErrProfileNotFound)

	err = store.Delete(ctx, id)
	assert.ErrorIs(err, ErrStore)
}
