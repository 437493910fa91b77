package chromem

import (
	"context"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/suite"

	"github.com/nafee3/nafee3/vector"
)

type chromemTestSuite struct {
	suite.Suite
	ctx        context.Context
	collection vector.Collection
}

func (suite *chromemTestSuite) SetupTest() {
	ctx := context.Background()

	db, err := NewChromemVectorDB(vector.Config{
		Backend: vector.BackendChromem,
	})

	if err != nil {
		suite.Fail(err.Error())
		return
	}

	collection, err := db.Collection(ctx, vector.CollectionConfig{
		Name:       "profiles",
		Dimension:  3,
		VectorName: "dense",
		IDField:    "profile_id",
	})

	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.ctx = ctx
	suite.collection = collection
}

func (suite *chromemTestSuite) TestUpsertAndGet() {
	point := vector.Point{
		ID: "p1",
		Payload: map[string]any{
			"profile_id":       "p1",
			"full_name":        "Amina",
			"portfolio_photos": []any{"a.jpg"},
		},
		Vector: []float32{1, 0, 0},
	}

	err := suite.collection.Upsert(suite.ctx, point)
	suite.Require().NoError(err)

	exists, err := suite.collection.Exists(suite.ctx, "p1")
	suite.Require().NoError(err)
	suite.True(exists)

	got, err := suite.collection.Get(suite.ctx, "p1")
	suite.Require().NoError(err)
	suite.Equal("p1", got.ID)
	suite.Equal(point.Payload, got.Payload)
	suite.Nil(got.Vector)
}

func (suite *chromemTestSuite) TestUpsertOverwrites() {
	suite.Require().NoError(suite.collection.Upsert(suite.ctx, vector.Point{
		ID:      "p1",
		Payload: map[string]any{"full_name": "before"},
		Vector:  []float32{1, 0, 0},
	}))

	suite.Require().NoError(suite.collection.Upsert(suite.ctx, vector.Point{
		ID:      "p1",
		Payload: map[string]any{"full_name": "after"},
		Vector:  []float32{0, 1, 0},
	}))

	got, err := suite.collection.Get(suite.ctx, "p1")
	suite.Require().NoError(err)
	suite.Equal("after", got.Payload["full_name"])

	results, err := suite.collection.Query(suite.ctx, []float32{0, 1, 0}, 5)
	suite.Require().NoError(err)
	suite.Len(results, 1)
	suite.InDelta(1.0, results[0].Score, 1e-5)
}

func (suite *chromemTestSuite) TestGetMissing() {
	_, err := suite.collection.Get(suite.ctx, "missing")
	suite.ErrorIs(err, vector.ErrPointNotFound)

	exists, err := suite.collection.Exists(suite.ctx, "missing")
	suite.NoError(err)
	suite.False(exists)
}

func (suite *chromemTestSuite) TestExistsMatchesIdentifierField() {
	c := suite.collection.(*collection).collection

	err := c.AddDocument(suite.ctx, chromem.Document{
		ID:        "p2",
		Metadata:  map[string]string{"profile_id": "other"},
		Embedding: []float32{1, 0, 0},
	})

	suite.Require().NoError(err)

	exists, err := suite.collection.Exists(suite.ctx, "p2")
	suite.NoError(err)
	suite.False(exists)
}

func (suite *chromemTestSuite) TestDelete() {
	suite.Require().NoError(suite.collection.Upsert(suite.ctx, vector.Point{
		ID:      "p1",
		Payload: map[string]any{"profile_id": "p1"},
		Vector:  []float32{1, 0, 0},
	}))

	err := suite.collection.Delete(suite.ctx, "p1")
	suite.Require().NoError(err)

	exists, err := suite.collection.Exists(suite.ctx, "p1")
	suite.NoError(err)
	suite.False(exists)
}

func (suite *chromemTestSuite) TestQueryOrderAndLimit() {
	points := []vector.Point{
		{ID: "x", Payload: map[string]any{"profile_id": "x"}, Vector: []float32{1, 0, 0}},
		{ID: "xy", Payload: map[string]any{"profile_id": "xy"}, Vector: []float32{1, 1, 0}},
		{ID: "y", Payload: map[string]any{"profile_id": "y"}, Vector: []float32{0, 1, 0}},
	}

	for _, point := range points {
		suite.Require().NoError(suite.collection.Upsert(suite.ctx, point))
	}

	results, err := suite.collection.Query(suite.ctx, []float32{1, 0, 0}, 2)
	suite.Require().NoError(err)
	suite.Len(results, 2)
	suite.Equal("x", results[0].ID)
	suite.Equal("xy", results[1].ID)
	suite.GreaterOrEqual(results[0].Score, results[1].Score)

	// k larger than the collection is clamped
	results, err = suite.collection.Query(suite.ctx, []float32{1, 0, 0}, 50)
	suite.Require().NoError(err)
	suite.Len(results, 3)
}

func (suite *chromemTestSuite) TestQuerySkipsZeroVectors() {
	for _, id := range []string{"z1", "z2", "z3"} {
		suite.Require().NoError(suite.collection.Upsert(suite.ctx, vector.Point{
			ID:      id,
			Payload: map[string]any{"profile_id": id},
			Vector:  []float32{0, 0, 0},
		}))
	}

	suite.Require().NoError(suite.collection.Upsert(suite.ctx, vector.Point{
		ID:      "y",
		Payload: map[string]any{"profile_id": "y"},
		Vector:  []float32{0, 1, 0},
	}))

	results, err := suite.collection.Query(suite.ctx, []float32{1, 0, 0}, 1)
	suite.Require().NoError(err)
	if suite.Len(results, 1) {
		suite.Equal("y", results[0].ID)
		suite.InDelta(0.0, results[0].Score, 1e-5)
	}

	// zero vector points stay retrievable by id
	exists, err := suite.collection.Exists(suite.ctx, "z1")
	suite.NoError(err)
	suite.True(exists)
}

func (suite *chromemTestSuite) TestDimensionMismatch() {
	err := suite.collection.Upsert(suite.ctx, vector.Point{
		ID:     "p1",
		Vector: []float32{1, 0},
	})

	suite.ErrorIs(err, vector.ErrDimensionMismatch)

	_, err = suite.collection.Query(suite.ctx, []float32{1, 0, 0, 0}, 1)
	suite.ErrorIs(err, vector.ErrDimensionMismatch)
}

func (suite *chromemTestSuite) TestQueryEmpty() {
	results, err := suite.collection.Query(suite.ctx, []float32{1, 0, 0}, 10)
	suite.NoError(err)
	suite.Empty(results)
}

func TestChromemTestSuite(t *testing.T) {
	suite.Run(t, new(chromemTestSuite))
}
