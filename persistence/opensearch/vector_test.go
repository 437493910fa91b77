package opensearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nafee3/nafee3/vector"
)

func TestIndexMapping(t *testing.T) {
	assert := assert.New(t)

	cfg := vector.CollectionConfig{
		Name:       "nafee3-profiles",
		Dimension:  768,
		VectorName: "dense",
		IDField:    "profile_id",
	}

	bs, err := json.Marshal(indexMapping(cfg))
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	var mapping struct {
		Settings struct {
			Index struct {
				KNN bool `json:"knn"`
			} `json:"index"`
		} `json:"settings"`
		Mappings struct {
			Properties map[string]struct {
				Type      string `json:"type"`
				Dimension int    `json:"dimension"`
				Method    struct {
					SpaceType string `json:"space_type"`
				} `json:"method"`
			} `json:"properties"`
		} `json:"mappings"`
	}

	if err := json.Unmarshal(bs, &mapping); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.True(mapping.Settings.Index.KNN)
	assert.Equal("keyword", mapping.Mappings.Properties["profile_id"].Type)
	assert.Equal("knn_vector", mapping.Mappings.Properties["dense"].Type)
	assert.Equal(768, mapping.Mappings.Properties["dense"].Dimension)
	assert.Equal("cosinesimil", mapping.Mappings.Properties["dense"].Method.SpaceType)
}

func TestTermQuery(t *testing.T) {
	assert := assert.New(t)

	bs, err := json.Marshal(termQuery("profile_id", "p1"))
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.JSONEq(`{"query":{"bool":{"filter":[{"term":{"profile_id":"p1"}}]}}}`, string(bs))
}

func TestKNNQuery(t *testing.T) {
	assert := assert.New(t)

	query := knnQuery("dense", []float32{0.5, 0.5}, 10)

	assert.Equal(10, query["size"])

	knn := query["query"].(map[string]any)["knn"].(map[string]any)["dense"].(map[string]any)
	assert.Equal([]float32{0.5, 0.5}, knn["vector"])
	assert.Equal(10, knn["k"])
}

func TestCosineFromScore(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(1.0, cosineFromScore(1.0), 1e-6)
	assert.InDelta(0.0, cosineFromScore(0.5), 1e-6)
	assert.InDelta(-1.0, cosineFromScore(0.0), 1e-6)
}

func TestDecodeSource(t *testing.T) {
	assert := assert.New(t)

	source := json.RawMessage(`{"profile_id":"p1","payload":{"profile_id":"p1","full_name":"Amina"}}`)

	payload, err := decodeSource(source)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("p1", payload["profile_id"])
	assert.Equal("Amina", payload["full_name"])

	empty, err := decodeSource(json.RawMessage(`{"profile_id":"p2"}`))
	assert.NoError(err)
	assert.NotNil(empty)
	assert.Empty(empty)
}
