package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/nafee3/nafee3/vector"
)

func NewQdrantVectorDB(cfg vector.QdrantConfig) (vector.VectorDB, error) {
	port := cfg.Port
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})

	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	return &qdrantVectorDB{client}, nil
}

type qdrantVectorDB struct {
	client *qdrant.Client
}

func (db *qdrantVectorDB) Collection(ctx context.Context, cfg vector.CollectionConfig) (vector.Collection, error) {
	exists, err := db.client.CollectionExists(ctx, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("qdrant collection exists: %w", err)
	}

	if !exists {
		err := db.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.Name,
			VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
				cfg.VectorName: {
					Size:     uint64(cfg.Dimension),
					Distance: qdrant.Distance_Cosine,
					Datatype: qdrant.Datatype_Float16.Enum(),
				},
			}),
		})

		if err != nil {
			return nil, fmt.Errorf("qdrant create collection: %w", err)
		}

		_, err = db.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: cfg.Name,
			FieldName:      cfg.IDField,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})

		if err != nil {
			return nil, fmt.Errorf("qdrant create field index: %w", err)
		}
	}

	return &collection{db.client, cfg}, nil
}

func (db *qdrantVectorDB) Close() error {
	return db.client.Close()
}

type collection struct {
	client *qdrant.Client
	cfg    vector.CollectionConfig
}

func (c *collection) Exists(ctx context.Context, id string) (bool, error) {
	count, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.cfg.Name,
		Filter:         c.idFilter(id),
		Exact:          qdrant.PtrOf(true),
	})

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (c *collection) Upsert(ctx context.Context, point vector.Point) error {
	if err := vector.CheckDimension(point.Vector, c.cfg.Dimension); err != nil {
		return err
	}

	payload, err := qdrant.TryValueMap(point.Payload)
	if err != nil {
		return err
	}

	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.cfg.Name,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id: qdrant.NewID(point.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					c.cfg.VectorName: qdrant.NewVector(point.Vector...),
				}),
				Payload: payload,
			},
		},
	})

	return err
}

func (c *collection) Get(ctx context.Context, id string) (vector.Point, error) {
	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.cfg.Name,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		return vector.Point{}, err
	}

	if len(points) == 0 {
		return vector.Point{}, vector.ErrPointNotFound
	}

	return vector.Point{
		ID:      points[0].GetId().GetUuid(),
		Payload: payloadToMap(points[0].GetPayload()),
	}, nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.cfg.Name,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})

	return err
}

func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]vector.ScoredPoint, error) {
	if err := vector.CheckDimension(embedding, c.cfg.Dimension); err != nil {
		return nil, err
	}

	if k <= 0 {
		return []vector.ScoredPoint{}, nil
	}

	results, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.cfg.Name,
		Query:          qdrant.NewQuery(embedding...),
		Using:          qdrant.PtrOf(c.cfg.VectorName),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		return nil, err
	}

	points := make([]vector.ScoredPoint, len(results))
	for i, result := range results {
		points[i] = vector.ScoredPoint{
			Point: vector.Point{
				ID:      result.GetId().GetUuid(),
				Payload: payloadToMap(result.GetPayload()),
			},
			Score: result.GetScore(),
		}
	}

	return points, nil
}

func (c *collection) idFilter(id string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(c.cfg.IDField, id),
		},
	}
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	m := make(map[string]any, len(payload))
	for key, value := range payload {
		m[key] = valueToAny(value)
	}

	return m
}

func valueToAny(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return kind.BoolValue

	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue

	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue

	case *qdrant.Value_StringValue:
		return kind.StringValue

	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()

		list := make([]any, len(values))
		for i, v := range values {
			list[i] = valueToAny(v)
		}

		return list

	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())

	default:
		return nil
	}
}
