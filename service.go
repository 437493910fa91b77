package nafee3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/nafee3/nafee3/embedding"
	"github.com/nafee3/nafee3/vector"
)

// Service defines the profile operations of nafee3.
type Service interface {

	// Close releases the vector store and embedding resources.
	Close() error

	// GetProfile returns the stored profile or ErrProfileNotFound.
	GetProfile(ctx context.Context, id string) (*Profile, error)

	// SearchProfiles ranks profiles by similarity of their service description
	// to the query. Store failures yield an empty result, not an error.
	SearchProfiles(ctx context.Context, query SearchQuery) ([]SearchResult, error)

	// AddProfile stores a new profile under a server generated id.
	AddProfile(ctx context.Context, profile Profile) (string, error)

	// UpdateProfile replaces payload and vector of an existing profile.
	UpdateProfile(ctx context.Context, profile Profile) error

	// DeleteProfile removes a profile by id.
	DeleteProfile(ctx context.Context, id string) error

	// LoadProfiles ingests a JSON array of profile records from source.
	LoadProfiles(ctx context.Context, source string) (*LoadSummary, error)
}

type ServiceMiddleware func(Service) Service

type ServiceOption func(*service)

// WithIdentifierPolicy replaces the random UUID policy.
func WithIdentifierPolicy(policy IdentifierPolicy) ServiceOption {
	return func(svc *service) {
		svc.policy = policy
	}
}

// NewService opens the profile collection and wires the record store, search
// engine and loader. The service takes ownership of db and embedder.
func NewService(ctx context.Context, cfg Config, db vector.VectorDB, embedder embedding.Embedder, opts ...ServiceOption) (Service, error) {
	log := zap.L().With(
		zap.String("service", "nafee3"),
	)

	collection, err := db.Collection(ctx, vector.CollectionConfig{
		Name:       cfg.Collection,
		Dimension:  embedder.Dimension(),
		VectorName: VectorName,
		IDField:    IDField,
	})

	if err != nil {
		return nil, fmt.Errorf("%w: open collection %s: %w", ErrStartup, cfg.Collection, err)
	}

	svc := &service{
		db:       db,
		embedder: embedder,
		policy:   RandomIdentifierPolicy(),
		cfg:      cfg,
		log:      log,
	}

	for _, opt := range opts {
		opt(svc)
	}

	svc.store = NewRecordStore(collection, embedder)
	svc.search = NewSearchEngine(collection, embedder)
	svc.loader = NewLoader(svc.store, svc.policy, cfg.Loader)

	log.Info("collection ready",
		zap.String("collection", cfg.Collection),
		zap.Int("dimension", embedder.Dimension()),
	)

	return svc, nil
}

type service struct {
	db       vector.VectorDB
	embedder embedding.Embedder
	policy   IdentifierPolicy

	store  *RecordStore
	search *SearchEngine
	loader *Loader

	cfg Config
	log *zap.Logger
}

func (svc *service) Close() error {
	var errs []error

	if closer, ok := svc.embedder.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}

	errs = append(errs, svc.db.Close())

	return errors.Join(errs...)
}

func (svc *service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	if !svc.policy.Valid(id) {
		return nil, ErrProfileNotFound
	}

	payload, err := svc.store.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	profile, err := ProfileFromPayload(payload)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (svc *service) SearchProfiles(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	threshold := svc.cfg.Search.Threshold
	if query.SimThreshold != nil {
		threshold = *query.SimThreshold
	}

	topK := query.TopK
	if topK <= 0 {
		topK = svc.cfg.Search.TopK
	}

	candidates := svc.search.Search(ctx, query.Query, threshold, topK)

	results := make([]SearchResult, 0, len(candidates))
	for _, candidate := range candidates {
		profile, err := ProfileFromPayload(candidate.Payload)
		if err != nil {
			svc.log.Warn(err.Error(), zap.String("action", "search_profiles"))
			continue
		}

		if !matchFilter(query.SearchCity, profile.ServiceCity) ||
			!matchFilter(query.SearchArea, profile.ServiceArea) {
			continue
		}

		results = append(results, SearchResult{
			Profile:    profile,
			Similarity: candidate.Score,
		})
	}

	return results, nil
}

func matchFilter(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}

	return strings.EqualFold(filter, strings.TrimSpace(value))
}

func (svc *service) AddProfile(ctx context.Context, profile Profile) (string, error) {
	id := svc.policy.NewID()
	profile.ProfileID = id

	payload, err := profile.Payload()
	if err != nil {
		return "", err
	}

	if err := svc.store.Insert(ctx, id, payload, profile.ServiceDescription); err != nil {
		return id, err
	}

	return id, nil
}

func (svc *service) UpdateProfile(ctx context.Context, profile Profile) error {
	if profile.ProfileID == "" {
		return fmt.Errorf("%w: profile_id is required", ErrInvalidRequest)
	}

	if !svc.policy.Valid(profile.ProfileID) {
		return ErrProfileNotFound
	}

	payload, err := profile.Payload()
	if err != nil {
		return err
	}

	return svc.store.Replace(ctx, profile.ProfileID, payload, profile.ServiceDescription)
}

func (svc *service) DeleteProfile(ctx context.Context, id string) error {
	if !svc.policy.Valid(id) {
		return ErrProfileNotFound
	}

	return svc.store.Delete(ctx, id)
}

func (svc *service) LoadProfiles(ctx context.Context, source string) (*LoadSummary, error) {
	return svc.loader.Load(ctx, source)
}
