package nafee3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadRecord is one entry of a bulk load source. Besides the profile fields
// it accepts the field names of the legacy worker data set.
type LoadRecord struct {
	Profile

	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

func (r LoadRecord) ToProfile() Profile {
	p := r.Profile
	p.ProfileID = ""

	if p.FullName == "" {
		p.FullName = r.Name
	}

	if p.ServiceCity == "" {
		p.ServiceCity = r.Location
	}

	return p
}

// Loader ingests profiles in bulk through RecordStore.Insert. Record failures
// are logged and counted, never fatal to the batch.
type Loader struct {
	store  *RecordStore
	policy IdentifierPolicy
	fs     afs.Service
	cfg    LoaderConfig
	log    *zap.Logger
}

func NewLoader(store *RecordStore, policy IdentifierPolicy, cfg LoaderConfig) *Loader {
	return &Loader{
		store:  store,
		policy: policy,
		fs:     afs.New(),
		cfg:    cfg,
		log: zap.L().With(
			zap.String("service", "loader"),
		),
	}
}

// Load reads a JSON array of records from source, any URL afs understands.
// An empty source falls back to LoaderConfig.Source.
//
// With random ids, loading the same source twice stores every record twice.
// LoaderConfig.Dedup derives ids from record content instead, so a repeated
// load skips records that are already present.
func (l *Loader) Load(ctx context.Context, source string) (*LoadSummary, error) {
	if source == "" {
		source = l.cfg.Source
	}

	log := l.log.With(
		zap.String("action", "load"),
		zap.String("source", source),
	)

	if source == "" {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidRequest)
	}

	data, err := l.fs.DownloadWithURL(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", source, err)
	}

	var records []LoadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	summary := &LoadSummary{
		Source: source,
		Total:  len(records),
	}

	var mu sync.Mutex
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	concurrency := l.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, record := range records {
		g.Go(func() error {
			log := log.With(zap.Int("index", i))

			id, err := l.insert(ctx, record)
			switch {
			case err == nil:
				count(&summary.Inserted)

			case errors.Is(err, ErrProfileConflict):
				log.Warn(err.Error(), zap.String("profile_id", id))
				count(&summary.Skipped)

			default:
				log.Error(err.Error())
				count(&summary.Failed)
			}

			return nil
		})
	}

	g.Wait()

	log.Info("profiles loaded",
		zap.Int("total", summary.Total),
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

func (l *Loader) insert(ctx context.Context, record LoadRecord) (string, error) {
	profile := record.ToProfile()

	id := l.policy.NewID()
	if l.cfg.Dedup {
		derived, err := DeterministicID(profile)
		if err != nil {
			return "", err
		}

		id = derived
	}

	profile.ProfileID = id

	payload, err := profile.Payload()
	if err != nil {
		return id, err
	}

	return id, l.store.Insert(ctx, id, payload, profile.ServiceDescription)
}
