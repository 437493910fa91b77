package nafee3

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "nafee3"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) GetProfile(ctx context.Context, id string) (*Profile, error) {
	log := mw.log.With(
		zap.String("action", "get_profile"),
		zap.String("profile_id", id),
	)

	profile, err := mw.next.GetProfile(ctx, id)
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Info("profile retrieved")
	return profile, nil
}

func (mw *loggingMiddleware) SearchProfiles(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	log := mw.log.With(
		zap.String("action", "search_profiles"),
		zap.String("query", query.Query),
	)

	if query.SearchCity != "" {
		log = log.With(zap.String("city", query.SearchCity))
	}

	if query.SearchArea != "" {
		log = log.With(zap.String("area", query.SearchArea))
	}

	results, err := mw.next.SearchProfiles(ctx, query)
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Info("profiles searched", zap.Int("count", len(results)))
	return results, nil
}

func (mw *loggingMiddleware) AddProfile(ctx context.Context, profile Profile) (string, error) {
	log := mw.log.With(
		zap.String("action", "add_profile"),
	)

	id, err := mw.next.AddProfile(ctx, profile)
	if err != nil {
		logFailure(log, err, zap.String("profile_id", id))
		return id, err
	}

	log.Info("profile added", zap.String("profile_id", id))
	return id, nil
}

func (mw *loggingMiddleware) UpdateProfile(ctx context.Context, profile Profile) error {
	log := mw.log.With(
		zap.String("action", "update_profile"),
		zap.String("profile_id", profile.ProfileID),
	)

	err := mw.next.UpdateProfile(ctx, profile)
	if err != nil {
		logFailure(log, err)
		return err
	}

	log.Info("profile updated")
	return nil
}

func (mw *loggingMiddleware) DeleteProfile(ctx context.Context, id string) error {
	log := mw.log.With(
		zap.String("action", "delete_profile"),
		zap.String("profile_id", id),
	)

	err := mw.next.DeleteProfile(ctx, id)
	if err != nil {
		logFailure(log, err)
		return err
	}

	log.Info("profile deleted")
	return nil
}

func (mw *loggingMiddleware) LoadProfiles(ctx context.Context, source string) (*LoadSummary, error) {
	log := mw.log.With(
		zap.String("action", "load_profiles"),
		zap.String("source", source),
	)

	summary, err := mw.next.LoadProfiles(ctx, source)
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Info("profiles loaded",
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

// logFailure logs modelled outcomes such as a missing profile at warn level.
func logFailure(log *zap.Logger, err error, fields ...zap.Field) {
	switch {
	case errors.Is(err, ErrProfileNotFound),
		errors.Is(err, ErrProfileConflict),
		errors.Is(err, ErrInvalidRequest):
		log.Warn(err.Error(), fields...)

	default:
		log.Error(err.Error(), fields...)
	}
}
