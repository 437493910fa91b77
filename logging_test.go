package nafee3

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddlewareLevels(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		err   error
		level zapcore.Level
	}{
		{"not found", ErrProfileNotFound, zapcore.WarnLevel},
		{"conflict", ErrProfileConflict, zapcore.WarnLevel},
		{"invalid request", ErrInvalidRequest, zapcore.WarnLevel},
		{"store failure", fmt.Errorf("%w: connection refused", ErrStore), zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		svc := LoggingMiddleware(zap.New(core))(erroringService{err: tt.err})

		_, err := svc.GetProfile(ctx, "p1")
		assert.ErrorIs(err, tt.err, tt.name)

		entries := logs.FilterMessage(tt.err.Error()).All()
		if assert.Len(entries, 1, tt.name) {
			assert.Equal(tt.level, entries[0].Level, tt.name)
			assert.Equal("get_profile", entries[0].ContextMap()["action"], tt.name)
		}
	}
}

func TestLoggingMiddlewareSuccess(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	next, err := newTestService(ctx, DefaultConfig())
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	core, logs := observer.New(zapcore.InfoLevel)
	svc := LoggingMiddleware(zap.New(core))(next)
	defer svc.Close()

	id, err := svc.AddProfile(ctx, Profile{ServiceDescription: "home cleaning"})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	entries := logs.FilterMessage("profile added").All()
	if assert.Len(entries, 1) {
		assert.Equal(zapcore.InfoLevel, entries[0].Level)
		assert.Equal(id, entries[0].ContextMap()["profile_id"])
	}

	_, err = svc.GetProfile(ctx, "not-a-uuid")
	assert.ErrorIs(err, ErrProfileNotFound)
	assert.Zero(logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
