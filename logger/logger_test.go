package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConsoleOnly(t *testing.T) {
	assert := assert.New(t)

	log, err := New(Config{Level: "info"})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.False(log.Core().Enabled(-1), "debug is below info")
	assert.True(log.Core().Enabled(0))
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewRotatingFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	log, err := New(Config{
		Level:        "debug",
		Path:         dir,
		Pattern:      "test.log",
		RotationTime: time.Hour,
		MaxAge:       24 * time.Hour,
	})

	if err != nil {
		assert.Fail(err.Error())
		return
	}

	log.Info("profile added")
	log.Sync()

	bs, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Contains(string(bs), `"msg":"profile added"`)
}
