package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("development uses text at debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("dev", "metafields"))
		log.Debug("visible")

		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "service=metafields")
		assert.Contains(t, out, "env=development")
	})

	t.Run("config overrides", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithConfig(logger.Config{
			Env:     "production",
			Service: "metafield-worker",
			Level:   "warn",
		}))
		log.Info("dropped")
		assert.Empty(t, buf.String())

		log.Warn("kept")
		entry := decode(t, buf)
		assert.Equal(t, "production", entry["env"])
		assert.Equal(t, "metafield-worker", entry["service"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})
}

func TestStoreIDExtractor(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(logger.StoreIDExtractor))

	ctx := logger.WithStoreID(context.Background(), "store-1")
	log.InfoContext(ctx, "saved", logger.DefinitionID(7), logger.OwnerResource("product"))

	entry := decode(t, buf)
	assert.Equal(t, "store-1", entry["store_id"])
	assert.Equal(t, float64(7), entry["definition_id"])
	assert.Equal(t, "product", entry["owner_resource"])

	buf.Reset()
	log.InfoContext(context.Background(), "no store")
	assert.NotContains(t, decode(t, buf), "store_id")
}

func TestAttrs(t *testing.T) {
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.StoreID(nil).Equal(slog.Attr{}))
	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))

	err1, err2 := errors.New("first"), errors.New("second")
	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "0", g[0].Key)
	assert.Equal(t, "2", g[1].Key)

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}
