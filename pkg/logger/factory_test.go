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

	"github.com/dmitrymomot/fleetkit/pkg/logger"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.Info("pool connected", slog.String("component", "pg"))

		record := decodeRecord(t, &buf)
		assert.Equal(t, "pool connected", record["msg"])
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "pg", record["component"])
	})

	t.Run("static attrs on every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "fleetkit")),
		)
		log.Info("ready")

		assert.Equal(t, "fleetkit", decodeRecord(t, &buf)["service"])
	})

	t.Run("level filters below threshold", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.NotZero(t, buf.Len())
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics at startup", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat("yaml"))
		})
	})

	t.Run("production preset", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("fleetkit"), logger.WithOutput(&buf))
		log.Debug("hidden")
		assert.Zero(t, buf.Len())

		log.Info("visible")
		record := decodeRecord(t, &buf)
		assert.Equal(t, "fleetkit", record["service"])
		assert.Equal(t, "production", record["env"])
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	type requestKey struct{}

	extractor := func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(requestKey{}).(string); ok {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(extractor, nil),
	)

	t.Run("attr extracted from context", func(t *testing.T) {
		buf.Reset()
		ctx := context.WithValue(context.Background(), requestKey{}, "req-42")
		log.InfoContext(ctx, "scoped")

		assert.Equal(t, "req-42", decodeRecord(t, &buf)["request_id"])
	})

	t.Run("absent value stays silent", func(t *testing.T) {
		buf.Reset()
		log.InfoContext(context.Background(), "unscoped")

		_, present := decodeRecord(t, &buf)["request_id"]
		assert.False(t, present)
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	t.Run("error attr", func(t *testing.T) {
		t.Parallel()

		attr := logger.Error(errors.New("checkout failed"))
		assert.Equal(t, "error", attr.Key)

		assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	})

	t.Run("domain attrs carry stable keys", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "tenant_id", logger.TenantID("t").Key)
		assert.Equal(t, "entity", logger.Entity("vehicles").Key)
		assert.Equal(t, "operation", logger.Operation("find-many").Key)
		assert.Equal(t, "component", logger.Component("tenantdb").Key)
		assert.Equal(t, "cache_size", logger.CacheSize(100).Key)
	})
}
