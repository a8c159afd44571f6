package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"movie-dropoff/internal/common/logger"
)

func TestObservability_NilIsNoOp(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJob(ctx, "survey-submit", "completed", time.Second)
		o.RecordEnriched(ctx, "tmdb", 3)
	})
	assert.NoError(t, o.Shutdown(ctx))
}

func TestObservability_RecordAndShutdown(t *testing.T) {
	o := New("movie-dropoff-test", logger.NewTestLogger(t))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJob(ctx, "catalog-browse", "completed", 20*time.Millisecond)
		o.RecordEnriched(ctx, "service", 0)
		o.RecordEnriched(ctx, "service", 4)
	})
	assert.NoError(t, o.Shutdown(ctx))
}
