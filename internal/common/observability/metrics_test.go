package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopIsSafe(t *testing.T) {
	ctx := context.Background()

	var nilObs *Observability
	assert.NotPanics(t, func() {
		nilObs.RecordJob(ctx, "compute-readiness", "completed", time.Second)
		nilObs.RecordSubmissionStep(ctx, "finalize", "ok")
		nilObs.RecordReadiness(ctx, true)
		_ = nilObs.Shutdown(ctx)
	})

	o := NewNoop()
	assert.NotPanics(t, func() {
		o.RecordJob(ctx, "compute-readiness", "failed", time.Millisecond)
		o.RecordReadiness(ctx, false)
	})
	assert.NoError(t, o.Shutdown(ctx))
}
