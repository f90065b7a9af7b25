package camunda

import (
	"errors"
	"testing"
	"time"

	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument_CountsOutcomes(t *testing.T) {
	const taskType = "instrument-test"

	calls := 0
	ok := Instrument(taskType, nil, func(worker.JobClient, entities.Job) error {
		calls++
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
		return nil
	})
	failing := Instrument(taskType, nil, func(worker.JobClient, entities.Job) error {
		calls++
		return apperrors.NewContractorNotFoundError("c-1")
	})

	ok(nil, entities.Job{})
	ok(nil, entities.Job{})
	failing(nil, entities.Job{})

	assert.Equal(t, 3, calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.ErrCodeContractorNotFound))))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{MaxRetries: 10, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 10*time.Second, backoff(rc, 4))
	assert.Equal(t, 10*time.Second, backoff(rc, 80), "overflow caps at MaxDelay")
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(errors.New("rpc error: code = PermissionDenied")))
}

func TestStopNilWorker(t *testing.T) {
	var w *CamundaWorker
	assert.NotPanics(t, w.Stop)
}
