package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "user_rejected", Result(errors.NewUserRejectedError("uploadFile", nil)))
	assert.Equal(t, "internal", Result(fmt.Errorf("boom")))
}

func TestContractCallCounts(t *testing.T) {
	before := testutil.ToFloat64(contractCalls.WithLabelValues("verifyFile", "ok"))
	ContractCall("verifyFile", time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(contractCalls.WithLabelValues("verifyFile", "ok")))
}

func TestSessionGauge(t *testing.T) {
	SessionConnected(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(sessionConnected))
	SessionConnected(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(sessionConnected))
}

func TestSessionTransitionCounts(t *testing.T) {
	before := testutil.ToFloat64(sessionTransitions.WithLabelValues("connecting"))
	SessionTransition("connecting")
	assert.Equal(t, before+1, testutil.ToFloat64(sessionTransitions.WithLabelValues("connecting")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	WorkflowOp("store", nil)
	BytesHashed(5)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "filevault_workflow_operations_total")
	assert.Contains(t, string(body), "filevault_hash_bytes_total")
}
