package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTracker_RecordRequestIncrementsCounter(t *testing.T) {
	tr := NewTracker()
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("success"))
	tr.RecordRequest("success")
	after := testutil.ToFloat64(requestsTotal.WithLabelValues("success"))
	assert.Equal(t, before+1, after)
}

func TestTracker_RecordTokensSkipsNonPositive(t *testing.T) {
	tr := NewTracker()
	before := testutil.ToFloat64(tokensTotal.WithLabelValues("final", "prompt"))
	tr.RecordTokens("final", "prompt", 0)
	after := testutil.ToFloat64(tokensTotal.WithLabelValues("final", "prompt"))
	assert.Equal(t, before, after)
}

func TestTracker_RecordGatedStageFired(t *testing.T) {
	tr := NewTracker()
	before := testutil.ToFloat64(gatedStageFired.WithLabelValues("identity_booster"))
	tr.RecordGatedStageFired("identity_booster")
	after := testutil.ToFloat64(gatedStageFired.WithLabelValues("identity_booster"))
	assert.Equal(t, before+1, after)
}
