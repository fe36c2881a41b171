package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(frameBytes.WithLabelValues(DirectionEncode))
	RecordFrame(DirectionEncode, 120)
	RecordFrame(DirectionEncode, 80)
	RecordFrameError(DirectionDecode, "checksum")

	if got := testutil.ToFloat64(frameBytes.WithLabelValues(DirectionEncode)) - before; got != 200 {
		t.Fatalf("encode bytes delta=%v", got)
	}
	if got := testutil.ToFloat64(frameErrors.WithLabelValues(DirectionDecode, "checksum")); got < 1 {
		t.Fatalf("expected checksum error recorded, got %v", got)
	}

	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}
