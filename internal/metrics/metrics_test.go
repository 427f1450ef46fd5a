package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRows(t *testing.T) {
	before := testutil.ToFloat64(RowsWritten.WithLabelValues("test", "inserted"))

	RecordRows("test", 3, 2, 1)

	tests := []struct {
		outcome string
		want    float64
	}{
		{"inserted", before + 3},
		{"skipped", 2},
		{"failed", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(RowsWritten.WithLabelValues("test", tt.outcome))
		if got != tt.want {
			t.Errorf("Expected %s=%v, got %v", tt.outcome, tt.want, got)
		}
	}
}

func TestRunInProgress(t *testing.T) {
	RunInProgress.Set(1)
	if got := testutil.ToFloat64(RunInProgress); got != 1 {
		t.Errorf("Expected 1, got %v", got)
	}
	RunInProgress.Set(0)
	if got := testutil.ToFloat64(RunInProgress); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
}
