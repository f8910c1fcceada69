package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(runsTotal.WithLabelValues(ResultInvalid))
	ObserveRun(ResultInvalid, 10*time.Millisecond)
	if got := testutil.ToFloat64(runsTotal.WithLabelValues(ResultInvalid)); got != before+1 {
		t.Fatalf("expected %v invalid runs, got %v", before+1, got)
	}
}

func TestAddCoercedCells(t *testing.T) {
	Init()

	before := testutil.ToFloat64(coercedCell.WithLabelValues("IEX"))
	AddCoercedCells("IEX", 3)
	AddCoercedCells("IEX", 0)
	if got := testutil.ToFloat64(coercedCell.WithLabelValues("IEX")); got != before+3 {
		t.Fatalf("expected %v coerced cells, got %v", before+3, got)
	}
}

func TestObserveStatementExport_DefaultsLabels(t *testing.T) {
	Init()

	before := testutil.ToFloat64(statementExportTotal.WithLabelValues("unknown", ResultSuccess))
	ObserveStatementExport("", "", time.Millisecond)
	if got := testutil.ToFloat64(statementExportTotal.WithLabelValues("unknown", ResultSuccess)); got != before+1 {
		t.Fatalf("expected default labels to be counted, got %v", got)
	}
}
