package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/token"
)

func TestNilRegistryIsNoOp(t *testing.T) {
	var r *Registry
	r.ObservePhase("phase", 1.0)
	r.SyncSink("mod", diag.NewSink())
}

func TestSyncSinkMirrorsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	sink := diag.NewSink()
	sink.ReportError("E1", token.Pos{}, "boom")
	sink.ReportWarning("W1", token.Pos{}, "meh")
	r.SyncSink("mymodule", sink)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() == "mymodule" {
					found[mf.GetName()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if found["scriptc_compile_errors_total"] != 1 {
		t.Errorf("errors_total = %v, want 1", found["scriptc_compile_errors_total"])
	}
	if found["scriptc_compile_warnings_total"] != 1 {
		t.Errorf("warnings_total = %v, want 1", found["scriptc_compile_warnings_total"])
	}
}

func TestObservePhaseRecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	r.ObservePhase("filebuild.parse", 0.5)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var histo *dto.Histogram
	for _, mf := range mfs {
		if mf.GetName() != "scriptc_compile_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			histo = m.GetHistogram()
		}
	}
	if histo == nil || histo.GetSampleCount() != 1 {
		t.Fatalf("expected one observed sample, got %v", histo)
	}
}
