package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.PageFault("minor")
	r.Eviction("nfua")
	r.SwapRead()
	r.SwapWrite()
	r.ResidentDelta(1)
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.PageFault("minor")
	r.PageFault("minor")
	r.Eviction("scfifo")
	r.SwapRead()
	r.ResidentDelta(3)

	m := &dto.Metric{}
	if err := r.PageFaults.WithLabelValues("minor").Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Fatalf("PageFaults[minor] = %v, want 2", got)
	}

	m2 := &dto.Metric{}
	if err := r.ResidentPages.Write(m2); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m2.GetGauge().GetValue(); got != 3 {
		t.Fatalf("ResidentPages = %v, want 3", got)
	}
}
