package valkey

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/samirrijal/looopone/internal/pkg/metrics"
)

func TestKeyspace(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"dashboard:stats", "dashboard"},
		{"balcova_boundary_polygon", "balcova_boundary_polygon"},
		{"a:b:c", "a"},
		{":leading", ":leading"},
	}
	for _, tt := range tests {
		if got := keyspace(tt.key); got != tt.want {
			t.Errorf("keyspace(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestWithPrefix(t *testing.T) {
	c := &Cache{prefix: DefaultPrefix}
	WithPrefix("")(c)
	if c.prefix != DefaultPrefix {
		t.Errorf("empty prefix should keep the default, got %q", c.prefix)
	}
	WithPrefix("karsiyaka:")(c)
	if c.prefix != "karsiyaka:" {
		t.Errorf("got %q", c.prefix)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveCountsByKeyspace(t *testing.T) {
	hits := metrics.SharedCacheOps.WithLabelValues("dashboard", "get", "hit")
	before := counterValue(t, hits)

	observe("dashboard:stats", "get", "hit")
	observe("dashboard:other", "get", "hit")

	if got := counterValue(t, hits) - before; got != 2 {
		t.Errorf("expected 2 dashboard hits, got %v", got)
	}
}
