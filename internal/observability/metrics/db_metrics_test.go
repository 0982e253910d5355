package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreCollectorMetrics(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newStoreCollector(nil, nil)
	c.now = func() time.Time { return now }

	got := c.metrics([]machineStat{
		{machine: "extruder-80a", samples: 1440, latest: now.Add(-90 * time.Second)},
		{machine: "extruder-90b", samples: 3, latest: now.Add(time.Minute)},
	})
	if len(got) != 4 {
		t.Fatalf("expected 4 metrics, got %d", len(got))
	}

	values := map[string]float64{}
	for _, m := range got {
		var out dto.Metric
		if err := m.Write(&out); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		name := "age"
		if strings.Contains(m.Desc().String(), "stored_samples") {
			name = "samples"
		}
		values[name+"/"+out.GetLabel()[0].GetValue()] = out.GetGauge().GetValue()
	}
	if values["samples/extruder-80a"] != 1440 || values["age/extruder-80a"] != 90 {
		t.Fatalf("unexpected values: %v", values)
	}
	if values["age/extruder-90b"] != 0 {
		t.Fatalf("expected future sample age clamped to 0, got %v", values["age/extruder-90b"])
	}
}

func TestStoreCollectorWithoutDB(t *testing.T) {
	c := newStoreCollector(nil, nil)
	ch := make(chan prometheus.Metric, 4)
	c.Collect(ch)
	close(ch)
	if n := len(ch); n != 0 {
		t.Fatalf("expected no metrics without a database, got %d", n)
	}
}
