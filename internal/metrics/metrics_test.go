package metrics

import "testing"

type captureBackend struct {
	counters   map[string]float64
	histograms map[string][]float64
	flushed    int
}

func (c *captureBackend) IncCounter(name string, delta float64, _ Labels) {
	c.counters[name] += delta
}

func (c *captureBackend) ObserveHistogram(name string, value float64, _ Labels) {
	c.histograms[name] = append(c.histograms[name], value)
}

func (c *captureBackend) Flush() error {
	c.flushed++
	return nil
}

func TestFacadeRoutesToInstalledBackend(t *testing.T) {
	cap := &captureBackend{counters: map[string]float64{}, histograms: map[string][]float64{}}
	SetBackend(cap)
	defer SetBackend(nil)

	IncCounter("ingest_rows_total", 3, Labels{"kind": "inserted"})
	ObserveHistogram("ingest_step_duration_seconds", 0.5, Labels{"step": "sink"})

	if cap.counters["ingest_rows_total"] != 3 {
		t.Fatalf("counter=%v", cap.counters)
	}
	if len(cap.histograms["ingest_step_duration_seconds"]) != 1 {
		t.Fatalf("histograms=%v", cap.histograms)
	}
}

func TestFlushReachesFlusherBackends(t *testing.T) {
	cap := &captureBackend{counters: map[string]float64{}, histograms: map[string][]float64{}}
	SetBackend(cap)
	defer SetBackend(nil)

	if err := Flush(); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}
	if cap.flushed != 1 {
		t.Fatalf("flushed=%d, want 1", cap.flushed)
	}
}

func TestNopDefaultNeverPanics(t *testing.T) {
	SetBackend(nil)
	IncCounter("anything", 1, nil)
	ObserveHistogram("anything", 1, nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}
}
