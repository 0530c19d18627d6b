package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPipelineMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPipelineMetrics(reg)
	dataset := "online-casino"
	metrics.IncFetch(dataset)
	metrics.IncCacheHit(dataset)
	metrics.AddRowsDropped(dataset, 3)
	metrics.ObserveQueryDuration("retention", 120*time.Millisecond)
	metrics.IncQueryFailure("retention")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "dataset_fetch_total", "dataset", dataset); err != nil {
		t.Fatalf("fetch total: %v", err)
	} else if got != 1 {
		t.Fatalf("expected fetch_total=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "normalize_rows_dropped", "dataset", dataset); err != nil {
		t.Fatalf("rows dropped: %v", err)
	} else if got != 3 {
		t.Fatalf("expected rows_dropped=3, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "analytics_query_duration_seconds", "metric", "retention"); err != nil {
		t.Fatalf("query duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "analytics_query_failure", "metric", "retention"); err != nil {
		t.Fatalf("query failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected query_failure=1, got %f", got)
	}
}

func TestPipelineMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewPipelineMetrics(nil)
	metrics.IncFetch("x")
	metrics.AddRowsDropped("x", 10)
	metrics.ObserveQueryDuration("y", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
