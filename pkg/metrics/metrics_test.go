package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func TestLedgerMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)
	m.ObserveOperation("add", nil)
	m.ObserveOperation("add", errors.New("boom"))
	m.StockReserved(3)
	m.StockRestored(1)
	m.StockRestored(0)
	m.CheckoutCompleted(decimal.RequireFromString("100.00"), decimal.RequireFromString("5.00"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_operations_total", map[string]string{"operation": "add", "outcome": OutcomeSuccess}); err != nil || got != 1 {
		t.Fatalf("expected add success=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "cart_operations_total", map[string]string{"operation": "add", "outcome": OutcomeError}); err != nil || got != 1 {
		t.Fatalf("expected add error=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "cart_stock_units_total", map[string]string{"direction": "reserved"}); err != nil || got != 3 {
		t.Fatalf("expected reserved=3, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "cart_stock_units_total", map[string]string{"direction": "restored"}); err != nil || got != 1 {
		t.Fatalf("expected restored=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_cashback_total", nil); err != nil || got != 5 {
		t.Fatalf("expected cashback=5, got %f (%v)", got, err)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("POST", "/api/v1/checkout", 200, 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	labels := map[string]string{"method": "POST", "route": "/api/v1/checkout", "status": "200"}
	if got, err := fetchCounterValue(mfs, "http_requests_total", labels); err != nil || got != 1 {
		t.Fatalf("expected 1 request, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", map[string]string{"route": "/api/v1/checkout"}); err != nil || got <= 0 {
		t.Fatalf("expected positive latency sum, got %f (%v)", got, err)
	}
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("checkout_completed")
	m.IncFailed("checkout_completed")
	m.IncTerminal("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_terminal_total", map[string]string{"event_type": "unknown"}); err != nil || got != 1 {
		t.Fatalf("expected terminal=1, got %f (%v)", got, err)
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var ledger *LedgerMetrics
	ledger.ObserveOperation("add", nil)
	ledger.CheckoutCompleted(decimal.Zero, decimal.Zero)
	NewLedgerMetrics(nil).StockReserved(1)

	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("GET", "/", 200, time.Millisecond)

	var outbox *OutboxMetrics
	outbox.IncPublished("x")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == name && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("cashback-expiry", 40*time.Millisecond, nil)
	m.ObserveRun("cashback-expiry", 10*time.Millisecond, errors.New("boom"))
	m.RowsAffected("cashback-expiry", 4)
	m.RowsAffected("cashback-expiry", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", map[string]string{"job": "cashback-expiry", "outcome": OutcomeError}); err != nil || got != 1 {
		t.Fatalf("expected error run=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "cron_job_rows_affected_total", map[string]string{"job": "cashback-expiry"}); err != nil || got != 4 {
		t.Fatalf("expected rows=4, got %f (%v)", got, err)
	}
}
