package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetricsWithRegisterer(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newOrderMetricsWithRegisterer should not return nil")
	}
	if metrics.itemsAdded == nil {
		t.Error("itemsAdded counter should not be nil")
	}
	if metrics.checkouts == nil {
		t.Error("checkouts counter should not be nil")
	}
	if metrics.paymentsSucceeded == nil {
		t.Error("paymentsSucceeded counter should not be nil")
	}
	if metrics.paymentsFailed == nil {
		t.Error("paymentsFailed counter should not be nil")
	}
	if metrics.stockConflicts == nil {
		t.Error("stockConflicts counter should not be nil")
	}
	if metrics.operationDuration == nil {
		t.Error("operationDuration histogram vec should not be nil")
	}
	if metrics.timelineEvents == nil {
		t.Error("timelineEvents counter should not be nil")
	}
	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}
	if metrics.activeCarts == nil {
		t.Error("activeCarts gauge should not be nil")
	}
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(reg)
	second := newOrderMetricsWithRegisterer(reg)

	first.RecordCheckout()
	second.RecordCheckout()

	metric := &dto.Metric{}
	if err := first.checkouts.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordCartLifecycleCounters(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.CartOpened()
	metrics.RecordItemAdded()
	metrics.RecordItemAdded()
	metrics.RecordCheckout()
	metrics.RecordPaymentSucceeded()
	metrics.CartClosed()

	counterValue := func(c prometheus.Counter) float64 {
		metric := &dto.Metric{}
		if err := c.Write(metric); err != nil {
			t.Fatalf("failed to write metric: %v", err)
		}
		return metric.Counter.GetValue()
	}

	if got := counterValue(metrics.itemsAdded); got != 2.0 {
		t.Errorf("expected 2 items added, got %f", got)
	}
	if got := counterValue(metrics.checkouts); got != 1.0 {
		t.Errorf("expected 1 checkout, got %f", got)
	}
	if got := counterValue(metrics.paymentsSucceeded); got != 1.0 {
		t.Errorf("expected 1 successful payment, got %f", got)
	}

	gaugeMetric := &dto.Metric{}
	if err := metrics.activeCarts.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gaugeMetric.Gauge.GetValue() != 0.0 {
		t.Errorf("expected no open carts, got %f", gaugeMetric.Gauge.GetValue())
	}
}

func TestRecordStockConflict(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordStockConflict()
	metrics.RecordPaymentFailed()

	metric := &dto.Metric{}
	if err := metrics.stockConflicts.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected 1 stock conflict, got %f", metric.Counter.GetValue())
	}

	failed := &dto.Metric{}
	if err := metrics.paymentsFailed.Write(failed); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if failed.Counter.GetValue() != 1.0 {
		t.Errorf("expected 1 failed payment, got %f", failed.Counter.GetValue())
	}
}

func TestRecordOperationDuration(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOperationDuration("pay", 150*time.Millisecond)
	metrics.RecordOperationDuration("pay", 50*time.Millisecond)
	metrics.RecordOperationDuration("checkout", 10*time.Millisecond)

	histogram, err := metrics.operationDuration.GetMetricWithLabelValues("pay")
	if err != nil {
		t.Fatalf("get pay histogram: %v", err)
	}

	metric := &dto.Metric{}
	if err := histogram.(prometheus.Metric).Write(metric); err != nil {
		t.Fatalf("failed to write histogram: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 pay samples, got %d", metric.Histogram.GetSampleCount())
	}
}
