package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "teams-inbox"

// OTelExporter publishes inbox gauges and the routing/delivery counters in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector
	meter         metric.Meter
	counters      *Counters
}

func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		meterName,
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}
	oe.counters, err = NewCounters(meter)
	if err != nil {
		return nil, err
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	gauges := []struct {
		name        string
		description string
		unit        string
		callback    metric.Int64Callback
	}{
		{"inbox.queue.length", "Number of events waiting for each consumer, retries included", "{events}", oe.observeQueueLengths},
		{"inbox.status.count", "Number of stored events by status", "{events}", oe.observeStatusCounts},
		{"inbox.throughput", "Number of events delivered over time window", "{events}", oe.observeThroughput},
		{"inbox.workers.active", "Number of live delivery workers per consumer", "{workers}", oe.observeActiveWorkers},
	}

	for _, g := range gauges {
		_, err := oe.meter.Int64ObservableGauge(
			g.name,
			metric.WithDescription(g.description),
			metric.WithUnit(g.unit),
			metric.WithInt64Callback(g.callback),
		)
		if err != nil {
			return fmt.Errorf("creating %s gauge: %w", g.name, err)
		}
	}
	return nil
}

func (oe *OTelExporter) observeQueueLengths(ctx context.Context, observer metric.Int64Observer) error {
	queueLengths, err := oe.collector.GetQueueLengths(ctx)
	if err != nil {
		return err
	}
	for consumerID, length := range queueLengths {
		observer.Observe(length, metric.WithAttributes(
			attribute.String("consumer.id", consumerID),
		))
	}
	return nil
}

func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}
	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("event.status", status),
		))
	}
	return nil
}

func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))
	return nil
}

func (oe *OTelExporter) observeActiveWorkers(ctx context.Context, observer metric.Int64Observer) error {
	workers, err := oe.collector.GetActiveWorkers(ctx)
	if err != nil {
		return err
	}

	for consumerID := range workers {
		observer.Observe(1, metric.WithAttributes(
			attribute.String("consumer.id", consumerID),
		))
	}
	return nil
}

// Counters returns the routing and delivery counters bound to this exporter
func (oe *OTelExporter) Counters() *Counters {
	return oe.counters
}

// ServeHTTP serves Prometheus-formatted metrics
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
