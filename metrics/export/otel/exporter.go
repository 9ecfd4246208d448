package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/payguard"
	"github.com/MrEthical07/payguard/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() payguard.MetricsSnapshot
	AuditDroppedByKind() map[payguard.AuditKind]uint64
}

// series is one attribute combination inside a family.
type series struct {
	id    payguard.MetricID
	attrs []attribute.KeyValue
}

// family is one OpenTelemetry counter. Related payguard counters share a
// family and differ by attribute, e.g. payguard.login{outcome=failure}.
type family struct {
	name   string
	help   string
	series []series
}

func outcome(id payguard.MetricID, v string) series {
	return series{id: id, attrs: []attribute.KeyValue{attribute.String("outcome", v)}}
}

var families = []family{
	{
		name: "payguard.login",
		help: "Login attempts by outcome.",
		series: []series{
			outcome(payguard.MetricLoginSuccess, "success"),
			outcome(payguard.MetricLoginFailure, "failure"),
		},
	},
	{
		name:   "payguard.logout",
		help:   "Completed logouts.",
		series: []series{{id: payguard.MetricLogout}},
	},
	{
		name: "payguard.session.restore",
		help: "Startup restores by outcome.",
		series: []series{
			outcome(payguard.MetricSessionRestored, "restored"),
			outcome(payguard.MetricSessionRestoreEmpty, "empty"),
			outcome(payguard.MetricSessionDiscarded, "discarded"),
		},
	},
	{
		name:   "payguard.session.revoked",
		help:   "Sessions cleared by a 401 response.",
		series: []series{{id: payguard.MetricSessionRevoked}},
	},
	{
		name: "payguard.navigation",
		help: "Route guard decisions.",
		series: []series{
			{id: payguard.MetricNavigationAllowed, attrs: []attribute.KeyValue{attribute.String("decision", "allow")}},
			{id: payguard.MetricNavigationLogin, attrs: []attribute.KeyValue{attribute.String("decision", "redirect-to-login")}},
			{id: payguard.MetricNavigationUnauthorized, attrs: []attribute.KeyValue{attribute.String("decision", "redirect-to-unauthorized")}},
			{id: payguard.MetricNavigationHome, attrs: []attribute.KeyValue{attribute.String("decision", "redirect-to-home")}},
		},
	},
	{
		name: "payguard.request",
		help: "Outbound backend requests by credential.",
		series: []series{
			{id: payguard.MetricRequestSigned, attrs: []attribute.KeyValue{attribute.String("credential", "bearer")}},
			{id: payguard.MetricRequestAnonymous, attrs: []attribute.KeyValue{attribute.String("credential", "anonymous")}},
		},
	},
}

type boundSeries struct {
	id   payguard.MetricID
	opts []metric.ObserveOption
}

type boundFamily struct {
	instrument metric.Int64ObservableCounter
	series     []boundSeries
}

type boundHistogram struct {
	id      payguard.MetricID
	buckets metric.Int64ObservableGauge
	le      [8]metric.ObserveOption
	count   metric.Int64ObservableGauge
}

// Exporter keeps the callback registration alive. Close unregisters it.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	families     []boundFamily
	histograms   []boundHistogram
	auditDropped metric.Int64ObservableCounter
	kindOpts     map[payguard.AuditKind]metric.ObserveOption
}

// NewExporter registers instruments on meter that read from engine.
func NewExporter(meter metric.Meter, engine *payguard.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource registers instruments on meter that read from source.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exp := &Exporter{
		source:   source,
		kindOpts: make(map[payguard.AuditKind]metric.ObserveOption),
	}
	for _, k := range payguard.AuditKinds() {
		exp.kindOpts[k] = metric.WithAttributeSet(attribute.NewSet(attribute.String("kind", k.String())))
	}
	var observables []metric.Observable

	for _, f := range families {
		ins, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.name, err)
		}
		bf := boundFamily{instrument: ins}
		for _, s := range f.series {
			bs := boundSeries{id: s.id}
			if len(s.attrs) > 0 {
				bs.opts = []metric.ObserveOption{metric.WithAttributeSet(attribute.NewSet(s.attrs...))}
			}
			bf.series = append(bf.series, bs)
		}
		exp.families = append(exp.families, bf)
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		name := otelName(def.Name)
		h := boundHistogram{id: def.ID}
		var err error
		h.buckets, err = meter.Int64ObservableGauge(name+".bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", name, err)
		}
		h.count, err = meter.Int64ObservableGauge(name+".count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", name, err)
		}
		for i := range h.le {
			le := "+Inf"
			if i < len(internaldefs.HistogramUpperBounds) {
				le = strconv.FormatFloat(internaldefs.HistogramUpperBounds[i], 'g', -1, 64)
			}
			h.le[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
		}
		exp.histograms = append(exp.histograms, h)
		observables = append(observables, h.buckets, h.count)
	}

	auditDropped, err := meter.Int64ObservableCounter("payguard.audit.dropped",
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exp.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exp.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exp.registration = registration
	return exp, nil
}

// otelName turns payguard_login_latency_seconds into payguard.login.latency.
func otelName(promName string) string {
	return strings.ReplaceAll(strings.TrimSuffix(promName, "_seconds"), "_", ".")
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, f := range e.families {
		for _, s := range f.series {
			observer.ObserveInt64(f.instrument, int64(snapshot.Counters[s.id]), s.opts...)
		}
	}

	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, v := range cumulative {
			observer.ObserveInt64(h.buckets, int64(v), h.le[i])
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}

	for kind, n := range e.source.AuditDroppedByKind() {
		observer.ObserveInt64(e.auditDropped, int64(n), e.kindOption(kind))
	}
	return nil
}

func (e *Exporter) kindOption(kind payguard.AuditKind) metric.ObserveOption {
	if opt, ok := e.kindOpts[kind]; ok {
		return opt
	}
	return metric.WithAttributeSet(attribute.NewSet(attribute.String("kind", kind.String())))
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
