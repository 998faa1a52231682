// Package metrics exposes tank readings and client health to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mixergy_bridge/internal/models"
)

const namespace = "mixergy"

var channelStates = []string{"disconnected", "connecting", "connected", "reconnect_pending"}

// Recorder owns a private registry so tests and multiple instances never
// collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	requestFailures *prometheus.CounterVec
	pushMessages    *prometheus.CounterVec
	reconnects      prometheus.Counter
	channelState    *prometheus.GaugeVec

	temperature       *prometheus.GaugeVec
	charge            *prometheus.GaugeVec
	targetCharge      *prometheus.GaugeVec
	targetTemperature *prometheus.GaugeVec
	pvPower           *prometheus.GaugeVec
	clampPower        *prometheus.GaugeVec
	heatSource        *prometheus.GaugeVec
	holidayMode       *prometheus.GaugeVec
	lastUpdate        *prometheus.GaugeVec
}

func New() *Recorder {
	tank := []string{"tank"}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "Failed upstream API calls by operation.",
		}, []string{"op"}),
		pushMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_messages_total",
			Help:      "Push channel messages by kind.",
		}, []string{"kind"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_reconnects_scheduled_total",
			Help:      "Push channel reconnect attempts scheduled.",
		}),
		channelState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "push_channel_state",
			Help:      "1 for the current push channel state, 0 otherwise.",
		}, []string{"state"}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_temperature_celsius",
			Help:      "Hot (top) and coldest (bottom) water temperature.",
		}, []string{"tank", "position"}),
		charge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "charge_percent",
			Help:      "Available hot water as a percentage of capacity.",
		}, tank),
		targetCharge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_charge_percent",
			Help:      "Charge the tank is heating towards.",
		}, tank),
		targetTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_temperature_celsius",
			Help:      "Configured maximum water temperature.",
		}, tank),
		pvPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pv_power",
			Help:      "Solar diverter power reading.",
		}, tank),
		clampPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clamp_power_watts",
			Help:      "Power measured at the supply clamp.",
		}, tank),
		heatSource: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heat_source_active",
			Help:      "1 when the heat source is heating.",
		}, []string{"tank", "source"}),
		holidayMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "holiday_mode",
			Help:      "1 while the tank is in holiday mode.",
		}, tank),
		lastUpdate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_update_timestamp_seconds",
			Help:      "Unix time of the last reconciled update.",
		}, tank),
	}

	r.registry.MustRegister(
		r.requestFailures,
		r.pushMessages,
		r.reconnects,
		r.channelState,
		r.temperature,
		r.charge,
		r.targetCharge,
		r.targetTemperature,
		r.pvPower,
		r.clampPower,
		r.heatSource,
		r.holidayMode,
		r.lastUpdate,
	)
	r.ChannelStateChanged("disconnected")
	return r
}

// Registry exposes the underlying registry for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) RequestFailed(op string) { r.requestFailures.WithLabelValues(op).Inc() }

func (r *Recorder) PushMessage(kind string) { r.pushMessages.WithLabelValues(kind).Inc() }

func (r *Recorder) PushReconnectScheduled() { r.reconnects.Inc() }

func (r *Recorder) ChannelStateChanged(state string) {
	for _, s := range channelStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.channelState.WithLabelValues(s).Set(v)
	}
}

// ObserveTank copies st into the tank gauges. Readings still at the unknown
// sentinel are not exported.
func (r *Recorder) ObserveTank(id string, st models.TankState) {
	setKnown := func(g prometheus.Gauge, v float64) {
		if v != models.Unknown {
			g.Set(v)
		}
	}
	setKnown(r.temperature.WithLabelValues(id, "top"), st.HotWaterTemperature)
	setKnown(r.temperature.WithLabelValues(id, "bottom"), st.ColdestWaterTemperature)
	setKnown(r.charge.WithLabelValues(id), st.Charge)
	setKnown(r.targetTemperature.WithLabelValues(id), st.TargetTemperature)
	r.targetCharge.WithLabelValues(id).Set(st.TargetCharge)
	r.pvPower.WithLabelValues(id).Set(st.PVPower)
	r.clampPower.WithLabelValues(id).Set(st.ClampPower)
	r.heatSource.WithLabelValues(id, "indirect").Set(boolGauge(st.IndirectHeatSource))
	r.heatSource.WithLabelValues(id, "electric").Set(boolGauge(st.ElectricHeatSource))
	r.heatSource.WithLabelValues(id, "heatpump").Set(boolGauge(st.HeatpumpHeatSource))
	r.holidayMode.WithLabelValues(id).Set(boolGauge(st.InHolidayMode))
	if !st.UpdatedAt.IsZero() {
		r.lastUpdate.WithLabelValues(id).Set(float64(st.UpdatedAt.Unix()))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// StateSource is the part of a tank client the gauges are read from.
type StateSource interface {
	ID() string
	State() models.TankState
}

// TankObserver refreshes the gauges whenever the tank publishes.
type TankObserver struct {
	rec *Recorder
	src StateSource
}

// Observer returns an observer to register with the tank client.
func (r *Recorder) Observer(src StateSource) *TankObserver {
	return &TankObserver{rec: r, src: src}
}

func (o *TankObserver) TankUpdated() {
	o.rec.ObserveTank(o.src.ID(), o.src.State())
}
