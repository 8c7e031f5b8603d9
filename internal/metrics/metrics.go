// Package metrics expone las métricas Prometheus del servicio: requests HTTP,
// eventos de auth (login, segundo factor, guards) y el pool de Postgres.
package metrics

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config agrupa lo necesario para registrar y exponer /metrics.
type Config struct {
	// Registry donde se registran los collectors. nil = registry global.
	Registry *prometheus.Registry

	// Pool, si no es nil, agrega gauges del pool de Postgres.
	Pool func() *pgxpool.Pool
}

// Metrics contiene los collectors registrados.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight *prometheus.GaugeVec

	logins          *prometheus.CounterVec
	secondFactor    *prometheus.CounterVec
	codeDelivery    *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
}

// New crea y registra los collectors. Registrar dos veces sobre el mismo
// registry reutiliza los collectors existentes.
func New(cfg Config) (*Metrics, error) {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if cfg.Registry != nil {
		reg, gatherer = cfg.Registry, cfg.Registry
	}

	m := &Metrics{gatherer: gatherer}
	var err error

	if m.httpRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})); err != nil {
		return nil, err
	}
	if m.httpInflight, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método",
	}, []string{"method"})); err != nil {
		return nil, err
	}

	if m.logins, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Intentos de login por resultado",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.secondFactor, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_second_factor_total",
		Help: "Códigos de segundo factor enviados por el usuario, por resultado",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.codeDelivery, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_second_factor_delivery_total",
		Help: "Entregas de códigos de segundo factor por canal y resultado",
	}, []string{"channel", "result"})); err != nil {
		return nil, err
	}
	if m.guardRejections, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_guard_rejections_total",
		Help: "Requests rechazadas por los guards de sesión",
	}, []string{"guard", "reason"})); err != nil {
		return nil, err
	}

	if cfg.Pool != nil {
		if _, err := register(reg, newPoolCollector(cfg.Pool)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// LoginOutcome implements session.Recorder.
func (m *Metrics) LoginOutcome(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// SecondFactorResult implements session.Recorder.
func (m *Metrics) SecondFactorResult(result string) {
	m.secondFactor.WithLabelValues(result).Inc()
}

// CodeDelivery implements session.Recorder.
func (m *Metrics) CodeDelivery(channel string, delivered bool) {
	result := "delivered"
	if !delivered {
		result = "fallback"
	}
	m.codeDelivery.WithLabelValues(channel, result).Inc()
}

// GuardRejection implements session.Recorder.
func (m *Metrics) GuardRejection(guard, reason string) {
	m.guardRejections.WithLabelValues(guard, reason).Inc()
}

// register registra c; si ya había uno igual devuelve el existente.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// poolCollector expone gauges del pool de Postgres.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool func() *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pgxpool_acquired_conns", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pgxpool_idle_conns", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pgxpool_total_conns", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
