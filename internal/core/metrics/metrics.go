package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-overlay/internal/core/messenger"
	"github.com/dep2p/go-overlay/pkg/types"
)

const namespace = "overlay"

// 字节方向标签
const (
	DirectionOut = "out"
	DirectionIn  = "in"
)

// Metrics 信使、验证与线格式指标
type Metrics struct {
	gatherer prometheus.Gatherer

	queued      prometheus.Counter
	accepted    prometheus.Counter
	failed      *prometheus.CounterVec
	overflows   prometheus.Counter
	queueDepth  prometheus.Histogram
	transitions *prometheus.CounterVec

	verifications *prometheus.CounterVec
	wireBytes     *prometheus.CounterVec
}

// New 创建并注册指标；reg 为 nil 时使用新的独立 Registry
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messenger", Name: "messages_queued_total",
			Help: "Messages accepted into a messenger outbound queue.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messenger", Name: "messages_accepted_total",
			Help: "Messages handed over to a transport.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messenger", Name: "messages_failed_total",
			Help: "Messages whose delivery failed, by reason.",
		}, []string{"reason"}),
		overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messenger", Name: "queue_overflows_total",
			Help: "Non-blocking sends refused because the queue was full.",
		}),
		queueDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "messenger", Name: "queue_depth",
			Help:    "Outbound queue depth observed on every enqueue and dequeue.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messenger", Name: "state_transitions_total",
			Help: "Messenger state machine transitions.",
		}, []string{"from", "to"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cbjx", Name: "verifications_total",
			Help: "Inbound message verifications, by result and failing step.",
		}, []string{"result", "step"}),
		wireBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "wire", Name: "bytes_total",
			Help: "Serialized message bytes moved by transports.",
		}, []string{"direction"}),
	}

	if reg == nil {
		r := prometheus.NewRegistry()
		reg, m.gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	for _, c := range []prometheus.Collector{
		m.queued, m.accepted, m.failed, m.overflows, m.queueDepth,
		m.transitions, m.verifications, m.wireBytes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Gatherer 返回可导出的 Gatherer；外部 Registerer 不支持采集时为 nil
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// ============================================================================
//                              messenger.Observer
// ============================================================================

var _ messenger.Observer = (*Metrics)(nil)

func (m *Metrics) MessageQueued() { m.queued.Inc() }

func (m *Metrics) MessageAccepted() { m.accepted.Inc() }

func (m *Metrics) MessageFailed(cause error) {
	m.failed.WithLabelValues(FailureReason(cause)).Inc()
}

func (m *Metrics) QueueOverflow() { m.overflows.Inc() }

func (m *Metrics) QueueDepth(n int) { m.queueDepth.Observe(float64(n)) }

func (m *Metrics) StateChanged(old, next types.MessengerState) {
	m.transitions.WithLabelValues(old.String(), next.String()).Inc()
}

// FailureReason 把失败原因归类为低基数标签
func FailureReason(cause error) string {
	switch {
	case errors.Is(cause, messenger.ErrQueueOverflow):
		return "overflow"
	case errors.Is(cause, messenger.ErrSendTimeout):
		return "timeout"
	case errors.Is(cause, messenger.ErrUnexpectedlyClosed):
		return "broken"
	case errors.Is(cause, messenger.ErrMessengerClosed):
		return "closed"
	case errors.Is(cause, messenger.ErrRejected):
		return "rejected"
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// ============================================================================
//                              cbjx.Observer
// ============================================================================

func (m *Metrics) VerificationSucceeded() {
	m.verifications.WithLabelValues("ok", "").Inc()
}

func (m *Metrics) VerificationFailed(step string) {
	m.verifications.WithLabelValues("failed", step).Inc()
}

// ============================================================================
//                              线格式字节
// ============================================================================

// LogSentBytes 记录出站字节
func (m *Metrics) LogSentBytes(n int) {
	m.wireBytes.WithLabelValues(DirectionOut).Add(float64(n))
}

// LogRecvBytes 记录入站字节
func (m *Metrics) LogRecvBytes(n int) {
	m.wireBytes.WithLabelValues(DirectionIn).Add(float64(n))
}
