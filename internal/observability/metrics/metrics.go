package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReceiptMetrics exposes counters/histograms for the receipt pipeline.
type ReceiptMetrics struct {
	inboundTotal   *prometheus.CounterVec
	analysisTotal  *prometheus.CounterVec
	replyTotal     *prometheus.CounterVec
	webhookLatency prometheus.Histogram
	analyzeLatency prometheus.Histogram
}

func NewReceiptMetrics(reg prometheus.Registerer) *ReceiptMetrics {
	m := &ReceiptMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scontreeno",
			Subsystem: "intake",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound gateway webhooks by outcome",
		}, []string{"outcome"}),
		analysisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scontreeno",
			Subsystem: "analysis",
			Name:      "analysis_total",
			Help:      "Total document analyses by status",
		}, []string{"status"}),
		replyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scontreeno",
			Subsystem: "analysis",
			Name:      "reply_total",
			Help:      "Total outbound replies by kind",
		}, []string{"kind"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scontreeno",
			Subsystem: "intake",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}),
		analyzeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scontreeno",
			Subsystem: "analysis",
			Name:      "analyze_latency_seconds",
			Help:      "Latency of the document analysis call",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.analysisTotal, m.replyTotal, m.webhookLatency, m.analyzeLatency)
	return m
}

func (m *ReceiptMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *ReceiptMetrics) ObserveAnalysis(status string) {
	if m == nil {
		return
	}
	m.analysisTotal.WithLabelValues(status).Inc()
}

func (m *ReceiptMetrics) ObserveReply(kind string) {
	if m == nil {
		return
	}
	m.replyTotal.WithLabelValues(kind).Inc()
}

func (m *ReceiptMetrics) ObserveWebhookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.Observe(seconds)
}

func (m *ReceiptMetrics) ObserveAnalyzeLatency(seconds float64) {
	if m == nil {
		return
	}
	m.analyzeLatency.Observe(seconds)
}
