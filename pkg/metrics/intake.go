package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Intake holds the Prometheus collectors for the complaint pipeline.
// A nil *Intake is valid and records nothing.
type Intake struct {
	registry *prometheus.Registry

	submissions *prometheus.CounterVec
	rejections  prometheus.Counter
	shapes      *prometheus.CounterVec
	answers     *prometheus.CounterVec
	llmTokens   *prometheus.CounterVec
}

// NewIntake registers the intake collectors on a fresh registry.
func NewIntake() *Intake {
	reg := prometheus.NewRegistry()
	m := &Intake{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "submissions_total",
			Help:      "Accepted complaint submissions by category",
		}, []string{"category"}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "rejected_category_total",
			Help:      "Submissions rejected because no category keyword matched",
		}),
		shapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "question_payload_shape_total",
			Help:      "Question payloads by detected shape",
		}, []string{"shape"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "answers_total",
			Help:      "Answered questions by outcome",
		}, []string{"status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed while answering",
		}, []string{"type"}),
	}
	reg.MustRegister(m.submissions, m.rejections, m.shapes, m.answers, m.llmTokens)
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Intake) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Intake) ObserveSubmission(category, shape string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(category).Inc()
	m.shapes.WithLabelValues(shape).Inc()
}

func (m *Intake) ObserveRejection() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}

func (m *Intake) ObserveAnswer(status string, usage TokenUsage) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(status).Inc()
	if usage.IsZero() {
		return
	}
	m.llmTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	m.llmTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}
