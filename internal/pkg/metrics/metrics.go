package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы вызова внешнего сервиса
const (
	OutcomeOK       = "ok"
	OutcomeRetry    = "retry"
	OutcomeFallback = "fallback"
)

var (
	collaboratorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "collaborator_calls_total",
		Help:      "Calls to question, scoring and summary collaborators by outcome",
	}, []string{"collaborator", "outcome"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "transitions_total",
		Help:      "Candidate status transitions by target status",
	}, []string{"status"})

	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "answers_total",
		Help:      "Accepted answers, split by auto-submission",
	}, []string{"auto_submitted"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interview",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// CollaboratorCall учитывает вызов внешнего сервиса
func CollaboratorCall(collaborator, outcome string) {
	collaboratorCalls.WithLabelValues(collaborator, outcome).Inc()
}

// Transition учитывает переход кандидата в статус
func Transition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// AnswerAccepted учитывает принятый ответ
func AnswerAccepted(autoSubmitted bool) {
	label := "false"
	if autoSubmitted {
		label = "true"
	}
	answers.WithLabelValues(label).Inc()
}

// ObserveHTTP записывает длительность HTTP-запроса
func ObserveHTTP(method, route, status string, seconds float64) {
	httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}

// Handler возвращает обработчик /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
