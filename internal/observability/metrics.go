package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics centralizes Prometheus collectors for one run process. It tracks:
//   - LLM backend request performance, token usage, and estimated cost
//   - tool execution counts and latency
//   - round progression per agent role
//   - errors categorized by component and type
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordLLMRequest("anthropic", "claude-3-7-sonnet", "success", 1.2, 900, 140)
type Metrics struct {
	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider (anthropic|openai|gemini|bedrock), model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider, model, and status.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// LLMCostUSD tracks estimated cost in USD.
	// Labels: provider, model
	LLMCostUSD *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// AgentRounds counts completed rounds by agent role.
	// Labels: role (single|planner|executor|autoprompter)
	AgentRounds *prometheus.CounterVec

	// ErrorCounter tracks errors by component and error type.
	// Labels: component (backend|tool|environment|container), error_type
	ErrorCounter *prometheus.CounterVec

	// ActiveRuns is a gauge tracking runs currently in progress.
	ActiveRuns prometheus.Gauge

	// RunDuration measures whole-run wall-clock time in seconds.
	// Labels: exit_reason (solved|giveup|cost|planner_rounds|max_rounds|unknown)
	RunDuration *prometheus.HistogramVec

	// RunAttempts counts run outcomes.
	// Labels: exit_reason
	RunAttempts *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics. Call once per
// process; a second call against the default registry panics.
func NewMetrics() *Metrics {
	return &Metrics{
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctfagent_llm_request_duration_seconds",
				Help:    "Duration of LLM backend requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_llm_requests_total",
				Help: "Total number of LLM backend requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		LLMCostUSD: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_llm_cost_usd_total",
				Help: "Estimated LLM backend cost in USD",
			},
			[]string{"provider", "model"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctfagent_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"tool_name"},
		),

		AgentRounds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_agent_rounds_total",
				Help: "Total number of completed agent rounds by role",
			},
			[]string{"role"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),

		ActiveRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ctfagent_active_runs",
				Help: "Current number of runs in progress",
			},
		),

		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctfagent_run_duration_seconds",
				Help:    "Duration of a whole challenge run in seconds",
				Buckets: []float64{5, 15, 30, 60, 300, 600, 1800, 3600, 7200},
			},
			[]string{"exit_reason"},
		),

		RunAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctfagent_run_attempts_total",
				Help: "Total number of completed runs by exit reason",
			},
			[]string{"exit_reason"},
		),
	}
}

// RecordLLMRequest records metrics for one LLM backend request.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordLLMCost records estimated API cost for one backend response.
func (m *Metrics) RecordLLMCost(provider, model string, costUSD float64) {
	m.LLMCostUSD.WithLabelValues(provider, model).Add(costUSD)
}

// RecordToolExecution records metrics for a tool call.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordAgentRound increments the completed-round counter for a role.
func (m *Metrics) RecordAgentRound(role string) {
	m.AgentRounds.WithLabelValues(role).Inc()
}

// RecordError increments the error counter for a given component and error type.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}

// RunStarted increments the active-runs gauge.
func (m *Metrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// RunEnded decrements the active-runs gauge and records the run's duration
// and terminal exit reason.
func (m *Metrics) RunEnded(exitReason string, durationSeconds float64) {
	m.ActiveRuns.Dec()
	m.RunDuration.WithLabelValues(exitReason).Observe(durationSeconds)
	m.RunAttempts.WithLabelValues(exitReason).Inc()
}
