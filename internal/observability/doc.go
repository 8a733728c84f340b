// Package observability provides monitoring and debugging capabilities for a
// challenge run through metrics, structured logging, and distributed tracing.
//
// # Overview
//
// The observability package implements the three pillars of observability:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive data redaction
//  3. Tracing - Distributed request tracing with OpenTelemetry
//
// # Architecture
//
// The package is designed to be:
//   - Low-overhead: minimal impact on a run's wall-clock budget
//   - Type-safe: strongly-typed APIs reduce configuration errors
//   - Standards-based: uses Prometheus, OpenTelemetry, and slog
//
// # Metrics
//
// Metrics are implemented using Prometheus client libraries and track:
//   - LLM backend request latency, token usage, and estimated cost
//   - Tool execution counts and latency
//   - Completed rounds per agent role
//   - Error rates by component and type
//   - Active/completed run counts by exit reason
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	start := time.Now()
//	// ... send to the backend ...
//	metrics.RecordLLMRequest("anthropic", "claude-3-7-sonnet", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens)
//
//	start = time.Now()
//	// ... execute the tool ...
//	metrics.RecordToolExecution("run_command", "success", time.Since(start).Seconds())
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic run/round/role ID correlation from context
//   - Sensitive data redaction (API keys, tokens)
//   - JSON output for batch runs, text for interactive debugging
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	ctx := observability.AddRunID(ctx, runID)
//	ctx = observability.AddAgentID(ctx, "executor-1")
//
//	logger.Info(ctx, "dispatching tool call",
//	    "tool_name", "run_command",
//	    "round", round,
//	)
//
//	logger.Error(ctx, "backend request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // automatically redacted
//	)
//
// # Tracing
//
// Distributed tracing uses OpenTelemetry to track a run across its agents:
//   - Per-round span nesting for planner/executor/autoprompter
//   - Tool execution latency breakdown
//   - Error correlation across backend calls and container execs
//
// Example usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName:    "ctfagent",
//	    ServiceVersion: "1.0.0",
//	    Endpoint:       "localhost:4317", // OTLP collector
//	    SamplingRate:   1.0,
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := tracer.TraceAgentRound(ctx, "executor", round)
//	defer span.End()
//
//	ctx, llmSpan := tracer.TraceLLMRequest(ctx, "anthropic", "claude-3-7-sonnet")
//	defer llmSpan.End()
//	tracer.SetAttributes(llmSpan, "prompt_tokens", 900, "completion_tokens", 140)
//
//	ctx, toolSpan := tracer.TraceToolExecution(ctx, "run_command")
//	defer toolSpan.End()
//	if err != nil {
//	    tracer.RecordError(toolSpan, err)
//	}
//
// # Context Propagation
//
//	ctx = observability.AddRunID(ctx, "run-123")
//	ctx = observability.AddAgentID(ctx, "planner")
//
//	logger.Info(ctx, "round started") // includes run_id, agent_role, etc.
//
//	ctx, span := tracer.Start(ctx, "operation")
//	// trace context propagates to child spans
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, Gemini, generic)
//   - Bearer tokens and secrets embedded in logged arguments/output
//
// Sensitive fields in maps are also redacted:
//   - password, passwd, pwd
//   - secret, api_key, apikey
//   - token, auth, authorization
//
// # Testing
//
// All components provide testable interfaces:
//   - Metrics can be verified using prometheus/testutil
//   - Logging can write to bytes.Buffer for assertions
//   - Tracing works with no-op exporters in tests
//
// # Monitoring Dashboard
//
//	# LLM request latency (95th percentile)
//	histogram_quantile(0.95, rate(ctfagent_llm_request_duration_seconds_bucket[5m]))
//
//	# Error rate
//	rate(ctfagent_errors_total[5m])
//
//	# Active runs
//	ctfagent_active_runs
//
//	# Tool execution time
//	rate(ctfagent_tool_execution_duration_seconds_sum[5m]) /
//	rate(ctfagent_tool_execution_duration_seconds_count[5m])
package observability
