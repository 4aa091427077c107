package monitoring

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/agentops/console/internal/domain/entity"
)

// PrometheusHandler serves the metrics in Prometheus text format.
// Mount it at "/metrics".
func (m *Monitor) PrometheusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(m.metrics.StartTime).Seconds()

		lines := []struct {
			name string
			help string
			typ  string
			val  any
		}{
			{"agentops_http_requests_total", "Total browser console requests served", "counter", atomic.LoadUint64(&m.metrics.RequestsTotal)},
			{"agentops_http_requests_failed_total", "Requests answered with a 5xx status", "counter", atomic.LoadUint64(&m.metrics.RequestsFailed)},

			{"agentops_actions_total", "Console actions recorded in the activity feed", "counter", atomic.LoadUint64(&m.metrics.ActionsTotal)},
			{"agentops_actions_failed_total", "Console actions that failed", "counter", atomic.LoadUint64(&m.metrics.ActionsFailed)},
			{"agentops_workflow_runs_total", "Workflow runs started from the console", "counter", atomic.LoadUint64(&m.metrics.RunsTotal)},
			{"agentops_workflow_runs_failed_total", "Workflow runs that failed", "counter", atomic.LoadUint64(&m.metrics.RunsFailed)},

			{"agentops_uptime_seconds", "Process uptime in seconds", "gauge", uptime},
			{"agentops_memory_alloc_bytes", "Current memory allocation in bytes", "gauge", memStats.Alloc},
			{"agentops_goroutines", "Number of goroutines", "gauge", runtime.NumGoroutine()},
		}

		for _, l := range lines {
			fmt.Fprintf(w, "# HELP %s %s\n", l.name, l.help)
			fmt.Fprintf(w, "# TYPE %s %s\n", l.name, l.typ)
			switch v := l.val.(type) {
			case uint64:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case int:
				fmt.Fprintf(w, "%s %d\n", l.name, v)
			case float64:
				fmt.Fprintf(w, "%s %f\n", l.name, v)
			}
			fmt.Fprintln(w)
		}

		byKind := m.ActionsByKind()
		if len(byKind) > 0 {
			kinds := make([]entity.ActivityKind, 0, len(byKind))
			for k := range byKind {
				kinds = append(kinds, k)
			}
			sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
			fmt.Fprintf(w, "# HELP agentops_actions_by_kind_total Console actions by kind\n")
			fmt.Fprintf(w, "# TYPE agentops_actions_by_kind_total counter\n")
			for _, k := range kinds {
				fmt.Fprintf(w, "agentops_actions_by_kind_total{kind=%q} %d\n", k, byKind[k])
			}
			fmt.Fprintln(w)
		}

		if count := atomic.LoadUint64(&m.metrics.RequestLatencyCount); count > 0 {
			avgMs := float64(atomic.LoadUint64(&m.metrics.RequestLatencySum)) / float64(count) / 1e6
			fmt.Fprintf(w, "# HELP agentops_http_request_latency_avg_ms Average request latency in milliseconds\n")
			fmt.Fprintf(w, "# TYPE agentops_http_request_latency_avg_ms gauge\n")
			fmt.Fprintf(w, "agentops_http_request_latency_avg_ms %f\n\n", avgMs)
		}
	})
}
