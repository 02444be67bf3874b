package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/notreally/notreally/pkg/store"
)

// Exporter serves Prometheus-compatible metrics: job-table gauges
// computed from the store, followed by the registered engine metrics
type Exporter struct {
	store     store.Store
	gatherer  promclient.Gatherer
	startTime time.Time
}

// NewExporter creates the /metrics handler
func NewExporter(s store.Store, gatherer promclient.Gatherer) *Exporter {
	if gatherer == nil {
		gatherer = promclient.DefaultGatherer
	}
	return &Exporter{
		store:     s,
		gatherer:  gatherer,
		startTime: time.Now(),
	}
}

// ServeHTTP serves metrics in the Prometheus text format
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP notreally_uptime_seconds Time since the server started\n")
	fmt.Fprintf(w, "# TYPE notreally_uptime_seconds gauge\n")
	fmt.Fprintf(w, "notreally_uptime_seconds %d\n", int64(time.Since(e.startTime).Seconds()))

	jobMetrics, err := e.store.GetJobMetrics()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error collecting job metrics: %v", err), http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "\n# HELP notreally_jobs_total Total jobs in the job table\n")
	fmt.Fprintf(w, "# TYPE notreally_jobs_total gauge\n")
	fmt.Fprintf(w, "notreally_jobs_total %d\n", jobMetrics.TotalJobs)

	fmt.Fprintf(w, "\n# HELP notreally_jobs_by_status Jobs by lifecycle status\n")
	fmt.Fprintf(w, "# TYPE notreally_jobs_by_status gauge\n")
	for status, count := range jobMetrics.JobsByState {
		fmt.Fprintf(w, "notreally_jobs_by_status{status=\"%s\"} %d\n", status, count)
	}

	fmt.Fprintf(w, "\n# HELP notreally_jobs_active Jobs not yet in a terminal status\n")
	fmt.Fprintf(w, "# TYPE notreally_jobs_active gauge\n")
	fmt.Fprintf(w, "notreally_jobs_active %d\n", jobMetrics.ActiveJobs)

	// Append the registered instruments (counters, histogram)
	fmt.Fprintf(w, "\n")
	families, err := e.gatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering Prometheus metrics: %v\n", err)
		return
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}
	w.Write(buf.Bytes())
}
