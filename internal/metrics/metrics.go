package metrics

import "github.com/prometheus/client_golang/prometheus"

// Allocation, reclaim and import outcomes used as label values.
const (
	ResultOK         = "ok"
	ResultConflict   = "conflict"
	ResultNotFound   = "not_found"
	ResultFailed     = "failed"
	ResultReclaimed  = "reclaimed"
	ResultGap        = "gap"
	OutcomeInserted  = "inserted"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Domain holds the counters emitted by the filing subsystem. A nil *Domain is
// valid and records nothing.
type Domain struct {
	allocations     *prometheus.CounterVec
	reclaims        *prometheus.CounterVec
	cleanupFailures *prometheus.CounterVec
	importRows      *prometheus.CounterVec
}

// NewDomain creates the domain collectors and registers them on reg.
func NewDomain(reg prometheus.Registerer) (*Domain, error) {
	d := &Domain{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docfiling_refno_allocations_total",
			Help: "Reference number allocations by result.",
		}, []string{"result"}),
		reclaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docfiling_counter_reclaims_total",
			Help: "Counter reclaim attempts after document deletion by result.",
		}, []string{"result"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docfiling_attachment_cleanup_failures_total",
			Help: "Attachment deletions that failed after every retry.",
		}, []string{"op"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docfiling_import_rows_total",
			Help: "CSV import rows by stream and outcome.",
		}, []string{"stream", "outcome"}),
	}

	for _, c := range []prometheus.Collector{d.allocations, d.reclaims, d.cleanupFailures, d.importRows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Allocation records one reference number allocation.
func (d *Domain) Allocation(result string) {
	if d == nil {
		return
	}
	d.allocations.WithLabelValues(result).Inc()
}

// Reclaim records one counter reclaim attempt.
func (d *Domain) Reclaim(result string) {
	if d == nil {
		return
	}
	d.reclaims.WithLabelValues(result).Inc()
}

// CleanupFailure records an attachment that could not be removed.
func (d *Domain) CleanupFailure(op string) {
	if d == nil {
		return
	}
	d.cleanupFailures.WithLabelValues(op).Inc()
}

// ImportRows adds n rows to the stream/outcome pair.
func (d *Domain) ImportRows(stream, outcome string, n int) {
	if d == nil || n <= 0 {
		return
	}
	d.importRows.WithLabelValues(stream, outcome).Add(float64(n))
}
