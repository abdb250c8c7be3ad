package model

// IngestResult summarises one producer pass.
type IngestResult struct {
	Total      int
	New        int
	Duplicates int
	Queued     int
	// Throttled is set when the pass was rejected by backpressure before
	// any record was examined. Total is populated, everything else is zero.
	Throttled bool
}

// BatchResult summarises one worker batch. On a successful pass
// Staged + EnrichmentErrors == Drained; a bulk staging failure moves the
// whole enriched count into Errors instead.
type BatchResult struct {
	Drained          int
	Enriched         int
	Staged           int
	EnrichmentErrors int
	Errors           int
}

// Add accumulates another batch into this result.
func (r *BatchResult) Add(other BatchResult) {
	r.Drained += other.Drained
	r.Enriched += other.Enriched
	r.Staged += other.Staged
	r.EnrichmentErrors += other.EnrichmentErrors
	r.Errors += other.Errors
}

// PipelineStats is a point-in-time snapshot of the whole pipeline, read by
// the stats command.
type PipelineStats struct {
	QueueDepth      int64
	LifetimePushed  int64
	DedupWindowSize int64
	LookupCacheSize int64
	StagingCount    int64
	DurableCount    int64
	AggregateViews  []AggregateViewInfo
}

// AggregateViewInfo describes one materialized view backing the dashboards.
type AggregateViewInfo struct {
	Name      string
	Populated bool
	Size      string
}
