package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBOperation string

const (
	DBOperationRead         DBOperation = "read"
	DBOperationBulkInsert   DBOperation = "bulk_insert"
	DBOperationPromote      DBOperation = "promote"
	DBOperationRefreshViews DBOperation = "refresh_views"

	prefix = "orderflow_"
)

type Metrics struct {
	recordsIngested  prometheus.Counter
	duplicates       prometheus.Counter
	recordsStaged    prometheus.Counter
	recordsPromoted  prometheus.Counter
	enrichmentErrors prometheus.Counter
	batchErrors      prometheus.Counter
	dbErrors         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		recordsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "records_ingested",
			Help: "Number of new records accepted onto the ingestion queue",
		}),
		duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "duplicates_discarded",
			Help: "Number of records discarded by the deduplication window",
		}),
		recordsStaged: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "records_staged",
			Help: "Number of enriched records bulk inserted into staging",
		}),
		recordsPromoted: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "records_promoted",
			Help: "Number of staged records promoted to durable storage",
		}),
		enrichmentErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "enrichment_errors",
			Help: "Number of records dropped because a reference field could not be resolved",
		}),
		batchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "batch_errors",
			Help: "Number of records lost to whole-batch staging failures",
		}),
		dbErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "db_errors",
			Help: "Number of database errors grouped by operation",
		}, []string{"operation"}),
	}
}

var m = NewMetrics()

func Get() *Metrics {
	return m
}

func (m *Metrics) RecordIngested(n int)        { m.recordsIngested.Add(float64(n)) }
func (m *Metrics) RecordDuplicates(n int)      { m.duplicates.Add(float64(n)) }
func (m *Metrics) RecordStaged(n int)          { m.recordsStaged.Add(float64(n)) }
func (m *Metrics) RecordPromoted(n int64)      { m.recordsPromoted.Add(float64(n)) }
func (m *Metrics) RecordEnrichmentError(n int) { m.enrichmentErrors.Add(float64(n)) }
func (m *Metrics) RecordBatchError(n int)      { m.batchErrors.Add(float64(n)) }

func (m *Metrics) RecordDBError(operation DBOperation) {
	m.dbErrors.With(map[string]string{"operation": string(operation)}).Inc()
}
