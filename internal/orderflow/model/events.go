package model

import "time"

const (
	EventBatchStaged   = "batch_staged"
	EventBatchPromoted = "batch_promoted"
)

// PipelineEvent is published on the events channel whenever a batch is
// staged or promoted, so downstream consumers don't have to poll.
type PipelineEvent struct {
	Name      string    `json:"event"`
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}
