// Package jobs hosts the background worker that keeps the dashboard's
// filter-option cache warm and invalidated after data loads.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOptionsWarmup refreshes the cached filter options.
	TaskOptionsWarmup = "metrics:options_warmup"
)

// OptionsWarmupPayload controls a warmup run. Bump forces invalidation
// before the reload, which is what data-load pipelines enqueue after
// replacing the fact tables.
type OptionsWarmupPayload struct {
	Bump bool `json:"bump"`
}

// NewOptionsWarmupTask constructs an Asynq task for a warmup run.
func NewOptionsWarmupTask(payload OptionsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOptionsWarmup, data), nil
}
