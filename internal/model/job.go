package model

import "time"

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobStarted  JobStatus = "started"
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == JobFinished || s == JobFailed
}

// Job kinds understood by the worker pool.
const (
	JobFullOptimization   = "full_optimization"
	JobSingleOptimization = "single_optimization"
)

// Job is a persisted background job.
type Job struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Queue      string     `json:"queue"`
	User       string     `json:"user"`
	Status     JobStatus  `json:"status"`
	Payload    []byte     `json:"-"`
	Output     []byte     `json:"-"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// JobResult is what pollers see of a job.
type JobResult struct {
	Status JobStatus `json:"status"`
	Output any       `json:"output"`
	Error  string    `json:"error,omitempty"`
}

// FullOptimizationPayload starts a whole-order run.
type FullOptimizationPayload struct {
	OrderName string           `json:"sales_order_name"`
	Config    *OptimizerConfig `json:"config,omitempty"`
}

// SingleOptimizationPayload starts a run of one request attached to a document.
type SingleOptimizationPayload struct {
	DocType         string `json:"doctype"`
	DocName         string `json:"docname"`
	RequestDataJSON string `json:"request_data_json"`
}

// Attachment is a file stored against a document.
type Attachment struct {
	ID          string    `json:"id"`
	DocType     string    `json:"attached_to_doctype"`
	DocName     string    `json:"attached_to_name"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Private     bool      `json:"is_private"`
	Size        int       `json:"size"`
	Content     []byte    `json:"-"`
	Created     time.Time `json:"created"`
}

// Alert is a user-facing notification.
type Alert struct {
	ID      int64     `json:"id"`
	User    string    `json:"user"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
}
