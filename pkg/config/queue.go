package config

import "time"

// QueueConfig sizes the in-memory AI-job worker pool (C5 AI Pipeline). A
// Hunt completion enqueues a report-generation job; workers pull from a
// bounded channel and run the AI Driver pipeline against it.
type QueueConfig struct {
	// AIWorkerCount is the number of goroutines draining the AI job queue.
	AIWorkerCount int `yaml:"ai_worker_count"`

	// AIQueueCapacity bounds the number of pending AI jobs buffered before
	// Pool.Run blocks the caller.
	AIQueueCapacity int `yaml:"ai_queue_capacity"`

	// JobTimeout is the maximum time a single AI Driver invocation (including
	// streaming) may run before it is canceled.
	JobTimeout time.Duration `yaml:"job_timeout"`

	// GracefulShutdownTimeout bounds how long the pool waits for in-flight
	// jobs to finish during shutdown before abandoning them.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		AIWorkerCount:           3,
		AIQueueCapacity:         64,
		JobTimeout:              5 * time.Minute,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}
