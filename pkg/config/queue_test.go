package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()

	assert.Equal(t, 3, cfg.AIWorkerCount)
	assert.Equal(t, 64, cfg.AIQueueCapacity)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 30*time.Second, cfg.GracefulShutdownTimeout)
}

func TestValidateQueue(t *testing.T) {
	v := func(q *QueueConfig) *Validator {
		cfg := validConfig()
		cfg.Queue = q
		return NewValidator(cfg)
	}

	tests := []struct {
		name    string
		queue   *QueueConfig
		wantErr bool
		errMsg  string
	}{
		{name: "valid defaults", queue: DefaultQueueConfig(), wantErr: false},
		{
			name: "worker count too low",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.AIWorkerCount = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "field 'ai_worker_count': must be between 1 and 50",
		},
		{
			name: "worker count too high",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.AIWorkerCount = 51
				return q
			}(),
			wantErr: true,
			errMsg:  "field 'ai_worker_count': must be between 1 and 50",
		},
		{
			name: "queue capacity zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.AIQueueCapacity = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "field 'ai_queue_capacity': must be at least 1",
		},
		{
			name: "job timeout zero",
			queue: func() *QueueConfig {
				q := DefaultQueueConfig()
				q.JobTimeout = 0
				return q
			}(),
			wantErr: true,
			errMsg:  "field 'job_timeout': must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(tt.queue).validateQueue()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
