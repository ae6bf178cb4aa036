package config

import "time"

// JobxConfig configures the background job engine.
type JobxConfig struct {
	Concurrency     int
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	JobTimeout      time.Duration
	ProgressCadence time.Duration
	ShutdownTimeout time.Duration
}

func loadJobxConfig() JobxConfig {
	return JobxConfig{
		Concurrency:     getEnvInt("JOBX_CONCURRENCY", 5),
		MaxAttempts:     getEnvInt("JOBX_MAX_ATTEMPTS", 3),
		RetryBaseDelay:  getEnvDuration("JOBX_RETRY_BASE_DELAY", 2*time.Second),
		RetryMaxDelay:   getEnvDuration("JOBX_RETRY_MAX_DELAY", time.Minute),
		JobTimeout:      getEnvDuration("JOBX_JOB_TIMEOUT", 15*time.Minute),
		ProgressCadence: getEnvDuration("JOBX_PROGRESS_CADENCE", 2*time.Second),
		ShutdownTimeout: getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}
