package jobx

import "github.com/Abraxas-365/lectio/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound    = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrNoProcessor    = jobxErrors.Register("NO_PROCESSOR", errx.TypeValidation, 400, "No processor registered for job type")
	ErrAlreadyRunning = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Engine is already running")
	ErrNotRunning     = jobxErrors.Register("NOT_RUNNING", errx.TypeConflict, 409, "Engine is not running")
	ErrJobTerminal    = jobxErrors.Register("JOB_TERMINAL", errx.TypeConflict, 409, "Job is already in a terminal state")
	ErrInvalidJob     = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
)
