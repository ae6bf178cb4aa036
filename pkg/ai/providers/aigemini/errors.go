package aigemini

import (
	"net/http"

	"github.com/Abraxas-365/lectio/pkg/errx"
)

var errorRegistry = errx.NewRegistry("GEMINI")

var (
	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to Gemini API",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from Gemini API",
	)

	ErrMissingAPIKey = errorRegistry.Register(
		"MISSING_API_KEY",
		errx.TypeValidation,
		http.StatusUnauthorized,
		"Gemini API key is not configured",
	)

	ErrEmptyMessages = errorRegistry.Register(
		"EMPTY_MESSAGES",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Messages array cannot be empty",
	)

	ErrInvalidMessage = errorRegistry.Register(
		"INVALID_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message could not be converted to Gemini format",
	)
)

// WrapError wraps a low-level error under a registered code.
func WrapError(err error, code *errx.ErrorCode) *errx.Error {
	return errorRegistry.NewWithCause(code, err)
}
