package aiopenai

import (
	"net/http"

	"github.com/Abraxas-365/lectio/pkg/errx"
)

var errorRegistry = errx.NewRegistry("OPENAI")

var (
	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to OpenAI API",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from OpenAI API",
	)

	ErrMissingAPIKey = errorRegistry.Register(
		"MISSING_API_KEY",
		errx.TypeValidation,
		http.StatusUnauthorized,
		"OpenAI API key is not configured",
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
		"Message could not be converted to OpenAI format",
	)

	ErrNoChoicesInResponse = errorRegistry.Register(
		"NO_CHOICES",
		errx.TypeExternal,
		http.StatusBadGateway,
		"OpenAI response contained no choices",
	)

	ErrConversionFailed = errorRegistry.Register(
		"CONVERSION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to convert request parameters",
	)
)

// WrapError wraps a low-level error under a registered code.
func WrapError(err error, code *errx.ErrorCode) *errx.Error {
	return errorRegistry.NewWithCause(code, err)
}
