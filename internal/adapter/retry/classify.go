package retry

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Retryable reports whether err from an OpenAI-compatible endpoint may succeed
// on a later attempt. Client errors other than rate limiting are final.
func Retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return !isClientError(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return !isClientError(reqErr.HTTPStatusCode)
	}
	return true
}

func isClientError(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}
