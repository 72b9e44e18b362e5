package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/baxromumarov/policy-summarizer/internal/httpx"
)

const (
	ErrorTimeout   = "timeout"
	ErrorNotFound  = "not_found"
	ErrorTooLarge  = "too_large"
	ErrorAI        = "ai"
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorUnknown   = "unknown"
)

// kinded is implemented by domain errors that know their own classification.
type kinded interface {
	ErrorKind() string
}

// ClassifyError maps an error chain to one of the Error* kinds.
func ClassifyError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if IsTimeout(err) {
		return ErrorTimeout
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return ClassifyFetchError(err)
}

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if IsTimeout(err) {
		return ErrorTimeout
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		if fe.Status == http.StatusTooManyRequests {
			return ErrorRateLimit
		}
		return ErrorNetwork
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrorParsing
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// IsTimeout reports whether err was caused by a deadline rather than an
// explicit failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
