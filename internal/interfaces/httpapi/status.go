package httpapi

import (
	"errors"
	"net/http"

	"referent/internal/domain/entity"
)

// statusFor maps a pipeline error to the HTTP status returned to callers.
func statusFor(err error) int {
	var e *entity.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case entity.ErrInvalidInput, entity.ErrContentUnextractable, entity.ErrContentTooShort:
		return http.StatusBadRequest
	case entity.ErrUpstreamFetchFailed:
		if e.UpstreamStatus >= 400 && e.UpstreamStatus < 500 {
			return e.UpstreamStatus
		}
		return http.StatusBadRequest
	case entity.ErrGenerationTimeout:
		return http.StatusGatewayTimeout
	case entity.ErrInvalidCredential, entity.ErrRateLimited,
		entity.ErrUpstreamUnavailable, entity.ErrUpstreamError:
		if e.UpstreamStatus >= 500 || e.UpstreamStatus < 400 {
			return http.StatusBadGateway
		}
		return e.UpstreamStatus
	default:
		return http.StatusInternalServerError
	}
}
