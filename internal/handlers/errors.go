package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/services"
)

// respondError translates a service error into the API error response.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAuth):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUpstream):
		logging.FromContext(c).WithError(causeOf(err)).Warn("upstream service failed")
		apierrors.BadGateway(c, err.Error(), upstreamDetails(err))
	case errors.Is(err, services.ErrUnavailable):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		logging.FromContext(c).WithError(err).Error("unexpected error")
		apierrors.InternalError(c, "")
	}
}

func causeOf(err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) && svcErr.Err != nil {
		return svcErr.Err
	}
	return err
}

// upstreamDetails lists the individual failures behind an aggregate error.
func upstreamDetails(err error) []string {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) || svcErr.Err == nil {
		return nil
	}
	if joined, ok := svcErr.Err.(interface{ Unwrap() []error }); ok {
		details := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			details = append(details, e.Error())
		}
		return details
	}
	return []string{svcErr.Err.Error()}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC3339 timestamps and plain dates as sent by date
// pickers. Empty input yields nil.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			t = t.UTC()
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
