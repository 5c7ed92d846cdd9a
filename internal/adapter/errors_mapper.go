package adapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/MKhiriev/report-sync/models"
)

var statusErrors = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusLocked:              ErrLocked,
	http.StatusInternalServerError: ErrInternalServerError,
	http.StatusBadGateway:          ErrBadGateway,
	http.StatusServiceUnavailable:  ErrServiceUnavailable,
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	msg := errorMessage(resp.Body())
	if sentinel, ok := statusErrors[resp.StatusCode()]; ok {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), msg)
}

// errorMessage prefers the message of a JSON error body and falls back to
// the raw text.
func errorMessage(body []byte) string {
	var er models.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		if er.Kind != "" {
			return er.Kind + ": " + er.Error
		}
		return er.Error
	}
	return strings.TrimSpace(string(body))
}
