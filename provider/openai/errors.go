package openai

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/openai/openai-go"
)

// wrapError categorizes an SDK error by status code and carries any
// Retry-After hint. Non-API errors pass through for the retry package's
// network heuristics.
func wrapError(provider pyclaw.ProviderName, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	code := apiErr.StatusCode
	msg := apiErr.Message
	if msg == "" {
		msg = pyclaw.MessageForStatus(code)
	}
	e := pyclaw.NewError(provider, pyclaw.KindForStatus(code), code, msg, err)
	if d := parseRetryAfter(apiErr.Response); d > 0 {
		e.Kind = pyclaw.KindTransient
		e.RetryAfter = d
	}
	return e
}

// parseRetryAfter reads Retry-After as seconds or an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
