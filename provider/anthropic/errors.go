package anthropic

import (
	"errors"
	"strconv"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/anthropics/anthropic-sdk-go"
)

// wrapError categorizes an SDK error by status code. Anthropic answers 529
// when overloaded, which KindForStatus already treats as transient.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	code := apiErr.StatusCode
	e := pyclaw.NewError(pyclaw.ProviderAnthropic, pyclaw.KindForStatus(code), code, pyclaw.MessageForStatus(code), err)
	if apiErr.Response != nil {
		if secs, err := strconv.Atoi(apiErr.Response.Header.Get("Retry-After")); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}
