package gemini

import (
	"errors"

	"github.com/9v2/pyclaw"
	"google.golang.org/genai"
)

// wrapError categorizes a GenAI API error. The SDK does not expose response
// headers, so RetryAfter is never set. Other errors pass through for the
// retry package's network heuristics.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = pyclaw.MessageForStatus(apiErr.Code)
	}
	return pyclaw.NewError(pyclaw.ProviderAntigravity, pyclaw.KindForStatus(apiErr.Code), apiErr.Code, msg, err)
}
