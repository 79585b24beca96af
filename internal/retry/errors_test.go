package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/9v2/pyclaw"
	"github.com/stretchr/testify/assert"
)

type statusError struct{ code int }

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o stalled" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

var _ net.Error = netTimeout{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"classified transient", pyclaw.NewError(pyclaw.ProviderOpenAI, pyclaw.KindTransient, 503, "unavailable", nil), true},
		{"classified permanent wins over message", pyclaw.NewError(pyclaw.ProviderOpenAI, pyclaw.KindPermanent, 401, "timeout in auth", nil), false},
		{"wrapped classified", fmt.Errorf("stream: %w", pyclaw.NewError(pyclaw.ProviderAnthropic, pyclaw.KindTransient, 429, "", nil)), true},
		{"status 429", &statusError{429}, true},
		{"status 502", &statusError{502}, true},
		{"status 404", &statusError{404}, false},
		{"net timeout", netTimeout{}, true},
		{"connection reset errno", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"message pattern", errors.New("upstream said: Too Many Requests"), true},
		{"context cancelled", context.Canceled, false},
		{"plain error", errors.New("invalid api key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
