package playwright

import (
	"errors"

	pw "github.com/playwright-community/playwright-go"

	"github.com/devicelab-dev/verify-runner/pkg/core"
)

// mapError wraps a Playwright error in fallback, or in ErrSessionClosed when
// the page or browser has gone away.
func mapError(err error, fallback *core.ExecutionError) error {
	if err == nil {
		return nil
	}
	if isClosed(err) {
		return core.ErrSessionClosed.WithCause(err)
	}
	return fallback.WithCause(err)
}

func isTimeout(err error) bool {
	return errors.Is(err, pw.ErrTimeout)
}

func isClosed(err error) bool {
	return errors.Is(err, pw.ErrTargetClosed)
}
