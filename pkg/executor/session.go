package executor

import (
	"fmt"

	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// WithSession launches a browser session, runs fn with it and closes the
// session exactly once when fn returns or panics. A close error is
// returned only when fn itself succeeded.
func WithSession(launch core.Launcher, fn func(core.Driver) error) (err error) {
	driver, err := launch()
	if err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}

	defer func() {
		if cerr := driver.Close(); cerr != nil {
			logger.Warn("close browser session: %v", cerr)
			if err == nil {
				err = fmt.Errorf("close browser session: %w", cerr)
			}
		}
	}()

	return fn(driver)
}
