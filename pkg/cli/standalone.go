package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/devicelab-dev/verify-runner/pkg/config"
	"github.com/devicelab-dev/verify-runner/pkg/core"
	"github.com/devicelab-dev/verify-runner/pkg/executor"
	"github.com/devicelab-dev/verify-runner/pkg/flow"
	"github.com/devicelab-dev/verify-runner/pkg/flows"
	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// Standalone configures a binary that runs a single built-in flow.
type Standalone struct {
	Flow    string // built-in flow name
	WorkDir string // base for screenshot paths; empty is the working directory

	OnStepStart    func(idx int, step flow.Step)
	OnStepComplete func(idx int, step flow.Step, result *core.StepResult)
}

// RunStandalone runs s.Flow in a headless browser without a report or
// preflight probe. VERIFY_DRIVER and VERIFY_HEADLESS are honoured. The
// returned error carries the failing step's message.
func RunStandalone(ctx context.Context, s Standalone) error {
	f, err := flows.Load(s.Flow)
	if err != nil {
		return err
	}

	cfg := &config.Config{}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("Running %s with %s", s.Flow, cfg.Driver)

	result, err := executor.New(newLauncher(cfg), executor.RunnerConfig{
		WorkDir:        s.WorkDir,
		RunnerVersion:  Version,
		DriverName:     cfg.Driver,
		OnStepStart:    s.OnStepStart,
		OnStepComplete: s.OnStepComplete,
	}).Run(ctx, []flow.Flow{*f})
	if err != nil {
		return err
	}

	if failed := result.FirstFailure(); failed != nil {
		if failed.Error == "" {
			return fmt.Errorf("flow %s failed", failed.Name)
		}
		return errors.New(failed.Error)
	}
	return nil
}
