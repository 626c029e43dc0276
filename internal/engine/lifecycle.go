// Package engine implements the step lifecycle (spec §4.7) and the
// test-case executor (spec §4.8): gate, setup hook, attempt loop with
// retry, teardown hook, then emit a StepResult.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/engine/retry"
	"github.com/alexisbeaulieu97/streamy/internal/extractor"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/template"
	"github.com/alexisbeaulieu97/streamy/internal/validation"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// RunStep executes one step through the full lifecycle and satisfies
// plugin.StepRunner, so loop/concurrent runners can recurse into nested
// steps through the same machinery without importing this package.
func RunStep(ctx context.Context, step config.Step, vars *variables.Manager, execCtx *ExecutionContext) model.StepResult {
	start := time.Now()

	recurse := func(c context.Context, s config.Step, v *variables.Manager) model.StepResult {
		return RunStep(c, s, v, execCtx)
	}

	if gated, reason := gate(step, vars, execCtx); gated {
		execCtx.Log.WithFields(map[string]any{"step": step.Name, "reason": reason}).Debug("step gated")
		result := model.StepResult{
			Name:      step.Name,
			Status:    model.StatusSkipped,
			StartTime: start,
			EndTime:   time.Now(),
		}
		execCtx.Results[step.Name] = result
		return result
	}

	runHooks(ctx, step.Setup, vars, execCtx, recurse)

	result := runAttempts(ctx, step, vars, execCtx, recurse)
	result.Name = step.Name
	result.StartTime = start

	runHooks(ctx, step.Teardown, vars, execCtx, recurse)

	result.EndTime = time.Now()
	execCtx.Results[step.Name] = result
	return result
}

// gate evaluates depends_on, skip_if, and only_if (spec §4.7 step 1).
func gate(step config.Step, vars *variables.Manager, execCtx *ExecutionContext) (bool, string) {
	for _, dep := range step.DependsOn {
		result, ok := execCtx.Results[dep]
		if !ok || result.Status != model.StatusSuccess {
			return true, fmt.Sprintf("depends_on %q did not succeed", dep)
		}
	}

	env := vars.All()

	if step.SkipIf != "" {
		truthy, err := template.IsTruthy(step.SkipIf, env)
		if err == nil && truthy {
			return true, "skip_if matched"
		}
	}

	if step.OnlyIf != "" {
		truthy, err := template.IsTruthy(step.OnlyIf, env)
		if err == nil && !truthy {
			return true, "only_if not satisfied"
		}
	}

	return false, ""
}

// runHooks runs a setup/teardown hook body through the same lifecycle as
// an ordinary step, but hook failures are only logged — they never gate
// the owning step or the case (SPEC_FULL.md's hook decision).
func runHooks(ctx context.Context, hooks []config.Step, vars *variables.Manager, execCtx *ExecutionContext, recurse plugin.StepRunner) {
	for _, hook := range hooks {
		result := recurse(ctx, hook, vars)
		if result.Status == model.StatusFailure || result.Status == model.StatusError {
			msg := "hook step failed"
			if result.ErrorInfo != nil {
				msg = result.ErrorInfo.Message
			}
			execCtx.Log.WithFields(map[string]any{"hook": hook.Name}).Warn(msg)
		}
	}
}

// runAttempts performs step 3 of the lifecycle: render+I/O+validate+extract
// per attempt, retrying on failure with a capped-exponential backoff.
func runAttempts(ctx context.Context, step config.Step, vars *variables.Manager, execCtx *ExecutionContext, recurse plugin.StepRunner) model.StepResult {
	runnerImpl, err := plugin.Get(step.Type)
	if err != nil {
		return model.StepResult{ErrorInfo: buildErrorInfo(err), Status: model.StatusError}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = execCtx.Config.Timeout
	}
	if timeout <= 0 {
		timeout = 30
	}

	retryTimes := step.RetryTimes
	if retryTimes <= 0 {
		retryTimes = execCtx.Config.RetryTimes
	}

	backoffPolicy := retry.New()

	var lastResult model.StepResult
	for attempt := 0; attempt <= retryTimes; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		attemptStart := time.Now()
		envelope, runErr := runnerImpl.Run(attemptCtx, step, vars, recurse)
		attemptDuration := time.Since(attemptStart)
		cancel()

		if runErr != nil {
			// A transient attempt failure still retries; once retries are
			// exhausted this resolves to "failure" (spec §7), not "error" —
			// "error" is reserved for steps that never entered the attempt
			// loop at all (e.g. an unregistered step type).
			lastResult = model.StepResult{
				RetryCount: attempt,
				Status:     model.StatusFailure,
				ErrorInfo:  buildErrorInfo(runErr),
			}
		} else {
			validations := validation.Validate(step.Validations, envelope)
			extracted := runExtractors(step.Extractors, envelope, vars, execCtx)

			status := model.StatusSuccess
			for _, v := range validations {
				if !v.Passed {
					status = model.StatusFailure
					break
				}
			}

			lastResult = model.StepResult{
				RetryCount:        attempt,
				Status:            status,
				Response:          envelope,
				ExtractedVars:     extracted,
				ValidationResults: validations,
				Performance:       buildPerformance(envelope, attemptDuration),
				VariablesSnapshot: vars.Snapshot().Extracted,
			}
			if status == model.StatusFailure {
				lastResult.ErrorInfo = buildValidationErrorInfo(validations)
			}
		}

		if lastResult.Status == model.StatusSuccess {
			break
		}
		if attempt == retryTimes {
			break
		}
		if err := backoffPolicy.Sleep(ctx); err != nil {
			break
		}
	}

	return lastResult
}

// runExtractors binds each extractor's value into vars. A failed extractor
// does not fail the step (spec): the named variable is simply left unbound,
// and a warning is logged instead.
func runExtractors(extractors []config.Extractor, envelope map[string]any, vars *variables.Manager, execCtx *ExecutionContext) map[string]any {
	extracted := make(map[string]any, len(extractors))
	for _, e := range extractors {
		value, ok := extractor.Run(e, envelope)
		if !ok {
			execCtx.Log.WithFields(map[string]any{"extractor": e.Name}).Warn("extraction failed; variable not bound")
			continue
		}
		vars.Set(e.Name, value)
		extracted[e.Name] = value
	}
	return extracted
}

func buildPerformance(envelope map[string]any, attemptDuration time.Duration) model.PerformanceMetrics {
	perf := model.PerformanceMetrics{TotalTime: attemptDuration.Seconds() * 1000}
	raw, ok := envelope["performance"].(map[string]any)
	if !ok {
		return perf
	}
	if v, ok := raw["total_time"].(float64); ok {
		perf.TotalTime = v
	}
	if v, ok := raw["dns_time"].(float64); ok {
		perf.DNSTime = v
	}
	if v, ok := raw["tcp_time"].(float64); ok {
		perf.TCPTime = v
	}
	if v, ok := raw["tls_time"].(float64); ok {
		perf.TLSTime = v
	}
	if v, ok := raw["server_time"].(float64); ok {
		perf.ServerTime = v
	}
	if v, ok := raw["download_time"].(float64); ok {
		perf.DownloadTime = v
	}
	if v, ok := raw["size"].(int64); ok {
		perf.Size = v
	}
	return perf
}

func buildErrorInfo(err error) *model.ErrorInfo {
	category := streamyerrors.Category(err)
	return &model.ErrorInfo{
		Type:       fmt.Sprintf("%T", err),
		Category:   category,
		Message:    err.Error(),
		Suggestion: suggestions[category],
		StackTrace: stackTraceFor(category, err),
	}
}

func buildValidationErrorInfo(validations []model.ValidationResult) *model.ErrorInfo {
	for _, v := range validations {
		if v.Passed {
			continue
		}
		msg := v.Error
		if msg == "" {
			msg = fmt.Sprintf("validation %q at %q failed", v.Type, v.Path)
		}
		return &model.ErrorInfo{
			Type:       "ValidationFailure",
			Category:   model.CategoryAssertion,
			Message:    msg,
			Suggestion: suggestions[model.CategoryAssertion],
		}
	}
	return nil
}

// stackTraceFor fills StackTrace only for system-category errors, omitted
// from the serialised report by default (spec §7). The value is the error's
// message; no goroutine stack is captured.
func stackTraceFor(category string, err error) string {
	if category != model.CategorySystem {
		return ""
	}
	return err.Error()
}
