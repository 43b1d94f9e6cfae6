// Package rterrors defines the ThinkLang runtime error taxonomy of
// spec §7. Every error here implements Kinded so that try/catch
// lowering (pkg/codegen) and the checker's catch-clause validation
// (pkg/checker) share one vocabulary of recognized kinds.
package rterrors

import "fmt"

// Kinded is implemented by every runtime error; Kind() is the bare
// name a ThinkLang `catch (Kind e)` clause names.
type Kinded interface {
	error
	Kind() string
}

// KindOf walks an error's chain looking for a Kinded, returning "" if
// none is found (a plain Go error that escaped the runtime).
func KindOf(err error) string {
	for err != nil {
		if k, ok := err.(Kinded); ok {
			return k.Kind()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ""
}

type ThinkError struct{ Message string }

func (e *ThinkError) Error() string { return e.Message }
func (e *ThinkError) Kind() string  { return "ThinkError" }

type SchemaViolation struct {
	Message string
	Raw     string // the raw model output that failed to parse/validate
}

func (e *SchemaViolation) Error() string { return fmt.Sprintf("SchemaViolation: %s", e.Message) }
func (e *SchemaViolation) Kind() string  { return "SchemaViolation" }

type ConfidenceTooLow struct {
	Confidence float64
	Threshold  float64
}

func (e *ConfidenceTooLow) Error() string {
	return fmt.Sprintf("ConfidenceTooLow: %.3f below threshold %.3f", e.Confidence, e.Threshold)
}
func (e *ConfidenceTooLow) Kind() string { return "ConfidenceTooLow" }

type GuardFailed struct {
	GuardName  string
	Value      any
	Constraint any
}

func (e *GuardFailed) Error() string {
	return fmt.Sprintf("GuardFailed: guard %q rejected value %v against constraint %v", e.GuardName, e.Value, e.Constraint)
}
func (e *GuardFailed) Kind() string { return "GuardFailed" }

type TokenBudgetExceeded struct {
	Used   int
	Budget int
}

func (e *TokenBudgetExceeded) Error() string {
	return fmt.Sprintf("TokenBudgetExceeded: %d exceeds budget %d", e.Used, e.Budget)
}
func (e *TokenBudgetExceeded) Kind() string { return "TokenBudgetExceeded" }

type ModelUnavailable struct {
	Model string
	Cause error
}

func (e *ModelUnavailable) Error() string {
	return fmt.Sprintf("ModelUnavailable: %s: %v", e.Model, e.Cause)
}
func (e *ModelUnavailable) Kind() string  { return "ModelUnavailable" }
func (e *ModelUnavailable) Unwrap() error { return e.Cause }

type Timeout struct {
	DurationMs int
}

func (e *Timeout) Error() string { return fmt.Sprintf("Timeout: call exceeded %dms", e.DurationMs) }
func (e *Timeout) Kind() string  { return "Timeout" }

type AgentMaxTurnsError struct {
	MaxTurns int
	Turns    int
}

func (e *AgentMaxTurnsError) Error() string {
	return fmt.Sprintf("AgentMaxTurnsError: exhausted %d/%d turns without a final answer", e.Turns, e.MaxTurns)
}
func (e *AgentMaxTurnsError) Kind() string { return "AgentMaxTurnsError" }

type ToolExecutionError struct {
	ToolName string
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("ToolExecutionError: tool %q: %v", e.ToolName, e.Cause)
}
func (e *ToolExecutionError) Kind() string  { return "ToolExecutionError" }
func (e *ToolExecutionError) Unwrap() error { return e.Cause }

type BatchCostBudgetExceeded struct {
	Budget float64
	Spent  float64
}

func (e *BatchCostBudgetExceeded) Error() string {
	return fmt.Sprintf("BatchCostBudgetExceeded: spent %.4f of budget %.4f", e.Spent, e.Budget)
}
func (e *BatchCostBudgetExceeded) Kind() string { return "BatchCostBudgetExceeded" }

type BatchAbortedError struct{}

func (e *BatchAbortedError) Error() string { return "BatchAbortedError: batch aborted via AbortSignal" }
func (e *BatchAbortedError) Kind() string  { return "BatchAbortedError" }

type InvalidArgument struct{ Message string }

func (e *InvalidArgument) Error() string { return fmt.Sprintf("InvalidArgument: %s", e.Message) }
func (e *InvalidArgument) Kind() string  { return "InvalidArgument" }
