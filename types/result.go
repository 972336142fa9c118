package types

import "fmt"

// ResultKind describes how many values a block invocation yields.
type ResultKind int

const (
	// ResultOnce carries exactly one output.
	ResultOnce ResultKind = iota
	// ResultMultiple fans one invocation out to several successor edges.
	ResultMultiple
	// ResultRecurring is a long-lived producer drained one value per tick.
	ResultRecurring
)

// String implements fmt.Stringer.
func (k ResultKind) String() string {
	switch k {
	case ResultOnce:
		return "once"
	case ResultMultiple:
		return "multiple"
	case ResultRecurring:
		return "recurring"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// ExecutionResult is what a block hands back to the runtime.
type ExecutionResult struct {
	Kind    ResultKind
	Output  BlockOutput
	Outputs []BlockOutput
	Stream  <-chan BlockOutput
}

// Once wraps a single output.
func Once(out BlockOutput) ExecutionResult {
	return ExecutionResult{Kind: ResultOnce, Output: out}
}

// Multiple wraps an ordered set of outputs, one per successor edge.
func Multiple(outs ...BlockOutput) ExecutionResult {
	if outs == nil {
		outs = []BlockOutput{}
	}
	return ExecutionResult{Kind: ResultMultiple, Outputs: outs}
}

// Recurring wraps the read end of a producer channel. The producer closes the
// channel when it stops.
func Recurring(stream <-chan BlockOutput) ExecutionResult {
	return ExecutionResult{Kind: ResultRecurring, Stream: stream}
}
