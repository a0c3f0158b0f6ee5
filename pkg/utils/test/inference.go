package testutils

import (
	"context"

	"github.com/papercomputeco/ragembed/pkg/inference"
)

// StubExecutionContext is an inference.ExecutionContext that returns a fixed
// output. Compute errors are consumed from ComputeErrs in order; on error
// the output tensor keeps whatever it held before, like a real engine.
type StubExecutionContext struct {
	inference.Tensors

	// Output is copied into the output tensor on every successful Compute.
	Output []byte

	// ComputeErrs is consumed one entry per Compute call. A nil entry
	// means success.
	ComputeErrs []error

	// Inputs records the input tensor at every Compute call.
	Inputs []string

	Closed bool
}

// NewStubExecutionContext returns a stub producing output on every Compute.
func NewStubExecutionContext(output []byte) *StubExecutionContext {
	return &StubExecutionContext{Output: output}
}

func (s *StubExecutionContext) Compute(_ context.Context) error {
	in, err := s.Input()
	if err != nil {
		return err
	}
	s.Inputs = append(s.Inputs, string(in))

	if len(s.ComputeErrs) > 0 {
		err := s.ComputeErrs[0]
		s.ComputeErrs = s.ComputeErrs[1:]
		if err != nil {
			return err
		}
	}

	s.SetOutput(s.Output)
	return nil
}

func (s *StubExecutionContext) Close() error {
	s.Closed = true
	return nil
}

var _ inference.ExecutionContext = (*StubExecutionContext)(nil)
