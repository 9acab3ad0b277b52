package function

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"sigs.k8s.io/controller-runtime/pkg/client"

	krmv1 "github.com/chatstack/chatstack/pkg/krm/functions/api/v1"
)

// Inputs is satisfied by any struct that defines the inputs required by a SynthFunc.
// Use the `chatstack_key` struct tag to specify the corresponding input key for each field.
type Inputs interface{}

// Synthesis is everything a SynthFunc produces.
type Synthesis struct {
	Objects []client.Object
	Outputs []Output
}

// SynthFunc defines a synthesizer function that takes a set of inputs and returns objects and outputs.
type SynthFunc[T Inputs] func(ctx context.Context, inputs T) (*Synthesis, error)

// Run calls fn with the inputs read by ir and writes the resulting ResourceList to w.
// Input and synthesis errors are reported as error results, not returned.
func Run[T Inputs](ctx context.Context, fn SynthFunc[T], ir *InputReader, w io.Writer, opts ...RunOption) error {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return run(ctx, fn, ir, NewOutputWriter(w, cfg.CompositeMungeFunc()))
}

func run[T Inputs](ctx context.Context, fn SynthFunc[T], ir *InputReader, ow *OutputWriter) error {
	var inputs T
	if reflect.TypeOf(inputs) != nil {
		if err := readInputs(ir, &inputs); err != nil {
			ow.AddResult(&krmv1.Result{
				Message:  fmt.Sprintf("error while reading inputs: %s", err),
				Severity: krmv1.ResultSeverityError,
			})
			return ow.Write()
		}
	}

	// Call the fn and handle errors through the KRM interface
	syn, err := fn(ctx, inputs)
	if err != nil {
		ow.AddResult(&krmv1.Result{
			Message:  err.Error(),
			Severity: krmv1.ResultSeverityError,
		})
		return ow.Write()
	}

	if syn != nil {
		if err := ow.Add(syn.Objects...); err != nil {
			return err
		}
		ow.AddOutputs(syn.Outputs...)
	}
	return ow.Write()
}

func isNilPointer(obj client.Object) bool {
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
