package function

import (
	"encoding/json"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"

	krmv1 "github.com/chatstack/chatstack/pkg/krm/functions/api/v1"
)

// Scheme resolves the type metadata of typed objects that don't set it.
var Scheme = scheme.Scheme

// OutputTag is the result tag that carries the name of an exported output.
const OutputTag = "output"

// Output is a named value published alongside the synthesized objects.
type Output struct {
	Name   string
	Value  string
	Secret bool
}

type OutputWriter struct {
	outputs   []*unstructured.Unstructured
	results   []*krmv1.Result
	io        io.Writer
	committed bool
	munge     MungeFunc
}

type MungeFunc func(*unstructured.Unstructured)

func NewOutputWriter(w io.Writer, munge MungeFunc) *OutputWriter {
	return &OutputWriter{
		outputs:   []*unstructured.Unstructured{},
		io:        w,
		committed: false,
		munge:     munge,
	}
}

func (w *OutputWriter) AddResult(result *krmv1.Result) {
	w.results = append(w.results, result)
}

// AddOutputs attaches the outputs as info results. Secret values are never written.
func (w *OutputWriter) AddOutputs(outs ...Output) {
	for _, out := range outs {
		msg := out.Value
		if out.Secret {
			msg = "[secret]"
		}
		w.AddResult(&krmv1.Result{
			Message:  msg,
			Severity: krmv1.ResultSeverityInfo,
			Tags:     map[string]string{OutputTag: out.Name},
		})
	}
}

func (w *OutputWriter) Add(outs ...client.Object) error {
	if w.committed {
		return fmt.Errorf("cannot add to a committed output")
	}

	// Doing a "filter" to avoid committing nil values.
	for _, o := range outs {
		if o == nil || isNilPointer(o) {
			continue
		}

		// Resolve GVK if needed
		if o.GetObjectKind().GroupVersionKind().Empty() {
			gvks, _, err := Scheme.ObjectKinds(o)
			if err != nil || len(gvks) == 0 {
				return fmt.Errorf("unable to determine GVK for object %s: %w", o.GetName(), err)
			}
			o.GetObjectKind().SetGroupVersionKind(gvks[0])
		}

		obj, err := runtime.DefaultUnstructuredConverter.ToUnstructured(o)
		if err != nil {
			return fmt.Errorf(
				"converting %s %s to unstructured: %w",
				o.GetName(),
				o.GetObjectKind().GroupVersionKind().Kind,
				err,
			)
		}
		u := &unstructured.Unstructured{Object: obj}
		if w.munge != nil {
			w.munge(u)
		}
		w.outputs = append(w.outputs, u)
	}
	return nil
}

func (w *OutputWriter) Write() error {
	rl := krmv1.NewResourceList()
	rl.Items = w.outputs
	rl.Results = w.results

	err := json.NewEncoder(w.io).Encode(rl)
	if err != nil {
		return fmt.Errorf("writing output to stdout: %w", err)
	}

	w.committed = true
	return nil
}
