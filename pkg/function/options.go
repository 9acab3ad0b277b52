package function

import (
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	apiv1 "github.com/chatstack/chatstack/api/v1"
)

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	mungers []MungeFunc
}

// WithMunger adds a munge function that will be applied to each output object.
// Multiple munge functions can be provided and they will be applied in order.
func WithMunger(m MungeFunc) RunOption {
	return func(opts *runConfig) {
		opts.mungers = append(opts.mungers, m)
	}
}

// WithManagedBy labels every output object with the given manager.
func WithManagedBy(manager string) RunOption {
	return WithMunger(func(obj *unstructured.Unstructured) {
		labels := obj.GetLabels()
		if labels == nil {
			labels = make(map[string]string)
		}
		labels[apiv1.ManagedByLabel] = manager
		obj.SetLabels(labels)
	})
}

// WithReconcileInterval asks the downstream reconciler to re-apply the outputs periodically.
func WithReconcileInterval(interval time.Duration) RunOption {
	return WithMunger(func(obj *unstructured.Unstructured) {
		annotations := obj.GetAnnotations()
		if annotations == nil {
			annotations = make(map[string]string)
		}
		annotations[apiv1.ReconcileIntervalAnnotation] = interval.String()
		obj.SetAnnotations(annotations)
	})
}

// CompositeMungeFunc creates a composite munge function that applies all
// mungers in sequence. Returns nil if no mungers are configured.
func (opts *runConfig) CompositeMungeFunc() MungeFunc {
	if len(opts.mungers) == 0 {
		return nil
	}

	return func(obj *unstructured.Unstructured) {
		for _, munger := range opts.mungers {
			munger(obj)
		}
	}
}
