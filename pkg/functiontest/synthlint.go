package functiontest

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/readiness"
	"github.com/chatstack/chatstack/pkg/function"
)

// ValidateResourceMeta is an Assertion that proves the outputs carry valid chatstack metadata:
// an owning component, a stable resource ID, an integer readiness group, and readiness
// expressions that compile.
func ValidateResourceMeta[T function.Inputs]() Assertion[T] {
	return func(t *testing.T, s *Scenario[T], outputs *function.Synthesis) {
		validateResourceMeta(t, outputs.Objects)
	}
}

func validateResourceMeta(t require.TestingT, outputs []client.Object) {
	env, err := readiness.NewEnv()
	require.NoError(t, err)

	for i, output := range outputs {
		anno := output.GetAnnotations()
		id := output.GetObjectKind().GroupVersionKind().Kind + "/" + output.GetName()

		if anno[apiv1.ComponentAnnotation] == "" {
			t.Errorf("resource at index=%d (%s) has no owning component", i, id)
		}
		if _, err := uuid.Parse(anno[apiv1.ResourceIDAnnotation]); err != nil {
			t.Errorf("resource at index=%d (%s) has an invalid resource id: %s", i, id, err)
		}
		if group, err := strconv.Atoi(anno[apiv1.ReadinessGroupAnnotation]); err != nil || group < 0 {
			t.Errorf("resource at index=%d (%s) has an invalid readiness group %q", i, id, anno[apiv1.ReadinessGroupAnnotation])
		}
		_, errs := readinessChecks(env, anno)
		for _, err := range errs {
			t.Errorf("resource at index=%d (%s) has an invalid readiness check: %s", i, id, err)
		}
	}
}

func readinessChecks(env *readiness.Env, anno map[string]string) (readiness.Checks, []error) {
	var checks readiness.Checks
	var errs []error
	for key, expr := range anno {
		if !strings.HasPrefix(key, apiv1.ReadinessAnnotation) || key == apiv1.ReadinessGroupAnnotation {
			continue
		}
		check, err := readiness.ParseCheck(env, key, expr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		checks = append(checks, check)
	}
	return checks, errs
}

// ReadinessChecksHold is an Assertion that the readiness checks of every output fail against
// the object as synthesized, and pass once a Namespace, Deployment, StatefulSet or ReplicaSet
// reports a ready status.
func ReadinessChecksHold[T function.Inputs]() Assertion[T] {
	return func(t *testing.T, s *Scenario[T], outputs *function.Synthesis) {
		readinessChecksHold(t, outputs.Objects)
	}
}

func readinessChecksHold(t require.TestingT, outputs []client.Object) {
	env, err := readiness.NewEnv()
	require.NoError(t, err)
	ctx := context.Background()

	for _, output := range outputs {
		checks, _ := readinessChecks(env, output.GetAnnotations())
		if len(checks) == 0 {
			continue
		}
		obj, err := runtime.DefaultUnstructuredConverter.ToUnstructured(output)
		require.NoError(t, err)
		u := &unstructured.Unstructured{Object: obj}
		id := u.GetKind() + "/" + u.GetName()

		if checks.Eval(ctx, u) {
			t.Errorf("%s is ready before reporting any status", id)
		}
		if ready, ok := withReadyStatus(u); ok && !checks.Eval(ctx, ready) {
			t.Errorf("%s is not ready after reporting a ready status", id)
		}
	}
}

// withReadyStatus returns a copy of u with the status a healthy object of its kind reports.
func withReadyStatus(u *unstructured.Unstructured) (*unstructured.Unstructured, bool) {
	ready := u.DeepCopy()
	switch u.GetKind() {
	case "Namespace":
		unstructured.SetNestedField(ready.Object, "Active", "status", "phase")
	case "Deployment", "StatefulSet", "ReplicaSet":
		replicas, found, _ := unstructured.NestedInt64(u.Object, "spec", "replicas")
		if !found {
			// defaulted by the apiserver
			replicas = 1
			unstructured.SetNestedField(ready.Object, replicas, "spec", "replicas")
		}
		for _, field := range []string{"replicas", "readyReplicas", "availableReplicas", "updatedReplicas"} {
			unstructured.SetNestedField(ready.Object, replicas, "status", field)
		}
	default:
		return nil, false
	}
	return ready, true
}

// SelectorsMatchTemplates is an Assertion that every Service selects the pods of exactly one
// workload in its namespace, and that every workload selects its own pods.
func SelectorsMatchTemplates[T function.Inputs]() Assertion[T] {
	return func(t *testing.T, s *Scenario[T], outputs *function.Synthesis) {
		selectorsMatchTemplates(t, outputs.Objects)
	}
}

func selectorsMatchTemplates(t require.TestingT, outputs []client.Object) {
	type workload struct {
		name      string
		namespace string
		labels    labels.Set
	}
	var workloads []workload
	var services []*unstructured.Unstructured

	for _, output := range outputs {
		obj, err := runtime.DefaultUnstructuredConverter.ToUnstructured(output)
		require.NoError(t, err)
		u := &unstructured.Unstructured{Object: obj}

		switch u.GetKind() {
		case "Service":
			services = append(services, u)
		case "Deployment", "StatefulSet", "DaemonSet", "ReplicaSet":
			tmpl, _, _ := unstructured.NestedStringMap(u.Object, "spec", "template", "metadata", "labels")
			sel, _, _ := unstructured.NestedStringMap(u.Object, "spec", "selector", "matchLabels")
			assert.Equal(t, tmpl, sel, "%s %s selector must match its pod template labels", u.GetKind(), u.GetName())
			workloads = append(workloads, workload{name: u.GetKind() + "/" + u.GetName(), namespace: u.GetNamespace(), labels: tmpl})
		}
	}

	for _, svc := range services {
		sel, _, _ := unstructured.NestedStringMap(svc.Object, "spec", "selector")
		if len(sel) == 0 {
			t.Errorf("service %s has no selector", svc.GetName())
			continue
		}
		selector := labels.SelectorFromSet(sel)

		var matched []string
		for _, w := range workloads {
			if w.namespace == svc.GetNamespace() && selector.Matches(w.labels) {
				matched = append(matched, w.name)
			}
		}
		switch len(matched) {
		case 0:
			t.Errorf("service %s selects %v, which matches the pods of no workload", svc.GetName(), sel)
		case 1:
		default:
			t.Errorf("service %s selects %v, which matches the pods of %d workloads: %s", svc.GetName(), sel, len(matched), strings.Join(matched, ", "))
		}
	}
}
