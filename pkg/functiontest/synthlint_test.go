package functiontest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/readiness"
)

// recorder collects failures instead of failing the test.
type recorder struct {
	errors []string
}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() {}

func annotated(obj client.Object, anno map[string]string) client.Object {
	obj.SetAnnotations(anno)
	return obj
}

func TestValidateResourceMeta(t *testing.T) {
	valid := map[string]string{
		apiv1.ComponentAnnotation:      "urn:chatstack:test::a::a",
		apiv1.ResourceIDAnnotation:     "6ba7b811-9dad-11d1-80b4-00c04fd430c8",
		apiv1.ReadinessGroupAnnotation: "2",
		apiv1.ReadinessAnnotation:      "self.status.phase == 'Active'",
	}

	r := &recorder{}
	validateResourceMeta(r, []client.Object{annotated(&corev1.Namespace{}, valid)})
	assert.Empty(t, r.errors)

	invalid := map[string]string{
		apiv1.ResourceIDAnnotation:            "nope",
		apiv1.ReadinessGroupAnnotation:        "first",
		apiv1.ReadinessAnnotation + "-broken": "self.(",
	}
	r = &recorder{}
	validateResourceMeta(r, []client.Object{annotated(&corev1.Namespace{}, invalid)})
	assert.Len(t, r.errors, 4)
}

func TestSelectorsMatchTemplates(t *testing.T) {
	labels := map[string]string{"app": "web"}
	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "demo"},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{Labels: labels}},
		},
	}
	deploy.Kind = "Deployment"
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "demo"},
		Spec:       corev1.ServiceSpec{Selector: labels},
	}
	svc.Kind = "Service"

	r := &recorder{}
	selectorsMatchTemplates(r, []client.Object{deploy, svc})
	assert.Empty(t, r.errors)

	stray := svc.DeepCopy()
	stray.Name = "stray"
	stray.Spec.Selector = map[string]string{"app": "api"}
	r = &recorder{}
	selectorsMatchTemplates(r, []client.Object{deploy, stray})
	assert.Len(t, r.errors, 1)

	otherNs := svc.DeepCopy()
	otherNs.Namespace = "other"
	r = &recorder{}
	selectorsMatchTemplates(r, []client.Object{deploy, otherNs})
	assert.Len(t, r.errors, 1)
}

func TestSelectorsMatchOneWorkload(t *testing.T) {
	newDeploy := func(name string, labels map[string]string) *appsv1.Deployment {
		d := &appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "demo"},
			Spec: appsv1.DeploymentSpec{
				Selector: &metav1.LabelSelector{MatchLabels: labels},
				Template: corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{Labels: labels}},
			},
		}
		d.Kind = "Deployment"
		return d
	}
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "demo"},
		Spec:       corev1.ServiceSpec{Selector: map[string]string{"app": "db"}},
	}
	svc.Kind = "Service"

	// two workloads sharing a name
	r := &recorder{}
	selectorsMatchTemplates(r, []client.Object{
		newDeploy("db", map[string]string{"app": "db"}),
		newDeploy("api", map[string]string{"app": "db"}),
		svc,
	})
	require.Len(t, r.errors, 1)
	assert.Contains(t, r.errors[0], "matches the pods of 2 workloads")

	// the selector is a subset of both pod templates
	r = &recorder{}
	selectorsMatchTemplates(r, []client.Object{
		newDeploy("db", map[string]string{"app": "db", "app.kubernetes.io/component": "database"}),
		newDeploy("api", map[string]string{"app": "db", "app.kubernetes.io/component": "backend"}),
		svc,
	})
	assert.Len(t, r.errors, 1)

	// a role label tells them apart
	scoped := svc.DeepCopy()
	scoped.Spec.Selector = map[string]string{"app": "db", "app.kubernetes.io/component": "database"}
	r = &recorder{}
	selectorsMatchTemplates(r, []client.Object{
		newDeploy("db", map[string]string{"app": "db", "app.kubernetes.io/component": "database"}),
		newDeploy("api", map[string]string{"app": "db", "app.kubernetes.io/component": "backend"}),
		scoped,
	})
	assert.Empty(t, r.errors)
}

func TestReadinessChecksHold(t *testing.T) {
	withCheck := func(obj client.Object, expr string) client.Object {
		obj.SetAnnotations(map[string]string{apiv1.ReadinessAnnotation: expr})
		return obj
	}
	ns := func() *corev1.Namespace {
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "demo"}}
		ns.Kind = "Namespace"
		return ns
	}
	sts := func() *appsv1.StatefulSet {
		sts := &appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "demo"},
			Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To[int32](3)},
		}
		sts.Kind = "StatefulSet"
		return sts
	}
	deploy := func() *appsv1.Deployment {
		d := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "api", Namespace: "demo"}}
		d.Kind = "Deployment"
		return d
	}
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: "api", Namespace: "demo"}}
	svc.Kind = "Service"

	tests := []struct {
		Name   string
		Object client.Object
		Errors int
	}{
		{
			Name:   "namespace",
			Object: withCheck(ns(), readiness.Defaults[schema.GroupKind{Kind: "Namespace"}]),
		},
		{
			Name:   "statefulset",
			Object: withCheck(sts(), readiness.Defaults[schema.GroupKind{Group: "apps", Kind: "StatefulSet"}]),
		},
		{
			Name:   "deployment-without-replicas",
			Object: withCheck(deploy(), readiness.Defaults[schema.GroupKind{Group: "apps", Kind: "Deployment"}]),
		},
		{
			Name:   "no-checks",
			Object: svc,
		},
		{
			Name:   "always-ready",
			Object: withCheck(ns(), "true"),
			Errors: 1,
		},
		{
			Name:   "never-ready",
			Object: withCheck(sts(), "self.status.readyReplicas > self.spec.replicas"),
			Errors: 1,
		},
		{
			Name:   "unknown-kind",
			Object: withCheck(svc.DeepCopy(), "has(self.status.loadBalancer.ingress)"),
		},
	}
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			r := &recorder{}
			readinessChecksHold(r, []client.Object{tc.Object})
			assert.Len(t, r.errors, tc.Errors, r.errors)
		})
	}
}
