package component

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/k8s"
	"github.com/chatstack/chatstack/internal/readiness"
)

// Component is a named bundle of related resources.
// Components are created by Stack.Register and are only valid within their stack.
type Component struct {
	Type     string
	Name     string
	URN      string
	Provider k8s.Provider

	stack          *Stack
	typeChain      string
	parent         *Component
	dependsOn      []*Component
	readinessGroup int
	resources      []*Resource
	outputs        Outputs
}

func (c *Component) Parent() *Component { return c.parent }

func (c *Component) DependsOn() []*Component { return c.dependsOn }

// ReadinessGroup is zero for components without dependencies, otherwise one more than the
// highest group among the dependencies.
func (c *Component) ReadinessGroup() int { return c.readinessGroup }

func (c *Component) Resources() []*Resource { return c.resources }

func (c *Component) Outputs() Outputs { return c.outputs }

// RegisterOutputs publishes the component's named outputs.
func (c *Component) RegisterOutputs(ctx context.Context, outs ...Output) error {
	if c.stack.sealed {
		return fmt.Errorf("registering outputs of %s: %w", c.URN, ErrSealed)
	}
	for _, out := range outs {
		if err := c.outputs.add(out); err != nil {
			return fmt.Errorf("registering outputs of %s: %w", c.URN, err)
		}
		c.stack.events.OutputExported(ctx, c.URN, out.Name, out.Value, out.Secret)
	}
	return nil
}

type declareConfig struct {
	readiness        map[string]string
	skipDefaultCheck bool
}

type DeclareOption func(*declareConfig)

// WithReadiness attaches a named CEL readiness expression evaluated against the live resource.
// The name "default" replaces the kind's default check.
func WithReadiness(name, expr string) DeclareOption {
	return func(dc *declareConfig) {
		dc.readiness[name] = expr
	}
}

// WithoutDefaultReadiness drops the kind's default readiness check.
func WithoutDefaultReadiness() DeclareOption {
	return func(dc *declareConfig) {
		dc.skipDefaultCheck = true
	}
}

// Declare adds a Kubernetes object to the component.
//
// The object's type metadata is resolved from the client-go scheme when unset, and the
// object is annotated with its owning component, provider, stable ID, readiness group and
// readiness checks. The object itself is retained, not copied.
func (c *Component) Declare(ctx context.Context, logicalName string, obj client.Object, opts ...DeclareOption) (*Resource, error) {
	if c.stack.sealed {
		return nil, fmt.Errorf("declaring %q in %s: %w", logicalName, c.URN, ErrSealed)
	}
	if obj == nil {
		return nil, fmt.Errorf("declaring %q in %s: object is nil", logicalName, c.URN)
	}

	if obj.GetObjectKind().GroupVersionKind().Empty() {
		gvks, _, err := scheme.Scheme.ObjectKinds(obj)
		if err != nil || len(gvks) == 0 {
			return nil, fmt.Errorf("unable to determine GVK for %q in %s: %w", logicalName, c.URN, err)
		}
		obj.GetObjectKind().SetGroupVersionKind(gvks[0])
	}
	gvk := obj.GetObjectKind().GroupVersionKind()
	if obj.GetName() == "" {
		return nil, fmt.Errorf("declaring %s %q in %s: metadata.name is required", gvk.Kind, logicalName, c.URN)
	}

	ref := Ref{Kind: gvk.Kind, Namespace: obj.GetNamespace(), Name: obj.GetName()}
	if existing, ok := c.stack.byRef[ref]; ok {
		return nil, fmt.Errorf("%s is declared by both %s and %s", ref, existing.Component.URN, c.URN)
	}

	dc := &declareConfig{readiness: map[string]string{}}
	for _, opt := range opts {
		opt(dc)
	}
	if expr, ok := readiness.Defaults[gvk.GroupKind()]; ok && !dc.skipDefaultCheck {
		if _, overridden := dc.readiness["default"]; !overridden {
			dc.readiness["default"] = expr
		}
	}
	checks, err := c.stack.parseChecks(dc.readiness)
	if err != nil {
		return nil, fmt.Errorf("declaring %s in %s: %w", ref, c.URN, err)
	}

	urn := fmt.Sprintf("%s$%s::%s", c.URN, gvk.Kind, logicalName)
	res := &Resource{
		Ref:             ref,
		URN:             urn,
		ID:              resourceID(urn),
		LogicalName:     logicalName,
		GVK:             gvk,
		Component:       c,
		ReadinessGroup:  c.readinessGroup,
		ReadinessChecks: checks,
		Object:          obj,
	}

	anno := map[string]string{}
	for k, v := range obj.GetAnnotations() {
		anno[k] = v
	}
	anno[apiv1.ComponentAnnotation] = c.URN
	anno[apiv1.ProviderAnnotation] = c.Provider.Name
	anno[apiv1.ResourceIDAnnotation] = res.ID.String()
	anno[apiv1.ReadinessGroupAnnotation] = strconv.Itoa(res.ReadinessGroup)
	for _, check := range checks {
		anno[readinessAnnotationKey(check.Name)] = check.Expr
	}
	obj.SetAnnotations(anno)

	labels := map[string]string{}
	for k, v := range obj.GetLabels() {
		labels[k] = v
	}
	labels[apiv1.ManagedByLabel] = apiv1.ManagedByValue
	obj.SetLabels(labels)

	c.resources = append(c.resources, res)
	c.stack.resources = append(c.stack.resources, res)
	c.stack.byRef[ref] = res

	resourcesDeclared.WithLabelValues(gvk.Kind).Inc()
	c.stack.events.ResourceDeclared(ctx, gvk.Kind, ref.Namespace, ref.Name, c.URN)
	return res, nil
}

func readinessAnnotationKey(name string) string {
	if name == "default" {
		return apiv1.ReadinessAnnotation
	}
	return apiv1.ReadinessAnnotation + "-" + name
}

func (s *Stack) parseChecks(exprs map[string]string) (readiness.Checks, error) {
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	var checks readiness.Checks
	for _, name := range names {
		check, err := readiness.ParseCheck(s.readiness, name, exprs[name])
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, nil
}
