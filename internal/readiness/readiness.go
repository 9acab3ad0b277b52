package readiness

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Defaults are the readiness expressions attached to workload kinds that don't set their own.
// The downstream reconciler holds back the next readiness group until these hold.
var Defaults = map[schema.GroupKind]string{
	{Kind: "Namespace"}:                  "self.status.phase == 'Active'",
	{Group: "apps", Kind: "StatefulSet"}: "has(self.status.readyReplicas) && self.status.readyReplicas == self.spec.replicas",
	{Group: "apps", Kind: "Deployment"}:  "has(self.status.availableReplicas) && self.status.availableReplicas >= self.spec.replicas",
}

// Env encapsulates a CEL environment for use in readiness checks.
type Env struct {
	cel *cel.Env
}

func NewEnv() (*Env, error) {
	ce, err := cel.NewEnv(cel.Variable("self", cel.DynType))
	if err != nil {
		return nil, err
	}
	return &Env{cel: ce}, nil
}

// Check represents a parsed readiness check CEL expression.
type Check struct {
	Name    string
	Expr    string
	program cel.Program
}

// ParseCheck compiles the given CEL expression in the context of an environment,
// and returns a reusable execution handle.
func ParseCheck(env *Env, name, expr string) (*Check, error) {
	ast, iss := env.cel.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling readiness check %q: %w", name, iss.Err())
	}
	prgm, err := env.cel.Program(ast, cel.InterruptCheckFrequency(10))
	if err != nil {
		return nil, fmt.Errorf("planning readiness check %q: %w", name, err)
	}
	return &Check{Name: name, Expr: expr, program: prgm}, nil
}

// Eval executes the compiled check against a given resource.
// Evaluation errors (missing fields, type mismatches) count as not ready.
func (c *Check) Eval(ctx context.Context, resource *unstructured.Unstructured) bool {
	if resource == nil {
		return false
	}
	val, _, err := c.program.ContextEval(ctx, map[string]any{"self": resource.Object})
	if err != nil {
		return false
	}
	return val == celtypes.True
}

type Checks []*Check

// Eval returns true when every check passes. An empty set is always ready.
func (c Checks) Eval(ctx context.Context, resource *unstructured.Unstructured) bool {
	for _, check := range c {
		if !check.Eval(ctx, resource) {
			return false
		}
	}
	return true
}
