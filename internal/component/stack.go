package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/emirpasic/gods/v2/trees/redblacktree"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/chatstack/chatstack/internal/k8s"
	"github.com/chatstack/chatstack/internal/logging"
	"github.com/chatstack/chatstack/internal/readiness"
)

// ErrSealed is returned when a sealed stack is modified.
var ErrSealed = errors.New("stack is sealed")

// Stack is the composition context of a single evaluation pass.
// Components are registered in dependency order: a component can only depend on components
// that were registered before it. NOT CONCURRENCY SAFE.
type Stack struct {
	Name string

	components []*Component
	byURN      map[string]*Component
	resources  []*Resource
	byRef      map[Ref]*Resource
	exports    Outputs
	sealed     bool

	events    *logging.Logger
	readiness *readiness.Env
}

func NewStack(name string) (*Stack, error) {
	if name == "" {
		return nil, fmt.Errorf("stack name is required")
	}
	env, err := readiness.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("creating readiness environment: %w", err)
	}
	return &Stack{
		Name:      name,
		byURN:     map[string]*Component{},
		byRef:     map[Ref]*Resource{},
		events:    logging.NewLogger(),
		readiness: env,
	}, nil
}

// WithEventLogger replaces the logger that records composition events.
func (s *Stack) WithEventLogger(l *logging.Logger) *Stack {
	s.events = l
	return s
}

type registerConfig struct {
	parent    *Component
	dependsOn []*Component
}

type Option func(*registerConfig)

// DependsOn orders the component after the given components.
func DependsOn(deps ...*Component) Option {
	return func(rc *registerConfig) {
		rc.dependsOn = append(rc.dependsOn, deps...)
	}
}

// Parent nests the component under another component. Parents do not affect ordering.
func Parent(p *Component) Option {
	return func(rc *registerConfig) {
		rc.parent = p
	}
}

// Register creates a component of the given type and name.
func (s *Stack) Register(ctx context.Context, typ, name string, provider k8s.Provider, opts ...Option) (*Component, error) {
	if s.sealed {
		return nil, fmt.Errorf("registering %s %q: %w", typ, name, ErrSealed)
	}
	if typ == "" || name == "" {
		return nil, fmt.Errorf("component type and name are required")
	}

	rc := &registerConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	c := &Component{
		Type:      typ,
		Name:      name,
		Provider:  provider,
		stack:     s,
		typeChain: typ,
	}
	if rc.parent != nil {
		if !s.owns(rc.parent) {
			return nil, fmt.Errorf("parent of %s %q is not registered with stack %q", typ, name, s.Name)
		}
		c.parent = rc.parent
		c.typeChain = rc.parent.typeChain + "$" + typ
	}
	c.URN = fmt.Sprintf("urn:chatstack:%s::%s::%s", s.Name, c.typeChain, name)
	if _, exists := s.byURN[c.URN]; exists {
		return nil, fmt.Errorf("component %s is already registered", c.URN)
	}

	seen := map[*Component]struct{}{}
	var depURNs []string
	for _, dep := range rc.dependsOn {
		if dep == nil || !s.owns(dep) {
			return nil, fmt.Errorf("dependency of %s must be registered with stack %q before it", c.URN, s.Name)
		}
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}
		c.dependsOn = append(c.dependsOn, dep)
		depURNs = append(depURNs, dep.URN)
		if dep.readinessGroup+1 > c.readinessGroup {
			c.readinessGroup = dep.readinessGroup + 1
		}
	}

	s.components = append(s.components, c)
	s.byURN[c.URN] = c

	componentsRegistered.Inc()
	s.events.ComponentRegistered(ctx, c.URN, c.readinessGroup, depURNs)
	return c, nil
}

func (s *Stack) owns(c *Component) bool {
	return c != nil && c.stack == s && s.byURN[c.URN] == c
}

// Export publishes a stack-level output.
func (s *Stack) Export(ctx context.Context, out Output) error {
	if s.sealed {
		return fmt.Errorf("exporting %q: %w", out.Name, ErrSealed)
	}
	if err := s.exports.add(out); err != nil {
		return fmt.Errorf("exporting from stack %q: %w", s.Name, err)
	}
	s.events.OutputExported(ctx, s.Name, out.Name, out.Value, out.Secret)
	return nil
}

func (s *Stack) Exports() Outputs { return s.exports }

// Components returns every component in registration order.
func (s *Stack) Components() []*Component { return s.components }

// Seal ends the composition pass. Later registrations, declarations and exports fail.
func (s *Stack) Seal() { s.sealed = true }

func (s *Stack) Sealed() bool { return s.sealed }

func (s *Stack) Lookup(ref Ref) (*Resource, bool) {
	res, ok := s.byRef[ref]
	return res, ok
}

// Resources returns every declared resource ordered by readiness group, and by declaration
// order within a group.
func (s *Stack) Resources() []*Resource {
	byGroup := redblacktree.New[int, []*Resource]()
	for _, res := range s.resources {
		current, _ := byGroup.Get(res.ReadinessGroup)
		byGroup.Put(res.ReadinessGroup, append(current, res))
	}

	ordered := make([]*Resource, 0, len(s.resources))
	it := byGroup.Iterator()
	for it.Next() {
		ordered = append(ordered, it.Value()...)
	}
	return ordered
}

// Objects returns the declared objects in the same order as Resources.
func (s *Stack) Objects() []client.Object {
	resources := s.Resources()
	objs := make([]client.Object, len(resources))
	for i, res := range resources {
		objs[i] = res.Object
	}
	return objs
}

// GraphNode summarizes one component for display.
type GraphNode struct {
	URN            string
	ReadinessGroup int
	Parent         string
	DependsOn      []string
	Resources      []*Resource
}

// Graph returns the components ordered by readiness group, then registration order.
func (s *Stack) Graph() []GraphNode {
	byGroup := redblacktree.New[int, []*Component]()
	for _, c := range s.components {
		current, _ := byGroup.Get(c.readinessGroup)
		byGroup.Put(c.readinessGroup, append(current, c))
	}

	var nodes []GraphNode
	it := byGroup.Iterator()
	for it.Next() {
		for _, c := range it.Value() {
			node := GraphNode{URN: c.URN, ReadinessGroup: c.readinessGroup, Resources: c.resources}
			if c.parent != nil {
				node.Parent = c.parent.URN
			}
			for _, dep := range c.dependsOn {
				node.DependsOn = append(node.DependsOn, dep.URN)
			}
			nodes = append(nodes, node)
		}
	}
	return nodes
}
