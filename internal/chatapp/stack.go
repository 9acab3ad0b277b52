// Package chatapp composes the chat application topology: a namespace, a MongoDB replica set,
// the backend API and the web frontend.
package chatapp

import (
	"context"
	"fmt"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/component"
	"github.com/chatstack/chatstack/internal/k8s"
)

const StackType = "chatstack:index:Stack"

// Stack exports.
const (
	ExportFrontendSvcName = "frontendSvcName"
	ExportBackendSvcName  = "backendSvcName"
	ExportMongoSvcName    = "mongoSvcName"
)

// ComponentLabel carries the role of a workload. Services select on it together with the
// component name.
const ComponentLabel = "app.kubernetes.io/component"

const (
	RoleDatabase = "database"
	RoleBackend  = "backend"
	RoleFrontend = "frontend"
)

func podLabels(role, name string) map[string]string {
	return map[string]string{"app": name, ComponentLabel: role}
}

// Synthesis is the result of a single composition pass.
type Synthesis struct {
	Stack *component.Stack

	Namespace *NamespaceOutputs
	Mongo     *MongoOutputs
	Backend   *BackendOutputs
	Frontend  *FrontendOutputs
}

// Synthesize composes the stack described by cfg. The returned stack is sealed.
func Synthesize(ctx context.Context, cfg *apiv1.Stack, provider k8s.Provider) (*Synthesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stack config: %w", err)
	}

	s, err := component.NewStack(cfg.Name)
	if err != nil {
		return nil, err
	}
	root, err := s.Register(ctx, StackType, cfg.Name, provider)
	if err != nil {
		return nil, err
	}
	syn := &Synthesis{Stack: s}
	spec := cfg.Spec

	syn.Namespace, err = NewNamespace(ctx, s, spec.Namespace, provider, component.Parent(root))
	if err != nil {
		return nil, fmt.Errorf("namespace: %w", err)
	}

	syn.Mongo, err = NewMongo(ctx, s, MongoArgs{
		Namespace: syn.Namespace,
		Provider:  provider,
		Spec:      spec.Mongo,
	}, component.Parent(root), component.DependsOn(syn.Namespace.Component))
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}

	syn.Backend, err = NewBackend(ctx, s, BackendArgs{
		Namespace: syn.Namespace,
		Provider:  provider,
		Spec:      spec.Backend,
		Mongo: MongoConnection{
			Namespace:           syn.Namespace.Name,
			StatefulSetName:     syn.Mongo.StatefulSetName,
			HeadlessServiceName: syn.Mongo.HeadlessServiceName,
			Port:                syn.Mongo.Port,
			Replicas:            syn.Mongo.Replicas,
			Username:            spec.Mongo.RootUsername,
			Password:            spec.Mongo.RootPassword,
			Database:            spec.Mongo.Database,
			ReplicaSet:          spec.Mongo.ReplicaSetName,
			AuthSource:          spec.Mongo.AuthSource,
		},
	}, component.Parent(root), component.DependsOn(syn.Namespace.Component, syn.Mongo.Component))
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	syn.Frontend, err = NewFrontend(ctx, s, FrontendArgs{
		Namespace:      syn.Namespace,
		Provider:       provider,
		Spec:           spec.Frontend,
		BackendService: syn.Backend.ServiceName,
		BackendPort:    syn.Backend.Port,
	}, component.Parent(root), component.DependsOn(syn.Namespace.Component, syn.Backend.Component))
	if err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}

	exports := []component.Output{
		component.String(ExportFrontendSvcName, syn.Frontend.ServiceName),
		component.String(ExportBackendSvcName, string(syn.Backend.ServiceName)),
		component.String(ExportMongoSvcName, syn.Mongo.ServiceName),
	}
	for _, out := range exports {
		if err := s.Export(ctx, out); err != nil {
			return nil, err
		}
	}

	s.Seal()
	return syn, nil
}
