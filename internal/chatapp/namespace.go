package chatapp

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/chatstack/chatstack/internal/component"
	"github.com/chatstack/chatstack/internal/k8s"
)

const NamespaceType = "chatstack:resource:Namespace"

// NamespaceOutputs is the isolation boundary every other component declares its resources in.
type NamespaceOutputs struct {
	Component *component.Component
	Name      string
}

func NewNamespace(ctx context.Context, s *component.Stack, name string, provider k8s.Provider, opts ...component.Option) (*NamespaceOutputs, error) {
	comp, err := s.Register(ctx, NamespaceType, name, provider, opts...)
	if err != nil {
		return nil, err
	}

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	if _, err := comp.Declare(ctx, name, ns); err != nil {
		return nil, fmt.Errorf("declaring namespace: %w", err)
	}

	if err := comp.RegisterOutputs(ctx, component.String("name", name)); err != nil {
		return nil, err
	}
	return &NamespaceOutputs{Component: comp, Name: name}, nil
}
