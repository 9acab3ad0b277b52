package chatapp

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/component"
	"github.com/chatstack/chatstack/internal/k8s"
)

const FrontendType = "chatstack:resource:Frontend"

// ServiceName is an in-cluster service name that other workloads address directly.
type ServiceName string

// BackendServiceName is fixed because the frontend image is built against it.
const BackendServiceName ServiceName = "backend"

type FrontendArgs struct {
	Namespace *NamespaceOutputs
	Provider  k8s.Provider
	Spec      apiv1.FrontendSpec

	BackendService ServiceName
	BackendPort    int32
}

type FrontendOutputs struct {
	Component *component.Component

	ServiceName    string
	DeploymentName string
	NodePort       int32
}

// APIURL is the backend address handed to the browser application.
func (a FrontendArgs) APIURL() string {
	return fmt.Sprintf("http://%s:%d", a.BackendService, a.BackendPort)
}

// NewFrontend declares the web UI and exposes it on a fixed node port.
func NewFrontend(ctx context.Context, s *component.Stack, args FrontendArgs, opts ...component.Option) (*FrontendOutputs, error) {
	spec := args.Spec
	if args.BackendService == "" {
		return nil, fmt.Errorf("frontend %q requires a backend service name", spec.Name)
	}

	comp, err := s.Register(ctx, FrontendType, spec.Name, args.Provider, opts...)
	if err != nil {
		return nil, err
	}

	out := &FrontendOutputs{
		Component:      comp,
		ServiceName:    spec.ServiceName(),
		DeploymentName: spec.DeploymentName(),
		NodePort:       spec.NodePort,
	}
	ns := args.Namespace.Name
	labels := podLabels(RoleFrontend, spec.Name)

	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: out.DeploymentName, Namespace: ns},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(spec.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:  spec.Name,
						Image: spec.Image,
						Ports: []corev1.ContainerPort{{ContainerPort: spec.Port}},
						Env:   []corev1.EnvVar{{Name: spec.APIURLEnv, Value: args.APIURL()}},
					}},
				},
			},
		},
	}
	if _, err := comp.Declare(ctx, out.DeploymentName, deploy); err != nil {
		return nil, err
	}

	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: out.ServiceName, Namespace: ns},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeNodePort,
			Selector: labels,
			Ports: []corev1.ServicePort{{
				Port:       spec.Port,
				TargetPort: intstr.FromInt32(spec.Port),
				NodePort:   spec.NodePort,
			}},
		},
	}
	if _, err := comp.Declare(ctx, out.ServiceName, svc); err != nil {
		return nil, err
	}

	err = comp.RegisterOutputs(ctx,
		component.String("svcName", out.ServiceName),
		component.String("deploymentName", out.DeploymentName),
		component.String("apiUrl", args.APIURL()),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
