package chatapp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/component"
	"github.com/chatstack/chatstack/internal/k8s"
)

const BackendType = "chatstack:resource:Backend"

// Keys the backend reads from its runtime secret. The secret itself is managed elsewhere.
const (
	SecretKeyMongoURI  = "MONGODB_URI"
	SecretKeyJWTSecret = "JWT_SECRET"
	SecretKeyPort      = "PORT"
	SecretKeyNodeEnv   = "NODE_ENV"
)

var backendSecretKeys = []string{SecretKeyMongoURI, SecretKeyJWTSecret, SecretKeyPort, SecretKeyNodeEnv}

// MongoConnection addresses every member of a replica set through the per-pod DNS records of
// its headless service.
type MongoConnection struct {
	Namespace           string
	StatefulSetName     string
	HeadlessServiceName string
	Port                int32
	Replicas            int32

	Username   string
	Password   string
	Database   string
	ReplicaSet string
	AuthSource string
}

// MongoURI returns the replica set connection string with one host per replica ordinal.
func MongoURI(c MongoConnection) string {
	hosts := make([]string, c.Replicas)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("%s-%d.%s.%s.svc.cluster.local:%d", c.StatefulSetName, i, c.HeadlessServiceName, c.Namespace, c.Port)
	}

	// url.Values would sort the query keys, and the multi-host authority is not a valid url.URL host
	return fmt.Sprintf("mongodb://%s@%s/%s?replicaSet=%s&authSource=%s",
		url.UserPassword(c.Username, c.Password).String(),
		strings.Join(hosts, ","),
		url.PathEscape(c.Database),
		url.QueryEscape(c.ReplicaSet),
		url.QueryEscape(c.AuthSource))
}

type BackendArgs struct {
	Namespace *NamespaceOutputs
	Provider  k8s.Provider
	Spec      apiv1.BackendSpec
	Mongo     MongoConnection
}

type BackendOutputs struct {
	Component *component.Component

	ServiceName    ServiceName
	DeploymentName string
	Port           int32
}

// NewBackend declares the API server. Its configuration is read from the runtime secret only;
// the derived connection string is published as a secret output for operators to seed it with.
func NewBackend(ctx context.Context, s *component.Stack, args BackendArgs, opts ...component.Option) (*BackendOutputs, error) {
	spec := args.Spec
	comp, err := s.Register(ctx, BackendType, spec.Name, args.Provider, opts...)
	if err != nil {
		return nil, err
	}

	out := &BackendOutputs{
		Component:      comp,
		ServiceName:    BackendServiceName,
		DeploymentName: spec.DeploymentName(),
		Port:           spec.Port,
	}
	ns := args.Namespace.Name
	labels := podLabels(RoleBackend, spec.Name)

	env := make([]corev1.EnvVar, len(backendSecretKeys))
	for i, key := range backendSecretKeys {
		env[i] = corev1.EnvVar{
			Name: key,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: spec.SecretName},
					Key:                  key,
				},
			},
		}
	}

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
						Env:   env,
					}},
				},
			},
		},
	}
	if _, err := comp.Declare(ctx, out.DeploymentName, deploy); err != nil {
		return nil, err
	}

	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: string(out.ServiceName), Namespace: ns},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: labels,
			Ports:    []corev1.ServicePort{{Port: spec.Port, TargetPort: intstr.FromInt32(spec.Port)}},
		},
	}
	if _, err := comp.Declare(ctx, spec.Name+"-svc", svc); err != nil {
		return nil, err
	}

	err = comp.RegisterOutputs(ctx,
		component.String("svcName", string(out.ServiceName)),
		component.String("deploymentName", out.DeploymentName),
		component.Secret("mongoUri", MongoURI(args.Mongo)),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
