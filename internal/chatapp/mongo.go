package chatapp

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/component"
	"github.com/chatstack/chatstack/internal/k8s"
)

const MongoType = "chatstack:resource:MongoReplicaSet"

type MongoArgs struct {
	Namespace *NamespaceOutputs
	Provider  k8s.Provider
	Spec      apiv1.MongoSpec
}

// MongoOutputs are the names other components use to reach the replica set.
type MongoOutputs struct {
	Component *component.Component

	ServiceName         string
	HeadlessServiceName string
	StatefulSetName     string
	Port                int32
	Replicas            int32
}

// NewMongo declares a MongoDB replica set: a headless service for stable per-pod DNS, a client
// service, and the StatefulSet itself.
//
// The root credentials are set as literal env values for the image's first-boot initialization.
func NewMongo(ctx context.Context, s *component.Stack, args MongoArgs, opts ...component.Option) (*MongoOutputs, error) {
	spec := args.Spec
	storage, err := resource.ParseQuantity(spec.Storage.Size)
	if err != nil {
		return nil, fmt.Errorf("parsing mongo storage size: %w", err)
	}

	comp, err := s.Register(ctx, MongoType, spec.Name, args.Provider, opts...)
	if err != nil {
		return nil, err
	}

	out := &MongoOutputs{
		Component:           comp,
		ServiceName:         spec.ServiceName(),
		HeadlessServiceName: spec.HeadlessServiceName(),
		StatefulSetName:     spec.StatefulSetName(),
		Port:                spec.Port,
		Replicas:            spec.Replicas,
	}
	ns := args.Namespace.Name
	labels := podLabels(RoleDatabase, spec.Name)
	ports := []corev1.ServicePort{{Port: spec.Port, TargetPort: intstr.FromInt32(spec.Port)}}

	headless := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: out.HeadlessServiceName, Namespace: ns},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector:  labels,
			Ports:     ports,
		},
	}
	if _, err := comp.Declare(ctx, out.HeadlessServiceName, headless); err != nil {
		return nil, err
	}

	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: out.ServiceName, Namespace: ns},
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports:    ports,
		},
	}
	if _, err := comp.Declare(ctx, out.ServiceName, svc); err != nil {
		return nil, err
	}

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: out.StatefulSetName, Namespace: ns},
		Spec: appsv1.StatefulSetSpec{
			ServiceName: out.HeadlessServiceName,
			Replicas:    ptr.To(spec.Replicas),
			Selector:    &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:    spec.Name,
						Image:   spec.Image,
						Command: []string{"mongod", "--replSet", spec.ReplicaSetName, "--bind_ip_all"},
						Ports:   []corev1.ContainerPort{{ContainerPort: spec.Port}},
						Env: []corev1.EnvVar{
							{Name: "MONGO_INITDB_ROOT_USERNAME", Value: spec.RootUsername},
							{Name: "MONGO_INITDB_ROOT_PASSWORD", Value: spec.RootPassword},
						},
						VolumeMounts: []corev1.VolumeMount{{
							Name:      spec.Storage.VolumeName,
							MountPath: spec.Storage.MountPath,
						}},
					}},
				},
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{{
				ObjectMeta: metav1.ObjectMeta{Name: spec.Storage.VolumeName},
				Spec: corev1.PersistentVolumeClaimSpec{
					AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
					StorageClassName: ptr.To(spec.Storage.StorageClass),
					Resources: corev1.VolumeResourceRequirements{
						Requests: corev1.ResourceList{corev1.ResourceStorage: storage},
					},
				},
			}},
		},
	}
	if _, err := comp.Declare(ctx, out.StatefulSetName, sts); err != nil {
		return nil, err
	}

	err = comp.RegisterOutputs(ctx,
		component.String("svcName", out.ServiceName),
		component.String("headlessSvcName", out.HeadlessServiceName),
		component.String("stsName", out.StatefulSetName),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
