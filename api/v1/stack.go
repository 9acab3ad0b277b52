package v1

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Stack is the configuration document for a chat application deployment.
// It is usually loaded from a YAML file or assembled from key/value overrides.
type Stack struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec StackSpec `json:"spec"`
}

type StackSpec struct {
	// Namespace that every resource of the stack lives in.
	Namespace string `json:"namespace"`

	// ProviderName identifies the connection context the resources are declared against.
	ProviderName string `json:"providerName,omitempty"`

	Mongo    MongoSpec    `json:"mongo"`
	Backend  BackendSpec  `json:"backend"`
	Frontend FrontendSpec `json:"frontend"`
}

type MongoSpec struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Port  int32  `json:"port"`

	// Replicas is shared by the StatefulSet and the backend's connection URI.
	Replicas int32 `json:"replicas"`

	ReplicaSetName string `json:"replicaSetName"`
	Database       string `json:"database"`
	AuthSource     string `json:"authSource"`

	// Root credentials are rendered as literal env values on the StatefulSet.
	RootUsername string `json:"rootUsername"`
	RootPassword string `json:"rootPassword"`

	Storage StorageSpec `json:"storage"`
}

type StorageSpec struct {
	Size         string `json:"size"`
	StorageClass string `json:"storageClass"`
	VolumeName   string `json:"volumeName"`
	MountPath    string `json:"mountPath"`
}

type BackendSpec struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Port     int32  `json:"port"`
	Replicas int32  `json:"replicas"`

	// SecretName is the pre-existing secret holding the backend's runtime configuration.
	SecretName string `json:"secretName"`
}

type FrontendSpec struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Port     int32  `json:"port"`
	NodePort int32  `json:"nodePort"`
	Replicas int32  `json:"replicas"`

	// APIURLEnv names the env var that carries the backend address.
	APIURLEnv string `json:"apiUrlEnv"`
}

// Names of the objects derived from each component name.

func (m MongoSpec) ServiceName() string         { return m.Name + "-svc" }
func (m MongoSpec) HeadlessServiceName() string { return m.Name + "-headless" }
func (m MongoSpec) StatefulSetName() string     { return m.Name + "-sts" }

// PodHostname is the stable hostname of the replica with the given ordinal.
func (m MongoSpec) PodHostname(ordinal int32) string {
	return fmt.Sprintf("%s-%d", m.StatefulSetName(), ordinal)
}

func (b BackendSpec) DeploymentName() string { return b.Name + "-dep" }

func (f FrontendSpec) ServiceName() string    { return f.Name + "-svc" }
func (f FrontendSpec) DeploymentName() string { return f.Name + "-dep" }

// NewDefaultStack returns the reference chat application topology.
func NewDefaultStack() *Stack {
	return &Stack{
		TypeMeta:   metav1.TypeMeta{APIVersion: SchemeGroupVersion.String(), Kind: StackKind},
		ObjectMeta: metav1.ObjectMeta{Name: "chat-app"},
		Spec: StackSpec{
			Namespace:    "chat-app",
			ProviderName: "k8s",
			Mongo: MongoSpec{
				Name:           "mongo",
				Image:          "mongo:4.4",
				Port:           27017,
				Replicas:       3,
				ReplicaSetName: "rs0",
				Database:       "chatapp",
				AuthSource:     "admin",
				RootUsername:   "mongodbadmin",
				RootPassword:   "secret",
				Storage: StorageSpec{
					Size:         "1Gi",
					StorageClass: "standard",
					VolumeName:   "mongo-data",
					MountPath:    "/data/db",
				},
			},
			Backend: BackendSpec{
				Name:       "backend",
				Image:      "nikhil845/chatapp-backend:latest",
				Port:       5000,
				Replicas:   1,
				SecretName: "chatapp-secret",
			},
			Frontend: FrontendSpec{
				Name:      "frontend",
				Image:     "nikhil845/chatapp-frontend:latest",
				Port:      80,
				NodePort:  30080,
				Replicas:  1,
				APIURLEnv: "REACT_APP_API_URL",
			},
		},
	}
}

// Validate returns every problem found in the stack, joined into a single error.
func (s *Stack) Validate() error {
	var errs []error
	label := func(field, value string) {
		for _, msg := range validation.IsDNS1123Label(value) {
			errs = append(errs, fmt.Errorf("%s %q: %s", field, value, msg))
		}
	}
	serviceName := func(field, value string) {
		for _, msg := range validation.IsDNS1035Label(value) {
			errs = append(errs, fmt.Errorf("%s: derived service name %q: %s", field, value, msg))
		}
	}
	port := func(field string, value int32) {
		for _, msg := range validation.IsValidPortNum(int(value)) {
			errs = append(errs, fmt.Errorf("%s %d: %s", field, value, msg))
		}
	}
	replicas := func(field string, value int32) {
		if value < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", field, value))
		}
	}
	required := func(field, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}

	label("metadata.name", s.Name)
	label("spec.namespace", s.Spec.Namespace)
	required("spec.providerName", s.Spec.ProviderName)

	m := s.Spec.Mongo
	label("spec.mongo.name", m.Name)
	required("spec.mongo.image", m.Image)
	port("spec.mongo.port", m.Port)
	replicas("spec.mongo.replicas", m.Replicas)
	if validation.IsDNS1123Label(m.Name) == nil {
		serviceName("spec.mongo.name", m.ServiceName())
		serviceName("spec.mongo.name", m.HeadlessServiceName())
		if m.Replicas > 0 {
			// the highest ordinal is the longest pod hostname
			last := m.PodHostname(m.Replicas - 1)
			for _, msg := range validation.IsDNS1123Label(last) {
				errs = append(errs, fmt.Errorf("spec.mongo.name: derived pod hostname %q: %s", last, msg))
			}
		}
	}
	required("spec.mongo.replicaSetName", m.ReplicaSetName)
	required("spec.mongo.database", m.Database)
	required("spec.mongo.authSource", m.AuthSource)
	label("spec.mongo.storage.volumeName", m.Storage.VolumeName)
	required("spec.mongo.storage.mountPath", m.Storage.MountPath)
	if _, err := resource.ParseQuantity(m.Storage.Size); err != nil {
		errs = append(errs, fmt.Errorf("spec.mongo.storage.size %q: %w", m.Storage.Size, err))
	}

	b := s.Spec.Backend
	label("spec.backend.name", b.Name)
	required("spec.backend.image", b.Image)
	port("spec.backend.port", b.Port)
	replicas("spec.backend.replicas", b.Replicas)
	for _, msg := range validation.IsDNS1123Subdomain(b.SecretName) {
		errs = append(errs, fmt.Errorf("spec.backend.secretName %q: %s", b.SecretName, msg))
	}

	f := s.Spec.Frontend
	label("spec.frontend.name", f.Name)
	required("spec.frontend.image", f.Image)
	port("spec.frontend.port", f.Port)
	replicas("spec.frontend.replicas", f.Replicas)
	if validation.IsDNS1123Label(f.Name) == nil {
		serviceName("spec.frontend.name", f.ServiceName())
	}
	required("spec.frontend.apiUrlEnv", f.APIURLEnv)
	if f.NodePort < 30000 || f.NodePort > 32767 {
		errs = append(errs, fmt.Errorf("spec.frontend.nodePort %d: must be in the range 30000-32767", f.NodePort))
	}

	// services select pods by component name
	seen := map[string]string{}
	for _, c := range []struct{ field, name string }{
		{"spec.mongo.name", m.Name},
		{"spec.backend.name", b.Name},
		{"spec.frontend.name", f.Name},
	} {
		if prev, ok := seen[c.name]; ok && c.name != "" {
			errs = append(errs, fmt.Errorf("%s %q: already used by %s", c.field, c.name, prev))
			continue
		}
		seen[c.name] = c.field
	}

	return errors.Join(errs...)
}
