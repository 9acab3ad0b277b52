package component

import (
	"fmt"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/chatstack/chatstack/internal/readiness"
)

// idNamespace seeds the name-based UUIDs of declared resources.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://chatstack.io/resources"))

// Ref refers to a specific declared resource.
type Ref struct {
	Kind, Namespace, Name string
}

func (r Ref) String() string {
	if r.Namespace == "" {
		return fmt.Sprintf("%s/%s", r.Kind, r.Name)
	}
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Namespace, r.Name)
}

// Resource is a single Kubernetes object declared by a component.
type Resource struct {
	Ref         Ref
	URN         string
	ID          uuid.UUID
	LogicalName string
	GVK         schema.GroupVersionKind

	Component       *Component
	ReadinessGroup  int
	ReadinessChecks readiness.Checks

	Object client.Object
}

func resourceID(urn string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(urn))
}
