// +groupName=chatstack.io
package v1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var SchemeGroupVersion = schema.GroupVersion{Group: "chatstack.io", Version: "v1"}

const StackKind = "Stack"

// Annotations understood by the downstream reconciler. The readiness keys follow the Eno
// conventions so synthesized resources are applied group by group.
const (
	ReadinessGroupAnnotation = "eno.azure.io/readiness-group"
	ReadinessAnnotation      = "eno.azure.io/readiness"

	ReconcileIntervalAnnotation = "eno.azure.io/reconcile-interval"
)

// Annotations written by chatstack itself.
const (
	ComponentAnnotation  = "chatstack.io/component"
	ProviderAnnotation   = "chatstack.io/provider"
	ResourceIDAnnotation = "chatstack.io/resource-id"

	// InputKeyAnnotation identifies KRM function inputs by key.
	InputKeyAnnotation = "chatstack.io/input-key"

	ManagedByLabel = "app.kubernetes.io/managed-by"
	ManagedByValue = "chatstack"
)
