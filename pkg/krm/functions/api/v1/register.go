// Package v1 holds the KRM function wire types exchanged over stdin and stdout.
package v1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var SchemeGroupVersion = schema.GroupVersion{Group: "config.kubernetes.io", Version: "v1"}

const ResourceListKind = "ResourceList"

func (obj *ResourceList) GetObjectKind() schema.ObjectKind { return obj }
func (obj *ResourceList) SetGroupVersionKind(gvk schema.GroupVersionKind) {
	obj.APIVersion, obj.Kind = gvk.ToAPIVersionAndKind()
}
func (obj *ResourceList) GroupVersionKind() schema.GroupVersionKind {
	return schema.FromAPIVersionAndKind(obj.APIVersion, obj.Kind)
}
