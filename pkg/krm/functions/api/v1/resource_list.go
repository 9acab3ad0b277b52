package v1

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ResourceList is the document a KRM function reads from stdin and writes to stdout.
type ResourceList struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`

	// Items are the function's input objects, and its synthesized objects on output.
	Items []*unstructured.Unstructured `json:"items"`

	// FunctionConfig optionally parameterizes a single invocation.
	// +optional
	FunctionConfig *unstructured.Unstructured `json:"functionConfig,omitempty"`

	// Results report errors and informational values back to the caller.
	// +optional
	Results []*Result `json:"results,omitempty"`
}

// NewResourceList returns an empty list with its type metadata set.
func NewResourceList() *ResourceList {
	return &ResourceList{APIVersion: SchemeGroupVersion.String(), Kind: ResourceListKind}
}
