package v1

// Result is a single message emitted by a function.
type Result struct {
	Message string `json:"message"`

	// +optional
	ResourceRef *ResultResourceRef `json:"resourceRef,omitempty"`

	// Severity is one of "error", "warning" or "info".
	// +optional
	Severity string `json:"severity,omitempty"`

	// Tags carry machine readable metadata, e.g. the name of an exported output.
	// +optional
	Tags map[string]string `json:"tags,omitempty"`
}

const (
	ResultSeverityError   string = "error"
	ResultSeverityWarning string = "warning"
	ResultSeverityInfo    string = "info"
)

// ResultResourceRef identifies the object a result is about.
type ResultResourceRef struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`

	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// HasErrors returns true when any result has error severity.
func (rl *ResourceList) HasErrors() bool {
	for _, r := range rl.Results {
		if r.Severity == ResultSeverityError {
			return true
		}
	}
	return false
}
