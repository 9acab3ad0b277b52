// Package function runs chatstack synthesis as a function that conforms to the KRM Functions specification.
//
// A synthesizer function consumes input Kubernetes resources and produces output Kubernetes resources
// plus named outputs. Functions are plain Go functions that take a struct defining the expected inputs:
//
//	type Inputs struct {
//	    Config *corev1.ConfigMap `chatstack_key:"stack-config,optional"`
//	}
//
//	err := function.Run(ctx, synth, ir, os.Stdout)
//
// # Input Handling
//
// Tagged fields are matched against the "chatstack.io/input-key" annotation of the items in the
// ResourceList. Inputs are required unless the tag carries the "optional" flag or the key is listed
// in the optionalRefs of the ResourceList's functionConfig.
//
// # Custom Input Types
//
// Inputs can be converted into domain types by registering a conversion with AddCustomInputType:
//
//	function.AddCustomInputType(func(cm *corev1.ConfigMap) (Overrides, error) {
//	    return Overrides(cm.Data), nil
//	})
//
// # Outputs
//
// Synthesized objects become the items of the output ResourceList. Named outputs are attached as
// info results tagged with the output name, and errors as error results.
package function
