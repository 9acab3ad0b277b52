package function

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

func TestReadManifestHappyPath(t *testing.T) {
	objects, err := ReadManifest("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, []client.Object{
		&unstructured.Unstructured{
			Object: map[string]any{
				"apiVersion": "myapi.myapp.io/v1",
				"kind":       "Example",
				"metadata": map[string]interface{}{
					"name":      "example",
					"namespace": "default",
				},
			},
		},
		&unstructured.Unstructured{
			Object: map[string]any{
				"apiVersion": "v1",
				"kind":       "ConfigMap",
				"metadata": map[string]interface{}{
					"name":      "example",
					"namespace": "default",
				},
			},
		},
	}, objects)
}

func TestReadManifestInvalidYAML(t *testing.T) {
	objects, err := ReadManifest("testdata/invalid.yaml")
	require.Error(t, err)
	assert.Empty(t, objects)
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest("testdata/nope.yaml")
	require.Error(t, err)
}

func TestWriteManifest(t *testing.T) {
	a := &corev1.ConfigMap{Data: map[string]string{"k": "v"}}
	a.APIVersion = "v1"
	a.Kind = "ConfigMap"
	a.Name = "a"
	b := a.DeepCopy()
	b.Name = "b"

	buf := &bytes.Buffer{}
	require.NoError(t, WriteManifest(buf, []client.Object{a, b}))
	assert.Equal(t, "apiVersion: v1\ndata:\n  k: v\nkind: ConfigMap\nmetadata:\n  creationTimestamp: null\n  name: a\n"+
		"---\n"+
		"apiVersion: v1\ndata:\n  k: v\nkind: ConfigMap\nmetadata:\n  creationTimestamp: null\n  name: b\n", buf.String())

	// Round trip
	objs, err := decodeManifest(buf)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "b", objs[1].GetName())
}
