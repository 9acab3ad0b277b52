package function

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

type testSimpleInputs struct {
	MyConfigmap *corev1.ConfigMap `chatstack_key:"test-cm"`
	MySecret    *corev1.Secret    `chatstack_key:"test-secret"`
}

type testOptionalInputs struct {
	Missing *corev1.ConfigMap `chatstack_key:"missing,optional"`
}

type testSettings map[string]string

type testCustomInputs struct {
	Settings testSettings `chatstack_key:"test-cm"`
}

func init() {
	AddCustomInputType(func(cm *corev1.ConfigMap) (testSettings, error) {
		return testSettings(cm.Data), nil
	})
}

func newTestInputReader() *InputReader {
	inBuf := bytes.NewBufferString(`{"items": [{"kind": "ConfigMap", "apiVersion": "v1", "metadata": {"name": "test-configmap", "annotations": {"chatstack.io/input-key": "test-cm"}}, "data": {"key": "foo"}}, {"kind": "Secret", "apiVersion": "v1", "metadata": {"name": "test-secret", "annotations": {"chatstack.io/input-key": "test-secret"}}, "data": {"key": "Zm9vYmFyCg=="}}]}`)
	ir, err := NewInputReader(inBuf)
	if err != nil {
		panic(err)
	}
	return ir
}

func ExampleRun() {
	fn := func(ctx context.Context, inputs struct{}) (*Synthesis, error) {
		output := &corev1.Pod{}
		output.Name = "test-pod"
		return &Synthesis{
			Objects: []client.Object{output},
			Outputs: []Output{{Name: "podName", Value: output.Name}},
		}, nil
	}

	ir, _ := NewInputReader(bytes.NewBufferString(""))
	Run(context.Background(), fn, ir, os.Stdout)
	// Output: {"apiVersion":"config.kubernetes.io/v1","kind":"ResourceList","items":[{"apiVersion":"v1","kind":"Pod","metadata":{"creationTimestamp":null,"name":"test-pod"},"spec":{"containers":null},"status":{}}],"results":[{"message":"test-pod","severity":"info","tags":{"output":"podName"}}]}
}

func TestRun(t *testing.T) {
	outBuf := &bytes.Buffer{}

	fn := func(ctx context.Context, inputs testSimpleInputs) (*Synthesis, error) {
		output := &corev1.Pod{}
		output.Name = "test-pod"
		output.Annotations = map[string]string{
			"cm-value":     inputs.MyConfigmap.Data["key"],
			"secret-value": string(inputs.MySecret.Data["key"]),
		}
		return &Synthesis{Objects: []client.Object{output}}, nil
	}

	require.NoError(t, Run(context.Background(), fn, newTestInputReader(), outBuf))
	assert.Equal(t, "{\"apiVersion\":\"config.kubernetes.io/v1\",\"kind\":\"ResourceList\",\"items\":[{\"apiVersion\":\"v1\",\"kind\":\"Pod\",\"metadata\":{\"annotations\":{\"cm-value\":\"foo\",\"secret-value\":\"foobar\\n\"},\"creationTimestamp\":null,\"name\":\"test-pod\"},\"spec\":{\"containers\":null},\"status\":{}}]}\n", outBuf.String())
}

func TestRunInputMissing(t *testing.T) {
	outBuf := &bytes.Buffer{}
	ir, err := NewInputReader(bytes.NewBufferString(`{}`))
	require.NoError(t, err)

	fn := func(ctx context.Context, inputs testSimpleInputs) (*Synthesis, error) {
		t.Fatal("synthesis must not run without its inputs")
		return nil, nil
	}

	require.NoError(t, Run(context.Background(), fn, ir, outBuf))
	assert.Equal(t, "{\"apiVersion\":\"config.kubernetes.io/v1\",\"kind\":\"ResourceList\",\"items\":[],\"results\":[{\"message\":\"error while reading inputs: input \\\"test-cm\\\": input not found\",\"severity\":\"error\"}]}\n", outBuf.String())
}

func TestRunOptionalInput(t *testing.T) {
	outBuf := &bytes.Buffer{}
	ir, err := NewInputReader(bytes.NewBufferString(`{}`))
	require.NoError(t, err)

	var called bool
	fn := func(ctx context.Context, inputs testOptionalInputs) (*Synthesis, error) {
		called = true
		assert.Nil(t, inputs.Missing)
		return nil, nil
	}

	require.NoError(t, Run(context.Background(), fn, ir, outBuf))
	assert.True(t, called)
	assert.Equal(t, "{\"apiVersion\":\"config.kubernetes.io/v1\",\"kind\":\"ResourceList\",\"items\":[]}\n", outBuf.String())
}

func TestRunCustomInput(t *testing.T) {
	outBuf := &bytes.Buffer{}

	var settings testSettings
	fn := func(ctx context.Context, inputs testCustomInputs) (*Synthesis, error) {
		settings = inputs.Settings
		return nil, nil
	}

	require.NoError(t, Run(context.Background(), fn, newTestInputReader(), outBuf))
	assert.Equal(t, testSettings{"key": "foo"}, settings)
}

func TestRunError(t *testing.T) {
	outBuf := &bytes.Buffer{}

	fn := func(ctx context.Context, inputs testSimpleInputs) (*Synthesis, error) {
		return nil, fmt.Errorf("foobar")
	}

	require.NoError(t, Run(context.Background(), fn, newTestInputReader(), outBuf))
	assert.Equal(t, "{\"apiVersion\":\"config.kubernetes.io/v1\",\"kind\":\"ResourceList\",\"items\":[],\"results\":[{\"message\":\"foobar\",\"severity\":\"error\"}]}\n", outBuf.String())
}

func TestRunWithMungers(t *testing.T) {
	addAnnotationMunger := func(obj *unstructured.Unstructured) {
		annotations := obj.GetAnnotations()
		if annotations == nil {
			annotations = make(map[string]string)
		}
		annotations["test-annotation"] = "test-value"
		obj.SetAnnotations(annotations)
	}

	fn := func(ctx context.Context, inputs struct{}) (*Synthesis, error) {
		pod := &corev1.Pod{}
		pod.Name = "test-pod"
		pod.Namespace = "default"
		return &Synthesis{Objects: []client.Object{pod}}, nil
	}

	outBuf := &bytes.Buffer{}
	ir, err := NewInputReader(bytes.NewBufferString(`{"items": []}`))
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), fn, ir, outBuf,
		WithMunger(addAnnotationMunger),
		WithManagedBy("chatstack"),
		WithReconcileInterval(time.Minute)))

	output := outBuf.String()
	assert.Contains(t, output, `"test-annotation":"test-value"`)
	assert.Contains(t, output, `"app.kubernetes.io/managed-by":"chatstack"`)
	assert.Contains(t, output, `"eno.azure.io/reconcile-interval":"1m0s"`)
}

func TestCompositeMunger(t *testing.T) {
	var calls []string
	opts := &runConfig{}
	assert.Nil(t, opts.CompositeMungeFunc())

	WithMunger(func(*unstructured.Unstructured) { calls = append(calls, "a") })(opts)
	WithMunger(func(*unstructured.Unstructured) { calls = append(calls, "b") })(opts)
	opts.CompositeMungeFunc()(&unstructured.Unstructured{})
	assert.Equal(t, []string{"a", "b"}, calls)
}
