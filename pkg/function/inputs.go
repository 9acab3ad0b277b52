package function

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	krmv1 "github.com/chatstack/chatstack/pkg/krm/functions/api/v1"
)

// ErrInputNotFound is returned when no item carries the requested input key.
var ErrInputNotFound = errors.New("input not found")

// InputReader reads input resources from a KRM ResourceList.
type InputReader struct {
	resources *krmv1.ResourceList
}

// NewInputReader creates an InputReader from a JSON-encoded KRM ResourceList.
// Empty input is treated as an empty list.
func NewInputReader(r io.Reader) (*InputReader, error) {
	rl := krmv1.ResourceList{}
	err := json.NewDecoder(r).Decode(&rl)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding stdin as krm resource list: %w", err)
	}
	return &InputReader{
		resources: &rl,
	}, nil
}

// NewManifestInputReader reads the input items from a multi-document YAML file.
func NewManifestInputReader(path string) (*InputReader, error) {
	objs, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	rl := krmv1.NewResourceList()
	for _, obj := range objs {
		rl.Items = append(rl.Items, obj.(*unstructured.Unstructured))
	}
	return &InputReader{resources: rl}, nil
}

// ReadInput converts the input with the given key into out.
func ReadInput[T client.Object](ir *InputReader, key string, out T) error {
	u, ok := ir.Lookup(key)
	if !ok {
		return fmt.Errorf("input %q: %w", key, ErrInputNotFound)
	}
	err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, out)
	if err != nil {
		return fmt.Errorf("converting item to Input: %w", err)
	}
	return nil
}

func (i *InputReader) Lookup(key string) (*unstructured.Unstructured, bool) {
	for _, item := range i.resources.Items {
		if getKey(item) == key {
			return item, true
		}
	}
	return nil, false
}

// All returns a map of all input resources keyed by their input key.
func (i *InputReader) All() map[string]*unstructured.Unstructured {
	m := map[string]*unstructured.Unstructured{}
	for _, o := range i.resources.Items {
		m[getKey(o)] = o
	}
	return m
}

// IsOptional returns true when the function config lists the key in its optionalRefs.
func (i *InputReader) IsOptional(key string) bool {
	fc := i.resources.FunctionConfig
	if fc == nil {
		return false
	}
	refs, _, _ := unstructured.NestedStringSlice(fc.Object, "optionalRefs")
	return slices.Contains(refs, key)
}

func getKey(obj client.Object) string {
	if obj.GetAnnotations() == nil {
		return ""
	}
	return obj.GetAnnotations()[apiv1.InputKeyAnnotation]
}

// parseInputTag splits a `chatstack_key:"name,optional"` tag.
func parseInputTag(tag string) (key string, optional bool) {
	key, flags, _ := strings.Cut(tag, ",")
	return key, flags == "optional"
}

type inputBinding struct {
	newSource func() client.Object
	convert   func(client.Object) (any, error)
}

var customInputTypes = map[reflect.Type]inputBinding{}

// AddCustomInputType registers a conversion from an input resource into a custom type.
// Inputs fields of the custom type are populated by reading the resource and calling fn.
func AddCustomInputType[Resource client.Object, Custom any](fn func(Resource) (Custom, error)) {
	customInputTypes[reflect.TypeOf((*Custom)(nil)).Elem()] = inputBinding{
		newSource: func() client.Object {
			return reflect.New(reflect.TypeOf((*Resource)(nil)).Elem().Elem()).Interface().(client.Object)
		},
		convert: func(obj client.Object) (any, error) {
			return fn(obj.(Resource))
		},
	}
}

// readInputs populates every tagged field of inputs.
func readInputs(ir *InputReader, inputs any) error {
	v := reflect.ValueOf(inputs).Elem()
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("chatstack_key")
		if tag == "" {
			continue
		}
		key, optional := parseInputTag(tag)
		if _, ok := ir.Lookup(key); !ok && (optional || ir.IsOptional(key)) {
			continue
		}

		if binding, ok := customInputTypes[field.Type]; ok {
			src := binding.newSource()
			if err := ReadInput(ir, key, src); err != nil {
				return err
			}
			val, err := binding.convert(src)
			if err != nil {
				return fmt.Errorf("converting input %q: %w", key, err)
			}
			v.Field(i).Set(reflect.ValueOf(val))
			continue
		}

		if field.Type.Kind() != reflect.Pointer {
			return fmt.Errorf("input field %s must be a pointer to a client.Object", field.Name)
		}
		if v.Field(i).IsNil() {
			v.Field(i).Set(reflect.New(field.Type.Elem()))
		}
		obj, ok := v.Field(i).Interface().(client.Object)
		if !ok {
			return fmt.Errorf("input field %s must be a pointer to a client.Object", field.Name)
		}
		if err := ReadInput(ir, key, obj); err != nil {
			return err
		}
	}
	return nil
}

// ReadManifest reads a YAML file from disk and parses each document into an unstructured object.
// The file can contain multiple YAML documents separated by "---".
func ReadManifest(path string) ([]client.Object, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()
	return decodeManifest(file)
}
