package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"sigs.k8s.io/yaml"

	apiv1 "github.com/chatstack/chatstack/api/v1"
)

// setter assigns a raw string value to one field of a stack.
type setter func(s *apiv1.Stack, val string) error

func str(field func(*apiv1.Stack) *string) setter {
	return func(s *apiv1.Stack, val string) error {
		*field(s) = val
		return nil
	}
}

func num(field func(*apiv1.Stack) *int32) setter {
	return func(s *apiv1.Stack, val string) error {
		i, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return fmt.Errorf("parsing %q as an integer: %w", val, err)
		}
		*field(s) = int32(i)
		return nil
	}
}

// keys maps the flat key space shared by --set flags and KRM ConfigMap inputs onto the stack.
var keys = map[string]setter{
	"name":         str(func(s *apiv1.Stack) *string { return &s.Name }),
	"namespace":    str(func(s *apiv1.Stack) *string { return &s.Spec.Namespace }),
	"providerName": str(func(s *apiv1.Stack) *string { return &s.Spec.ProviderName }),

	"mongo.name":                 str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Name }),
	"mongo.image":                str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Image }),
	"mongo.port":                 num(func(s *apiv1.Stack) *int32 { return &s.Spec.Mongo.Port }),
	"mongo.replicas":             num(func(s *apiv1.Stack) *int32 { return &s.Spec.Mongo.Replicas }),
	"mongo.replicaSetName":       str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.ReplicaSetName }),
	"mongo.database":             str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Database }),
	"mongo.authSource":           str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.AuthSource }),
	"mongo.rootUsername":         str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.RootUsername }),
	"mongo.rootPassword":         str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.RootPassword }),
	"mongo.storage.size":         str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Storage.Size }),
	"mongo.storage.storageClass": str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Storage.StorageClass }),
	"mongo.storage.volumeName":   str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Storage.VolumeName }),
	"mongo.storage.mountPath":    str(func(s *apiv1.Stack) *string { return &s.Spec.Mongo.Storage.MountPath }),

	"backend.name":       str(func(s *apiv1.Stack) *string { return &s.Spec.Backend.Name }),
	"backend.image":      str(func(s *apiv1.Stack) *string { return &s.Spec.Backend.Image }),
	"backend.port":       num(func(s *apiv1.Stack) *int32 { return &s.Spec.Backend.Port }),
	"backend.replicas":   num(func(s *apiv1.Stack) *int32 { return &s.Spec.Backend.Replicas }),
	"backend.secretName": str(func(s *apiv1.Stack) *string { return &s.Spec.Backend.SecretName }),

	"frontend.name":      str(func(s *apiv1.Stack) *string { return &s.Spec.Frontend.Name }),
	"frontend.image":     str(func(s *apiv1.Stack) *string { return &s.Spec.Frontend.Image }),
	"frontend.port":      num(func(s *apiv1.Stack) *int32 { return &s.Spec.Frontend.Port }),
	"frontend.nodePort":  num(func(s *apiv1.Stack) *int32 { return &s.Spec.Frontend.NodePort }),
	"frontend.replicas":  num(func(s *apiv1.Stack) *int32 { return &s.Spec.Frontend.Replicas }),
	"frontend.apiUrlEnv": str(func(s *apiv1.Stack) *string { return &s.Spec.Frontend.APIURLEnv }),
}

// Keys returns every supported key in sorted order.
func Keys() []string {
	all := make([]string, 0, len(keys))
	for k := range keys {
		all = append(all, k)
	}
	sort.Strings(all)
	return all
}

// ApplyKeyValues writes the given flat key/value pairs onto the stack.
// Unknown keys and unparseable values are reported together.
func ApplyKeyValues(s *apiv1.Stack, kv map[string]string) error {
	names := make([]string, 0, len(kv))
	for k := range kv {
		names = append(names, k)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		set, ok := keys[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown config key %q", name))
			continue
		}
		if err := set(s, kv[name]); err != nil {
			errs = append(errs, fmt.Errorf("config key %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// LoadFile reads a Stack document from a YAML or JSON file, layered over the defaults.
func LoadFile(path string) (*apiv1.Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stack config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a Stack document layered over the defaults.
func Parse(data []byte) (*apiv1.Stack, error) {
	s := apiv1.NewDefaultStack()
	if err := yaml.UnmarshalStrict(data, s); err != nil {
		return nil, fmt.Errorf("parsing stack config: %w", err)
	}
	if s.APIVersion != apiv1.SchemeGroupVersion.String() || s.Kind != apiv1.StackKind {
		return nil, fmt.Errorf("unexpected stack config type %s, %s", s.APIVersion, s.Kind)
	}
	return s, nil
}
