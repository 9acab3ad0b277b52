package main

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	corev1 "k8s.io/api/core/v1"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/chatapp"
	"github.com/chatstack/chatstack/internal/k8s"
	"github.com/chatstack/chatstack/pkg/config"
	"github.com/chatstack/chatstack/pkg/function"
)

// InputKey is the input key of the optional ConfigMap that carries stack overrides.
const InputKey = "stack-config"

type rootOptions struct {
	configPath   string
	set          []string
	debug        bool
	providerName string
	metricsFile  string
}

func (o *rootOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "Path to a Stack YAML document layered over the defaults")
	flags.StringArrayVar(&o.set, "set", nil, "Comma separated key=value overrides, applied last (see `chatstack keys`)")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&o.providerName, "provider-name", "", "Override the provider name recorded on every resource")
	flags.StringVar(&o.metricsFile, "metrics-file", "", "Write the run's metrics to this file in the Prometheus text format")
}

type providerFunc func(name string) (k8s.Provider, error)

// stackOverrides are the flat key/value pairs read from the stack-config input.
type stackOverrides map[string]string

// Inputs are read from the KRM ResourceList in synthesize mode.
type Inputs struct {
	Overrides stackOverrides `chatstack_key:"stack-config,optional" json:"overrides,omitempty"`
}

func init() {
	function.AddCustomInputType(func(cm *corev1.ConfigMap) (stackOverrides, error) {
		return stackOverrides(cm.Data), nil
	})
}

// loadStack layers the config sources: defaults, then the config file, then input overrides,
// then --set.
func (o *rootOptions) loadStack(overrides map[string]string) (*apiv1.Stack, error) {
	stack := apiv1.NewDefaultStack()
	if o.configPath != "" {
		var err error
		stack, err = config.LoadFile(o.configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := config.ApplyKeyValues(stack, overrides); err != nil {
		return nil, fmt.Errorf("applying %s input: %w", InputKey, err)
	}
	if err := config.ApplyKeyValues(stack, config.ParseKeyValuePairs(o.set...)); err != nil {
		return nil, fmt.Errorf("applying --set: %w", err)
	}
	if o.providerName != "" {
		stack.Spec.ProviderName = o.providerName
	}
	return stack, nil
}

// synthFunc composes the stack. provider resolves the connection context by name.
func (o *rootOptions) synthFunc(provider providerFunc) function.SynthFunc[Inputs] {
	return func(ctx context.Context, inputs Inputs) (*function.Synthesis, error) {
		syn, err := o.synthesize(ctx, inputs, provider)
		if err != nil {
			return nil, err
		}
		out := &function.Synthesis{Objects: syn.Stack.Objects()}
		for _, exp := range syn.Stack.Exports() {
			out.Outputs = append(out.Outputs, function.Output{Name: exp.Name, Value: exp.Value, Secret: exp.Secret})
		}
		return out, nil
	}
}

func (o *rootOptions) synthesize(ctx context.Context, inputs Inputs, provider providerFunc) (*chatapp.Synthesis, error) {
	stack, err := o.loadStack(inputs.Overrides)
	if err != nil {
		return nil, err
	}
	p, err := provider(stack.Spec.ProviderName)
	if err != nil {
		return nil, fmt.Errorf("loading provider: %w", err)
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("synthesizing stack", "stack", stack.Name, "namespace", stack.Spec.Namespace, "provider", p.String())
	return chatapp.Synthesize(ctx, stack, p)
}
