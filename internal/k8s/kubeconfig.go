package k8s

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/tools/clientcmd"
)

// Provider is the connection context that resources are declared against.
// It is passed by value to every component and never mutated after loading.
type Provider struct {
	Name string

	// Kubeconfig is the raw KUBECONFIG value the provider was loaded from.
	Kubeconfig string

	Context string
	Cluster string
	Server  string
}

func (p Provider) String() string {
	if p.Context == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (context %s)", p.Name, p.Context)
}

// ProviderFromEnv loads the provider from the KUBECONFIG environment variable.
// An unset variable yields a provider without a cluster context.
func ProviderFromEnv(name string) (Provider, error) {
	return LoadProvider(name, os.Getenv(clientcmd.RecommendedConfigPathEnvVar))
}

// LoadProvider resolves the current context of the given kubeconfig path list.
func LoadProvider(name, kubeconfig string) (Provider, error) {
	p := Provider{Name: name, Kubeconfig: kubeconfig}
	if kubeconfig == "" {
		return p, nil
	}

	rules := &clientcmd.ClientConfigLoadingRules{Precedence: filepath.SplitList(kubeconfig)}
	cfg, err := rules.Load()
	if err != nil {
		return p, fmt.Errorf("loading kubeconfig: %w", err)
	}
	if cfg.CurrentContext == "" {
		return p, nil
	}

	kctx, ok := cfg.Contexts[cfg.CurrentContext]
	if !ok {
		return p, fmt.Errorf("current context %q not found in kubeconfig", cfg.CurrentContext)
	}
	p.Context = cfg.CurrentContext
	p.Cluster = kctx.Cluster
	if cluster, ok := cfg.Clusters[kctx.Cluster]; ok {
		p.Server = cluster.Server
	}
	return p, nil
}
