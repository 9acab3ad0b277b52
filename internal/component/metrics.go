package component

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	componentsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatstack_components_registered_total",
			Help: "Components registered across all composed stacks",
		},
	)

	resourcesDeclared = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstack_resources_declared_total",
			Help: "Resources declared by components, by kind",
		}, []string{"kind"},
	)
)

func init() {
	metrics.Registry.MustRegister(componentsRegistered, resourcesDeclared)
}
