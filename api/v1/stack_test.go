package v1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStackIsValid(t *testing.T) {
	s := NewDefaultStack()
	require.NoError(t, s.Validate())
	assert.Equal(t, "chatstack.io/v1", s.APIVersion)
	assert.Equal(t, "Stack", s.Kind)
	assert.Equal(t, int32(3), s.Spec.Mongo.Replicas)
	assert.Equal(t, int32(30080), s.Spec.Frontend.NodePort)
}

func TestStackValidate(t *testing.T) {
	tests := []struct {
		Name   string
		Mutate func(*Stack)
		Errors []string
	}{
		{
			Name:   "bad-namespace",
			Mutate: func(s *Stack) { s.Spec.Namespace = "Chat_App" },
			Errors: []string{`spec.namespace "Chat_App"`},
		},
		{
			Name:   "zero-replicas",
			Mutate: func(s *Stack) { s.Spec.Mongo.Replicas = 0 },
			Errors: []string{"spec.mongo.replicas must be at least 1"},
		},
		{
			Name:   "node-port-out-of-range",
			Mutate: func(s *Stack) { s.Spec.Frontend.NodePort = 8080 },
			Errors: []string{"spec.frontend.nodePort 8080"},
		},
		{
			Name:   "invalid-storage-size",
			Mutate: func(s *Stack) { s.Spec.Mongo.Storage.Size = "lots" },
			Errors: []string{`spec.mongo.storage.size "lots"`},
		},
		{
			Name: "shared-component-name",
			Mutate: func(s *Stack) {
				s.Spec.Mongo.Name = "db"
				s.Spec.Backend.Name = "db"
			},
			Errors: []string{`spec.backend.name "db": already used by spec.mongo.name`},
		},
		{
			Name:   "frontend-reuses-mongo-name",
			Mutate: func(s *Stack) { s.Spec.Frontend.Name = "mongo" },
			Errors: []string{`spec.frontend.name "mongo": already used by spec.mongo.name`},
		},
		{
			Name:   "derived-mongo-names-too-long",
			Mutate: func(s *Stack) { s.Spec.Mongo.Name = strings.Repeat("m", 58) },
			Errors: []string{
				`spec.mongo.name: derived service name "` + strings.Repeat("m", 58) + `-headless"`,
				`spec.mongo.name: derived pod hostname "` + strings.Repeat("m", 58) + `-sts-2"`,
			},
		},
		{
			Name:   "derived-frontend-service-too-long",
			Mutate: func(s *Stack) { s.Spec.Frontend.Name = strings.Repeat("f", 61) },
			Errors: []string{`spec.frontend.name: derived service name "` + strings.Repeat("f", 61) + `-svc"`},
		},
		{
			Name: "multiple",
			Mutate: func(s *Stack) {
				s.Spec.Backend.Port = 0
				s.Spec.Frontend.Image = ""
			},
			Errors: []string{"spec.backend.port 0", "spec.frontend.image is required"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			s := NewDefaultStack()
			tc.Mutate(s)

			err := s.Validate()
			require.Error(t, err)
			for _, msg := range tc.Errors {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestDerivedNames(t *testing.T) {
	s := NewDefaultStack()
	assert.Equal(t, "mongo-svc", s.Spec.Mongo.ServiceName())
	assert.Equal(t, "mongo-headless", s.Spec.Mongo.HeadlessServiceName())
	assert.Equal(t, "mongo-sts", s.Spec.Mongo.StatefulSetName())
	assert.Equal(t, "mongo-sts-2", s.Spec.Mongo.PodHostname(2))
	assert.Equal(t, "backend-dep", s.Spec.Backend.DeploymentName())
	assert.Equal(t, "frontend-svc", s.Spec.Frontend.ServiceName())
	assert.Equal(t, "frontend-dep", s.Spec.Frontend.DeploymentName())

	// the longest names that still fit every derived object
	s.Spec.Mongo.Name = strings.Repeat("m", 54)
	s.Spec.Frontend.Name = strings.Repeat("f", 59)
	assert.NoError(t, s.Validate())
}
