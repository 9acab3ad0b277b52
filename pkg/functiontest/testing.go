package functiontest

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"sigs.k8s.io/yaml"

	"github.com/chatstack/chatstack/pkg/function"
)

// GenSnapshotsEnv enables snapshot generation when set to a non-empty value.
const GenSnapshotsEnv = "CHATSTACK_GEN_SNAPSHOTS"

// Scenario represents a test case for a synthesizer function.
type Scenario[T function.Inputs] struct {
	Name      string
	Inputs    T
	Assertion Assertion[T]
}

// Evaluate runs the synthesizer function with the provided scenarios and asserts on the outputs.
func Evaluate[T function.Inputs](t *testing.T, synth function.SynthFunc[T], scenarios ...Scenario[T]) {
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			outputs, err := synth(context.Background(), s.Inputs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outputs == nil {
				outputs = &function.Synthesis{}
			}
			s.Assertion(t, &s, outputs)
		})
	}
}

// LoadScenarios recursively loads yaml and json input fixtures from the specified directory.
func LoadScenarios[T any](t *testing.T, dir string, assertion Assertion[T]) []Scenario[T] {
	scenarios := []Scenario[T]{}
	walkFiles(t, dir, func(path, name string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("error while reading fixture %q: %s", path, err)
			return nil
		}

		var input T
		err = yaml.Unmarshal(data, &input)
		if err != nil {
			t.Errorf("error while parsing fixture %q: %s", path, err)
			return nil
		}
		scenarios = append(scenarios, Scenario[T]{
			Name:      name,
			Inputs:    input,
			Assertion: assertion,
		})
		return nil
	})

	// Make sure tests aren't coupled to a particular execution order
	rand.Shuffle(len(scenarios), func(i, j int) { scenarios[i], scenarios[j] = scenarios[j], scenarios[i] })

	return scenarios
}

type Assertion[T function.Inputs] func(t *testing.T, s *Scenario[T], outputs *function.Synthesis)

// AssertionChain is a helper function to create an assertion that runs multiple assertions in sequence.
func AssertionChain[T function.Inputs](asserts ...Assertion[T]) Assertion[T] {
	return func(t *testing.T, s *Scenario[T], outputs *function.Synthesis) {
		for i, assert := range asserts {
			t.Run(fmt.Sprintf("assertion-%d", i), func(t *testing.T) {
				assert(t, s, outputs)
			})
		}
	}
}

// LoadSnapshots returns an assertion that will compare the outputs of a synthesizer function
// with the expected outputs stored in snapshot files.
//
// Scenarios that do not have a corresponding snapshot file will be ignored.
// To bootstrap snapshots for a given scenario: create an empty snapshot file that matches the
// name of the scenario (or fixture if using LoadScenarios), and run the tests with
// CHATSTACK_GEN_SNAPSHOTS=true.
func LoadSnapshots[T function.Inputs](t *testing.T, dir string) Assertion[T] {
	snapshots := map[string][]byte{}
	walkFiles(t, dir, func(path, name string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("error while reading fixture %q: %s", path, err)
			return nil
		}
		snapshots[name] = data
		return nil
	})

	return func(t *testing.T, s *Scenario[T], outputs *function.Synthesis) {
		expected, ok := snapshots[s.Name]
		if !ok {
			return
		}

		data, err := marshalSynthesis(outputs)
		if err != nil {
			t.Errorf("error while marshalling outputs: %s", err)
			return
		}

		if os.Getenv(GenSnapshotsEnv) != "" {
			err = os.WriteFile(filepath.Join(dir, s.Name+".yaml"), data, 0644)
			if err != nil {
				t.Errorf("error while writing snapshot %q: %s", s.Name, err)
			}
			return
		}

		if !bytes.Equal(data, expected) {
			t.Errorf("outputs do not match the snapshot - re-run tests with %s=true to update them", GenSnapshotsEnv)
		}
	}
}

// Deterministic is an Assertion that re-runs the synthesizer with the same inputs and requires
// byte-identical outputs.
func Deterministic[T function.Inputs](synth function.SynthFunc[T]) Assertion[T] {
	return func(t *testing.T, s *Scenario[T], outputs *function.Synthesis) {
		again, err := synth(context.Background(), s.Inputs)
		if err != nil {
			t.Fatalf("unexpected error on second evaluation: %v", err)
		}
		if again == nil {
			again = &function.Synthesis{}
		}

		first, err := marshalSynthesis(outputs)
		if err != nil {
			t.Fatalf("error while marshalling outputs: %s", err)
		}
		second, err := marshalSynthesis(again)
		if err != nil {
			t.Fatalf("error while marshalling outputs: %s", err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("outputs differ between evaluations with identical inputs")
		}
	}
}

func marshalSynthesis(s *function.Synthesis) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := function.WriteManifest(buf, s.Objects); err != nil {
		return nil, err
	}
	if len(s.Outputs) == 0 {
		return buf.Bytes(), nil
	}

	outs := map[string]string{}
	for _, out := range s.Outputs {
		outs[out.Name] = out.Value
		if out.Secret {
			outs[out.Name] = "[secret]"
		}
	}
	data, err := yaml.Marshal(map[string]any{"outputs": outs})
	if err != nil {
		return nil, err
	}
	if buf.Len() > 0 {
		buf.WriteString("---\n")
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

func walkFiles(t *testing.T, dir string, fn func(path, name string) error) {
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		ext := filepath.Ext(info.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}
		return fn(path, info.Name()[:len(info.Name())-len(ext)])
	})
	if err != nil {
		t.Errorf("error while walking files: %s", err)
	}
}
