// Package functiontest provides testing utilities for synthesizer functions.
//
// It runs a synthesizer function with different inputs and asserts on the outputs, including
// snapshot testing to validate that the outputs of a function match expected values.
//
// # Basic Usage
//
//	func TestMyFunction(t *testing.T) {
//	    functiontest.Evaluate(t, synth, functiontest.Scenario[Inputs]{
//	        Name:   "defaults",
//	        Inputs: Inputs{},
//	        Assertion: functiontest.AssertionChain(
//	            functiontest.ValidateResourceMeta[Inputs](),
//	            functiontest.SelectorsMatchTemplates[Inputs](),
//	        ),
//	    })
//	}
//
// # Snapshot Testing
//
//	assertion := functiontest.LoadSnapshots[Inputs](t, "testdata/snapshots")
//	scenarios := functiontest.LoadScenarios(t, "testdata/fixtures", assertion)
//	functiontest.Evaluate(t, synth, scenarios...)
//
// To generate snapshots, create empty files in the snapshots directory and run the tests
// with the CHATSTACK_GEN_SNAPSHOTS environment variable set.
package functiontest
