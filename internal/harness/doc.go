// Package harness provides end-to-end fixture testing for scheduling
// instances.
//
// The harness loads a CUE instance directory, builds and lowers the
// model, solves it through a real backend adapter, and checks the
// resulting schedule against declared expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario demonstrates"
//	dir: ../instances/scenario_name
//	instance: other_name   # optional, defaults to name
//	expect:
//	  outcome: optimal
//	  objective: 13
//	tasks:
//	  - name: ramp
//	    start: 0
//	    end: 10
//	    length: 10
//	    size: 10
//
// The expect clause pins the solve outcome and, optionally, the proved
// objective value. Each tasks entry pins fields of one task's
// placement; omitted fields are not checked.
//
// # Assignment Verification
//
// Beyond the declared expectations, every run replays the backend's
// raw assignment through the evaluator of the lowered program. A
// schedule that matches the fixture numbers but violates a capacity
// or precedence constraint still fails.
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/rcpsp.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute it:
//
//	result, err := harness.Run(scenario, harness.WithTimeout(time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
