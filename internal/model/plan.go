// Package model defines the declarative plan format run by the CLI.
package model

import "time"

// Plan is the root of a plan file.
type Plan struct {
	Suites []Suite `yaml:"suites" validate:"required,min=1,dive"`
}

// Suite declares a group of tests, its hooks and nested suites.
type Suite struct {
	Name       string  `yaml:"name" validate:"required"`
	BeforeAll  []Step  `yaml:"before_all" validate:"dive"`
	AfterAll   []Step  `yaml:"after_all" validate:"dive"`
	BeforeEach []Step  `yaml:"before_each" validate:"dive"`
	AfterEach  []Step  `yaml:"after_each" validate:"dive"`
	Tests      []Test  `yaml:"tests" validate:"dive"`
	Suites     []Suite `yaml:"suites" validate:"dive"`
}

// Test declares one test case as a list of steps.
type Test struct {
	Name    string        `yaml:"name" validate:"required"`
	Skip    bool          `yaml:"skip"`
	Only    bool          `yaml:"only"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	Steps   []Step        `yaml:"steps" validate:"required,min=1,dive"`
}

// Step is one action of a test or hook. Exactly one field is set.
type Step struct {
	Expect *Check        `yaml:"expect,omitempty"`
	Sleep  time.Duration `yaml:"sleep,omitempty" validate:"gte=0"`
	Fail   string        `yaml:"fail,omitempty"`
	Log    string        `yaml:"log,omitempty"`
}

// Check is an assertion evaluated against literal values.
type Check struct {
	Actual    any    `yaml:"actual"`
	Matcher   string `yaml:"matcher" validate:"required,oneof=toBe toEqual toStrictEqual toBeTruthy toBeFalsy toBeNull toBeUndefined toBeDefined toBeGreaterThan toBeGreaterThanOrEqual toBeLessThan toBeLessThanOrEqual toContain toContainEqual toHaveLength toHaveProperty toMatch toBeCloseTo"`
	Expected  any    `yaml:"expected"`
	Not       bool   `yaml:"not"`
	Property  string `yaml:"property" validate:"required_if=Matcher toHaveProperty"`
	Pattern   string `yaml:"pattern"`
	Precision *int   `yaml:"precision" validate:"omitempty,gte=0"`
}

// Counts returns the number of suites, nested ones included, and tests in p.
func (p Plan) Counts() (suites, tests int) {
	return countSuites(p.Suites)
}

func countSuites(list []Suite) (suites, tests int) {
	for _, s := range list {
		childSuites, childTests := countSuites(s.Suites)
		suites += 1 + childSuites
		tests += len(s.Tests) + childTests
	}

	return suites, tests
}
