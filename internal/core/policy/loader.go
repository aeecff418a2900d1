package policy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

type document struct {
	Rules []struct {
		Method string `yaml:"method"`
		Path   string `yaml:"path"`
		Access string `yaml:"access"`
	} `yaml:"rules"`
}

// Parse compiles a YAML policy document of the form
//
//	rules:
//	  - method: GET
//	    path: /movies/{id:int}
//	    access: public
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal policy: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("policy has no rules")
	}

	specs := make([]RuleSpec, 0, len(doc.Rules))
	for i, r := range doc.Rules {
		req, err := ParseRequirement(r.Access)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s %s): %w", i, r.Method, r.Path, err)
		}
		specs = append(specs, RuleSpec{Method: r.Method, Path: r.Path, Require: req})
	}
	return Compile(specs)
}

// Load reads a policy file, or the built-in policy when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(data)
}

// Default compiles the built-in policy.
func Default() (*Table, error) {
	return Parse(defaultPolicy)
}
