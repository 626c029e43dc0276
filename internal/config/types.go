package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultTimeoutSeconds is applied to GlobalConfig.Timeout when the document
// omits it, mirroring apisix/core/models.py's TestCase default.
const defaultTimeoutSeconds = 30

// defaultConcurrentThreads backs spec §4.7.5's concurrent-step worker pool
// when GlobalConfig.ConcurrentThreads is omitted.
const defaultConcurrentThreads = 3

// TestCase is the root entity parsed from a YAML document (spec §3).
type TestCase struct {
	Name        string   `yaml:"name" validate:"required,min=1"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Enabled     bool     `yaml:"enabled,omitempty"`

	Setup    []Step `yaml:"setup,omitempty" validate:"omitempty,dive"`
	Teardown []Step `yaml:"teardown,omitempty" validate:"omitempty,dive"`

	Config GlobalConfig `yaml:"config,omitempty"`
	Steps  []Step       `yaml:"steps" validate:"required,min=1,dive"`
}

// UnmarshalYAML defaults Enabled to true unless the document says otherwise,
// mirroring the teacher's Step.UnmarshalYAML default-handling convention.
func (t *TestCase) UnmarshalYAML(value *yaml.Node) error {
	type rawTestCase TestCase
	var temp rawTestCase
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*t = TestCase(temp)
	if !hasYAMLKey(value, "enabled") {
		t.Enabled = true
	}
	return nil
}

// GlobalConfig holds case-wide settings (spec §3).
type GlobalConfig struct {
	Profiles      map[string]ProfileConfig `yaml:"profiles,omitempty"`
	ActiveProfile string                   `yaml:"active_profile,omitempty"`
	Variables     map[string]any           `yaml:"variables,omitempty"`

	Timeout    int `yaml:"timeout,omitempty" validate:"omitempty,min=1"`
	RetryTimes int `yaml:"retry_times,omitempty" validate:"omitempty,min=0"`

	// ConcurrentThreads sizes the bounded worker pool used by the
	// concurrent step executor (C7, §4.7.5). Not in spec.md's §3 field
	// list but referenced by §4.7.5/§5 — see SPEC_FULL.md DOMAIN MODEL.
	ConcurrentThreads int `yaml:"concurrent_threads,omitempty" validate:"omitempty,min=1,max=64"`

	// DataSource/DataIterations/VariablePrefix are parsed and preserved
	// but intentionally inert — see SPEC_FULL.md's recorded decision for
	// the corresponding Open Question.
	DataSource     string `yaml:"data_source,omitempty"`
	DataIterations int    `yaml:"data_iterations,omitempty"`
	VariablePrefix string `yaml:"variable_prefix,omitempty"`
}

// UnmarshalYAML applies GlobalConfig's defaults (timeout, concurrent_threads)
// only when the document omits the corresponding key.
func (c *GlobalConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawGlobalConfig GlobalConfig
	var temp rawGlobalConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*c = GlobalConfig(temp)

	if !hasYAMLKey(value, "timeout") {
		c.Timeout = defaultTimeoutSeconds
	}
	if !hasYAMLKey(value, "concurrent_threads") {
		c.ConcurrentThreads = defaultConcurrentThreads
	}
	return nil
}

// ProfileConfig is a named environment (spec §3).
type ProfileConfig struct {
	BaseURL   string         `yaml:"base_url,omitempty"`
	Variables map[string]any `yaml:"variables,omitempty"`
	Timeout   int            `yaml:"timeout,omitempty" validate:"omitempty,min=1"`
	VerifySSL bool           `yaml:"verify_ssl,omitempty"`
}

// UnmarshalYAML defaults VerifySSL to true unless the document says
// otherwise, matching apisix's ProfileConfig default.
func (p *ProfileConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawProfileConfig ProfileConfig
	var temp rawProfileConfig
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*p = ProfileConfig(temp)
	if !hasYAMLKey(value, "verify_ssl") {
		p.VerifySSL = true
	}
	return nil
}

// Step is a tagged variant keyed by Type (spec §3). Every variant shares the
// common fields below; exactly one of the variant-specific pointers is
// populated once UnmarshalYAML has dispatched on Type.
type Step struct {
	Name      string   `yaml:"name" validate:"required,step_name"`
	Type      string   `yaml:"type" validate:"required,oneof=request database wait loop concurrent script"`
	SkipIf    string   `yaml:"skip_if,omitempty"`
	OnlyIf    string   `yaml:"only_if,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`

	Timeout    int `yaml:"timeout,omitempty" validate:"omitempty,min=1"`
	RetryTimes int `yaml:"retry_times,omitempty" validate:"omitempty,min=0"`

	Setup    []Step `yaml:"setup,omitempty" validate:"omitempty,dive"`
	Teardown []Step `yaml:"teardown,omitempty" validate:"omitempty,dive"`

	Validations []ValidationRule `yaml:"validations,omitempty" validate:"omitempty,dive"`
	Extractors  []Extractor      `yaml:"extractors,omitempty" validate:"omitempty,dive"`

	Request    *RequestStep    `yaml:",inline,omitempty"`
	Database   *DatabaseStep   `yaml:",inline,omitempty"`
	Wait       *WaitStep       `yaml:",inline,omitempty"`
	Loop       *LoopStep       `yaml:",inline,omitempty"`
	Concurrent *ConcurrentStep `yaml:",inline,omitempty"`
	Script     *ScriptStep     `yaml:",inline,omitempty"`
}

// UnmarshalYAML decodes the common step fields then dispatches on Type to
// populate the matching variant, nil-ing the rest. Mirrors the teacher's
// config.Step.UnmarshalYAML tagged-variant technique.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		Name        string           `yaml:"name"`
		Type        string           `yaml:"type"`
		SkipIf      string           `yaml:"skip_if"`
		OnlyIf      string           `yaml:"only_if"`
		DependsOn   []string         `yaml:"depends_on"`
		Timeout     int              `yaml:"timeout"`
		RetryTimes  int              `yaml:"retry_times"`
		Setup       []Step           `yaml:"setup"`
		Teardown    []Step           `yaml:"teardown"`
		Validations []ValidationRule `yaml:"validations"`
		Extractors  []Extractor      `yaml:"extractors"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	s.Name = base.Name
	s.Type = base.Type
	s.SkipIf = base.SkipIf
	s.OnlyIf = base.OnlyIf
	s.DependsOn = append([]string(nil), base.DependsOn...)
	s.Timeout = base.Timeout
	s.RetryTimes = base.RetryTimes
	s.Setup = base.Setup
	s.Teardown = base.Teardown
	s.Validations = base.Validations
	s.Extractors = base.Extractors

	s.Request = nil
	s.Database = nil
	s.Wait = nil
	s.Loop = nil
	s.Concurrent = nil
	s.Script = nil

	switch base.Type {
	case "request":
		var req RequestStep
		if err := value.Decode(&req); err != nil {
			return err
		}
		s.Request = &req
	case "database":
		var db DatabaseStep
		if err := value.Decode(&db); err != nil {
			return err
		}
		s.Database = &db
	case "wait":
		var wait WaitStep
		if err := value.Decode(&wait); err != nil {
			return err
		}
		wait.SecondsSet = hasYAMLKey(value, "seconds")
		wait.ConditionSet = hasYAMLKey(value, "condition")
		s.Wait = &wait
	case "loop":
		var loop LoopStep
		if err := value.Decode(&loop); err != nil {
			return err
		}
		loop.LoopCountSet = hasYAMLKey(value, "loop_count")
		loop.LoopConditionSet = hasYAMLKey(value, "loop_condition")
		s.Loop = &loop
	case "concurrent":
		var conc ConcurrentStep
		if err := value.Decode(&conc); err != nil {
			return err
		}
		s.Concurrent = &conc
	case "script":
		var script ScriptStep
		if err := value.Decode(&script); err != nil {
			return err
		}
		s.Script = &script
	}

	return nil
}

// RequestStep performs an HTTP call (spec §4.7.1).
type RequestStep struct {
	Method  string            `yaml:"method" validate:"required"`
	URL     string            `yaml:"url" validate:"required"`
	Params  map[string]string `yaml:"params,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    any               `yaml:"body,omitempty"`
}

// DatabaseConnConfig names a registered SQL dialect and its DSN.
type DatabaseConnConfig struct {
	Dialect string `yaml:"dialect" validate:"required"`
	DSN     string `yaml:"dsn" validate:"required"`
}

// DatabaseStep runs a SQL operation (spec §4.7.2).
type DatabaseStep struct {
	Database  DatabaseConnConfig `yaml:"database" validate:"required"`
	Operation string             `yaml:"operation" validate:"required,oneof=query exec executemany script"`
	SQL       string             `yaml:"sql" validate:"required"`
	Params    []any              `yaml:"params,omitempty"`
}

// WaitStep is either a fixed sleep or a conditional poll (spec §4.7.3);
// exactly one of Seconds/Condition is set, enforced at validation time
// using the *Set flags recorded during UnmarshalYAML.
type WaitStep struct {
	Seconds      *float64 `yaml:"seconds,omitempty"`
	Condition    string   `yaml:"condition,omitempty"`
	Interval     float64  `yaml:"interval,omitempty"`
	MaxWait      float64  `yaml:"max_wait,omitempty"`
	SecondsSet   bool     `yaml:"-"`
	ConditionSet bool     `yaml:"-"`
}

// LoopStep iterates a nested step sequence (spec §4.7.4).
type LoopStep struct {
	LoopType         string `yaml:"loop_type" validate:"required,oneof=for while"`
	LoopCount        *int   `yaml:"loop_count,omitempty"`
	LoopCondition    string `yaml:"loop_condition,omitempty"`
	LoopVariable     string `yaml:"loop_variable,omitempty"`
	LoopSteps        []Step `yaml:"loop_steps" validate:"required,min=1,dive"`
	LoopCountSet     bool   `yaml:"-"`
	LoopConditionSet bool   `yaml:"-"`
}

// ConcurrentStep runs its nested steps in parallel (spec §4.7.5).
type ConcurrentStep struct {
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// ScriptStep executes inline source in an embedded interpreter (spec §4.7.6).
type ScriptStep struct {
	Source       string `yaml:"source" validate:"required"`
	Language     string `yaml:"language" validate:"required"`
	AllowImports bool   `yaml:"allow_imports,omitempty"`
}

// ValidationRule is a single assertion run by the validation engine (C5).
type ValidationRule struct {
	Type        string `yaml:"type,omitempty"`
	Path        string `yaml:"path" validate:"required"`
	Expect      any    `yaml:"expect,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// UnmarshalYAML defaults Type to "eq" when omitted, mirroring
// apisix/validation/engine.py's `validation.get("type", "eq")`.
func (v *ValidationRule) UnmarshalYAML(value *yaml.Node) error {
	type rawValidationRule ValidationRule
	var temp rawValidationRule
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*v = ValidationRule(temp)
	if !hasYAMLKey(value, "type") {
		v.Type = "eq"
	}
	return nil
}

// Extractor pulls a value from a response envelope into a variable (C4).
type Extractor struct {
	Name  string `yaml:"name" validate:"required"`
	Type  string `yaml:"type" validate:"required,oneof=jsonpath regex header cookie"`
	Path  string `yaml:"path" validate:"required"`
	Index int    `yaml:"index,omitempty" validate:"omitempty,min=0"`
}

// StepMap builds a lookup table for steps by name.
func StepMap(steps []Step) map[string]Step {
	out := make(map[string]Step, len(steps))
	for _, step := range steps {
		out[step.Name] = step
	}
	return out
}

func hasYAMLKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if strings.EqualFold(k.Value, key) {
			return true
		}
	}
	return false
}
