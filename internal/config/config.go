package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/nullflow/internal/bound"
)

// NoReturnSpec describes a registered function never returning to its caller.
type NoReturnSpec struct {
	Ref  Reference    `yaml:"ref"`
	Kind NoReturnKind `yaml:"kind"`
}

// ParamSpec names parameters of a function.
type ParamSpec struct {
	Ref    Reference `yaml:"ref"`
	Params []string  `yaml:"params"`
}

// Config is the content of a nullflow config file.
//
//	no-return:
//	  - ref: '"github.com/acme/log".Fatal'
//	    kind: exit
//	non-nil-results:
//	  - '"github.com/acme/store".Open'
//	nilable-params:
//	  - ref: '"github.com/acme/store".Store.Get'
//	    params: [opts]
type Config struct {
	// NoDefaults drops built-in function tables.
	NoDefaults bool `yaml:"no-defaults,omitempty"`

	NoReturn       []NoReturnSpec `yaml:"no-return,omitempty"`
	NonNilResults  []Reference    `yaml:"non-nil-results,omitempty"`
	NilableResults []Reference    `yaml:"nilable-results,omitempty"`
	NilableParams  []ParamSpec    `yaml:"nilable-params,omitempty"`
	NonNilParams   []ParamSpec    `yaml:"non-nil-params,omitempty"`
}

// Default returns a config with built-in function tables only.
func Default() *Config {
	return &Config{
		NoReturn:       slices.Clone(predefinedNoReturn),
		NonNilResults:  slices.Clone(predefinedNonNilResults),
		NilableResults: slices.Clone(predefinedNilableResults),
		NonNilParams:   slices.Clone(predefinedNonNilParams),
	}
}

// Read parses config from r and merges it with built-in tables unless the
// config asks not to. Empty input gives the default config.
func Read(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if c.NoDefaults {
		return &c, nil
	}

	return Default().Merge(&c), nil
}

// Load reads config from the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return c, nil
}

// Merge returns a config with entries of both configs. Entries of other come
// last and win on conflicts.
func (c *Config) Merge(other *Config) *Config {
	results := map[Reference]struct{}{}
	for _, r := range slices.Concat(other.NonNilResults, other.NilableResults) {
		results[r] = struct{}{}
	}
	params := map[Reference]struct{}{}
	for _, s := range slices.Concat(other.NilableParams, other.NonNilParams) {
		params[s.Ref] = struct{}{}
	}

	keepResult := func(r Reference) bool {
		_, ok := results[r]
		return ok
	}
	keepParams := func(s ParamSpec) bool {
		_, ok := params[s.Ref]
		return ok
	}

	return &Config{
		NoDefaults:     c.NoDefaults || other.NoDefaults,
		NoReturn:       slices.Concat(c.NoReturn, other.NoReturn),
		NonNilResults:  slices.Concat(slices.DeleteFunc(slices.Clone(c.NonNilResults), keepResult), other.NonNilResults),
		NilableResults: slices.Concat(slices.DeleteFunc(slices.Clone(c.NilableResults), keepResult), other.NilableResults),
		NilableParams:  slices.Concat(slices.DeleteFunc(slices.Clone(c.NilableParams), keepParams), other.NilableParams),
		NonNilParams:   slices.Concat(slices.DeleteFunc(slices.Clone(c.NonNilParams), keepParams), other.NonNilParams),
	}
}

func (c *Config) validate() error {
	for i, s := range c.NoReturn {
		if s.Kind == noReturnKindInvalid {
			return fmt.Errorf("no-return[%d] %s: missing kind", i, s.Ref)
		}
	}

	nonNil := map[Reference]struct{}{}
	for _, r := range c.NonNilResults {
		nonNil[r] = struct{}{}
	}
	for _, r := range c.NilableResults {
		if _, ok := nonNil[r]; ok {
			return fmt.Errorf("%s is listed in both non-nil-results and nilable-results", r)
		}
	}

	for _, list := range [][]ParamSpec{c.NilableParams, c.NonNilParams} {
		for _, s := range list {
			if len(s.Params) == 0 {
				return fmt.Errorf("%s: no params listed", s.Ref)
			}
		}
	}

	return nil
}

// Annotations are config entries indexed for lookups.
type Annotations struct {
	noReturn map[Reference]NoReturnKind
	results  map[Reference]bound.FlowAnnotation
	params   map[Reference]map[string]bound.FlowAnnotation
}

// Annotations indexes the config.
func (c *Config) Annotations() *Annotations {
	a := &Annotations{
		noReturn: map[Reference]NoReturnKind{},
		results:  map[Reference]bound.FlowAnnotation{},
		params:   map[Reference]map[string]bound.FlowAnnotation{},
	}

	for _, s := range c.NoReturn {
		a.noReturn[s.Ref] = s.Kind
	}
	for _, r := range c.NonNilResults {
		a.results[r] = bound.NotNull
	}
	for _, r := range c.NilableResults {
		a.results[r] = bound.MaybeNull
	}
	a.addParams(c.NilableParams, bound.AllowNull)
	a.addParams(c.NonNilParams, bound.DisallowNull)

	return a
}

func (a *Annotations) addParams(specs []ParamSpec, flag bound.FlowAnnotation) {
	for _, s := range specs {
		ps, ok := a.params[s.Ref]
		if !ok {
			ps = map[string]bound.FlowAnnotation{}
			a.params[s.Ref] = ps
		}
		for _, p := range s.Params {
			ps[p] = flag
		}
	}
}

// NoReturn tells if the function never returns and how it leaves.
func (a *Annotations) NoReturn(ref Reference) (NoReturnKind, bool) {
	k, ok := a.noReturn[ref]
	return k, ok
}

// Result returns flags of the function result, DoesNotReturn included.
func (a *Annotations) Result(ref Reference) bound.FlowAnnotation {
	res := a.results[ref]
	if _, ok := a.noReturn[ref]; ok {
		res |= bound.DoesNotReturn
	}
	return res
}

// Param returns flags of the named parameter of the function.
func (a *Annotations) Param(ref Reference, name string) bound.FlowAnnotation {
	return a.params[ref][name]
}
