// Package catalog holds the scan universe and strategy definitions, loaded
// from a YAML file that is schema-checked and hot-reloaded.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"roshi/internal/market"
	"roshi/internal/strategy"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// Catalog is one consistent set of instruments, strategies and rules.
type Catalog struct {
	Instruments []market.Instrument   `json:"instruments" yaml:"instruments"`
	Strategies  []strategy.Definition `json:"strategies" yaml:"strategies"`
	Rules       strategy.RuleParams   `json:"rules" yaml:"rules"`
	Bindings    []strategy.Binding    `json:"bindings" yaml:"bindings"`
}

// Default mirrors configs/catalog.yaml.
func Default() Catalog {
	return Catalog{
		Instruments: []market.Instrument{
			{Name: "NIFTY50", Symbol: "^NSEI"},
			{Name: "BANKNIFTY", Symbol: "^NSEBANK"},
			{Name: "RELIANCE", Symbol: "RELIANCE.NS"},
			{Name: "TCS", Symbol: "TCS.NS"},
			{Name: "HDFCBANK", Symbol: "HDFCBANK.NS"},
			{Name: "ICICIBANK", Symbol: "ICICIBANK.NS"},
			{Name: "INFY", Symbol: "INFY.NS"},
			{Name: "BHARTIARTL", Symbol: "BHARTIARTL.NS"},
			{Name: "ITC", Symbol: "ITC.NS"},
			{Name: "SBIN", Symbol: "SBIN.NS"},
			{Name: "KOTAKBANK", Symbol: "KOTAKBANK.NS"},
			{Name: "AXISBANK", Symbol: "AXISBANK.NS"},
			{Name: "MARUTI", Symbol: "MARUTI.NS"},
			{Name: "TITAN", Symbol: "TITAN.NS"},
			{Name: "SUNPHARMA", Symbol: "SUNPHARMA.NS"},
			{Name: "TATAMOTORS", Symbol: "TATAMOTORS.NS"},
		},
		Strategies: strategy.DefaultDefinitions(),
		Rules:      strategy.DefaultRuleParams(),
		Bindings:   strategy.DefaultBindings(),
	}
}

// Engine builds a signal engine over this catalog.
func (c Catalog) Engine() *strategy.Engine {
	return strategy.NewEngine(c.Strategies, c.Rules, c.Bindings)
}

// Validate checks the cross-references the schema cannot express.
func (c Catalog) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("catalog: no instruments")
	}
	names := make(map[string]bool, len(c.Instruments))
	for i, inst := range c.Instruments {
		if inst.Name == "" || inst.Symbol == "" {
			return fmt.Errorf("catalog: instruments[%d] needs name and symbol", i)
		}
		if names[inst.Name] {
			return fmt.Errorf("catalog: duplicate instrument %s", inst.Name)
		}
		names[inst.Name] = true
	}
	strategies := make(map[string]bool, len(c.Strategies))
	for _, def := range c.Strategies {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		key := strings.ToUpper(def.Name)
		if strategies[key] {
			return fmt.Errorf("catalog: duplicate strategy %s", def.Name)
		}
		strategies[key] = true
	}
	for i, b := range c.Bindings {
		if !strategies[strings.ToUpper(strings.TrimSpace(b.Strategy))] {
			return fmt.Errorf("catalog: bindings[%d] references unknown strategy %q", i, b.Strategy)
		}
	}
	return nil
}

func (c Catalog) normalize() Catalog {
	out := c
	out.Instruments = make([]market.Instrument, 0, len(c.Instruments))
	for _, inst := range c.Instruments {
		out.Instruments = append(out.Instruments, inst.Normalize())
	}
	out.Strategies = make([]strategy.Definition, 0, len(c.Strategies))
	for _, def := range c.Strategies {
		def.Name = strings.ToUpper(strings.TrimSpace(def.Name))
		def.Hold = strings.TrimSpace(def.Hold)
		out.Strategies = append(out.Strategies, def)
	}
	out.Rules = c.Rules.WithDefaults()
	if len(c.Bindings) == 0 {
		out.Bindings = strategy.DefaultBindings()
	}
	return out
}

// LoadFile reads, schema-checks, strictly decodes and validates a catalog.
func LoadFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog failed: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Catalog, error) {
	if err := validateSchema(raw); err != nil {
		return Catalog{}, err
	}
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog failed: %w", err)
	}
	cat = cat.normalize()
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.schema.json", strings.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("catalog.schema.json")
}

// validateSchema round-trips the YAML through JSON so the validator sees
// plain JSON types.
func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse catalog failed: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("catalog is empty")
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog is not json-compatible: %w", err)
	}
	var generic any
	if err := json.Unmarshal(buf, &generic); err != nil {
		return err
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}
