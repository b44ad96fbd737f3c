/*
Package factory converts bracket-table configuration files into tax.Tables.

PURPOSE:
  Tax law changes every year. Tables live in a YAML (or JSON, which is a
  YAML subset) file loaded at startup so a new table needs no code edit.

FILE SCHEMA:
  inss:
    name: inss-2023
    brackets:
      - {limit: 1320.00, rate: 0.075}
      - {limit: 2571.29, rate: 0.09}
  ir:
    brackets:
      - {limit: 1903.98, rate: 0}
      - {rate: 0.275, deduction: 869.36}   # no limit = unbounded

  A section that is absent keeps the built-in default for that table.
  Decimals may be written as YAML numbers or quoted strings; they are
  parsed from their source text so no float rounding is introduced.

USAGE:
  tables, err := factory.LoadTablesFile("config/tax_tables.yaml")
  engine, err := calculation.New(tables)

SEE ALSO:
  - tax/tables.go: Built-in defaults
  - config/tax_tables.yaml: Example file
*/
package factory

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/severance-engine/tax"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// TablesFile is the on-disk representation.
type TablesFile struct {
	INSS *TableFile `yaml:"inss" json:"inss,omitempty"`
	IR   *TableFile `yaml:"ir" json:"ir,omitempty"`
}

// TableFile is one table.
type TableFile struct {
	Name     string        `yaml:"name" json:"name,omitempty"`
	Brackets []BracketFile `yaml:"brackets" json:"brackets"`
}

// BracketFile is one bracket. A nil Limit means unbounded.
type BracketFile struct {
	Limit     *Decimal `yaml:"limit" json:"limit,omitempty"`
	Rate      Decimal  `yaml:"rate" json:"rate"`
	Deduction Decimal  `yaml:"deduction" json:"deduction,omitempty"`
}

// Decimal reads a YAML scalar's literal text as a decimal.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number, got %s", n.Line, describeKind(n.Kind))
	}
	v, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid decimal %q", n.Line, n.Value)
	}
	d.Decimal = v
	return nil
}

func (d Decimal) MarshalYAML() (any, error) {
	return d.String(), nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTables decodes data and validates the resulting tables.
func ParseTables(data []byte) (tax.Tables, error) {
	var tf TablesFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return tax.Tables{}, fmt.Errorf("failed to parse tax tables: %w", err)
	}
	return FromFile(tf)
}

// LoadTablesFile reads and parses a tables file. An empty path yields the
// built-in defaults.
func LoadTablesFile(path string) (tax.Tables, error) {
	if path == "" {
		return tax.DefaultTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tax.Tables{}, fmt.Errorf("failed to read tax tables: %w", err)
	}
	return ParseTables(data)
}

// FromFile converts the file form, filling absent sections with defaults.
func FromFile(tf TablesFile) (tax.Tables, error) {
	tables := tax.DefaultTables()
	if tf.INSS != nil {
		tables.INSS = tf.INSS.toTable("inss")
	}
	if tf.IR != nil {
		tables.IR = tf.IR.toTable("ir")
	}
	if err := tables.Validate(); err != nil {
		return tax.Tables{}, err
	}
	return tables, nil
}

// ToFile is the inverse of FromFile.
func ToFile(tables tax.Tables) TablesFile {
	return TablesFile{INSS: fromTable(tables.INSS), IR: fromTable(tables.IR)}
}

// MarshalTables renders tables as YAML.
func MarshalTables(tables tax.Tables) ([]byte, error) {
	return yaml.Marshal(ToFile(tables))
}

func (t TableFile) toTable(defaultName string) tax.Table {
	name := t.Name
	if name == "" {
		name = defaultName
	}
	out := tax.Table{Name: name, Brackets: make([]tax.Bracket, 0, len(t.Brackets))}
	for _, b := range t.Brackets {
		br := tax.Bracket{Rate: b.Rate.Decimal, Deduction: b.Deduction.Decimal}
		if b.Limit != nil {
			br.Limit = decimal.NewNullDecimal(b.Limit.Decimal)
		}
		out.Brackets = append(out.Brackets, br)
	}
	return out
}

func fromTable(t tax.Table) *TableFile {
	out := &TableFile{Name: t.Name}
	for _, b := range t.Brackets {
		bf := BracketFile{Rate: Decimal{b.Rate}, Deduction: Decimal{b.Deduction}}
		if !b.Unbounded() {
			bf.Limit = &Decimal{b.Limit.Decimal}
		}
		out.Brackets = append(out.Brackets, bf)
	}
	return out
}

func describeKind(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}
