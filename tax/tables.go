package tax

// Tables groups the withholding tables the engine consumes.
type Tables struct {
	INSS Table `json:"inss"`
	IR   Table `json:"ir"`
}

// Validate checks both tables. IR must be unbounded; INSS may be capped.
func (t Tables) Validate() error {
	if err := t.INSS.Validate(); err != nil {
		return err
	}
	return t.IR.ValidateUnbounded()
}

// DefaultINSS is the monthly social-security table. Amounts above the last
// threshold are not taxed further.
func DefaultINSS() Table {
	return Table{
		Name: "inss",
		Brackets: []Bracket{
			Upto("1320.00", "0.075", "0"),
			Upto("2571.29", "0.09", "0"),
			Upto("3856.94", "0.12", "0"),
			Upto("7507.49", "0.14", "0"),
		},
	}
}

// DefaultIR is the monthly income-tax table.
func DefaultIR() Table {
	return Table{
		Name: "ir",
		Brackets: []Bracket{
			Upto("1903.98", "0", "0"),
			Upto("2826.65", "0.075", "142.80"),
			Upto("3751.05", "0.15", "354.80"),
			Upto("4664.68", "0.225", "636.13"),
			Above("0.275", "869.36"),
		},
	}
}

// DefaultTables returns fresh copies of the built-in tables.
func DefaultTables() Tables {
	return Tables{INSS: DefaultINSS(), IR: DefaultIR()}
}

// Clone deep-copies the tables so callers cannot mutate shared brackets.
func (t Tables) Clone() Tables {
	return Tables{INSS: t.INSS.clone(), IR: t.IR.clone()}
}

func (t Table) clone() Table {
	out := Table{Name: t.Name, Brackets: make([]Bracket, len(t.Brackets))}
	copy(out.Brackets, t.Brackets)
	return out
}
