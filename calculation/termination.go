package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/tax"
)

var (
	daysPerMonth         = decimal.NewFromInt(30)
	monthsPerYear        = decimal.NewFromInt(12)
	vacationDaysPerMonth = decimal.RequireFromString("2.5")
	fgtsMonthlyRate      = decimal.RequireFromString("0.08")
	fgtsFineRate         = decimal.RequireFromString("0.40")
	otherBenefitsRate    = decimal.RequireFromString("0.10")
)

// TerminationBreakdown is the severance statement.
// TotalAmount = SalaryBalance + VacationBalance + ThirteenthSalary +
// NoticePeriod + FGTSFine + OtherBenefits - Deductions.
type TerminationBreakdown struct {
	SalaryBalance    decimal.Decimal `json:"salary_balance"`
	VacationBalance  decimal.Decimal `json:"vacation_balance"`
	ThirteenthSalary decimal.Decimal `json:"thirteenth_salary"`
	NoticePeriod     decimal.Decimal `json:"notice_period"`
	FGTSFine         decimal.Decimal `json:"fgts_fine"`
	OtherBenefits    decimal.Decimal `json:"other_benefits"`
	Deductions       decimal.Decimal `json:"deductions"`
	TotalAmount      decimal.Decimal `json:"total_amount"`

	// Informational; already included above.
	MonthsWorked int             `json:"months_worked"`
	VacationDays decimal.Decimal `json:"vacation_days"`
	INSS         decimal.Decimal `json:"inss"`
	IR           decimal.Decimal `json:"ir"`
}

// Credits is the sum of every payable component before deductions.
func (b TerminationBreakdown) Credits() decimal.Decimal {
	return decimal.Sum(b.SalaryBalance, b.VacationBalance, b.ThirteenthSalary,
		b.NoticePeriod, b.FGTSFine, b.OtherBenefits)
}

func calculateTermination(p Parameters, tables tax.Tables) (TerminationBreakdown, error) {
	if err := p.validateTermination(); err != nil {
		return TerminationBreakdown{}, err
	}

	salary := p.Salary
	end := p.TerminationDate

	// Partial salary for the final month
	daysInMonth := decimal.NewFromInt(int64(generic.DaysInMonth(end)))
	daysWorked := decimal.NewFromInt(int64(generic.DayOfMonth(end)))
	salaryBalance := salary.Div(daysInMonth).Mul(daysWorked)

	months := generic.MonthsBetween(p.AdmissionDate, end)
	monthsDec := decimal.NewFromInt(int64(months))

	vacationDays := monthsDec.Mul(vacationDaysPerMonth)
	vacationBalance := salary.Div(daysPerMonth).Mul(vacationDays)

	thirteenth := salary.Div(monthsPerYear).Mul(monthsDec)

	fgtsBalance := salary.Mul(fgtsMonthlyRate).Mul(monthsDec)
	fgtsFine := fgtsBalance.Mul(fgtsFineRate)

	otherBenefits := salary.Mul(otherBenefitsRate)

	inss := generic.RoundCents(tax.ProgressiveTax(salary, tables.INSS))
	ir := generic.RoundCents(tax.BracketedDeduction(salary.Sub(inss), tables.IR))

	b := TerminationBreakdown{
		SalaryBalance:    generic.RoundCents(salaryBalance),
		VacationBalance:  generic.RoundCents(vacationBalance),
		ThirteenthSalary: generic.RoundCents(thirteenth),
		NoticePeriod:     generic.RoundCents(salary),
		FGTSFine:         generic.RoundCents(fgtsFine),
		OtherBenefits:    generic.RoundCents(otherBenefits),
		Deductions:       inss.Add(ir),
		MonthsWorked:     months,
		VacationDays:     vacationDays,
		INSS:             inss,
		IR:               ir,
	}
	b.TotalAmount = b.Credits().Sub(b.Deductions)
	return b, nil
}
