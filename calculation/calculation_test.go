package calculation_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/tax"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(y, m, d) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func terminationParams(salary string, admission, termination generic.TimePoint) calculation.Parameters {
	return calculation.Parameters{
		Salary:          dec(salary),
		AdmissionDate:   admission,
		TerminationDate: termination,
	}
}

func leaveParams(salary string, start, end generic.TimePoint, lt calculation.LeaveType, cert bool) calculation.Parameters {
	return calculation.Parameters{
		Salary:                dec(salary),
		AdmissionDate:         date(2020, time.January, 1),
		LeaveStartDate:        start,
		LeaveEndDate:          end,
		LeaveType:             lt,
		HasMedicalCertificate: cert,
	}
}

// =============================================================================
// TERMINATION
// =============================================================================

func TestCalculateTermination_ReferenceScenario(t *testing.T) {
	// GIVEN: 3000/month, admitted 2023-01-15, terminated 2024-03-20
	p := terminationParams("3000", date(2023, time.January, 15), date(2024, time.March, 20))

	// WHEN
	b, err := calculation.CalculateTermination(p)
	require.NoError(t, err)

	// THEN
	assert.Equal(t, 14, b.MonthsWorked)
	assertMoney(t, "35", b.VacationDays, "vacation_days")
	assertMoney(t, "1935.48", b.SalaryBalance, "salary_balance") // 3000/31*20
	assertMoney(t, "3500", b.VacationBalance, "vacation_balance")
	assertMoney(t, "3500", b.ThirteenthSalary, "thirteenth_salary")
	assertMoney(t, "3000", b.NoticePeriod, "notice_period")
	assertMoney(t, "134.4", b.FGTSFine, "fgts_fine")
	assertMoney(t, "300", b.OtherBenefits, "other_benefits")
	assertMoney(t, "250.2", b.INSS, "inss")  // 1320*7.5% + 1680*9%
	assertMoney(t, "63.44", b.IR, "ir")      // 2749.80*7.5% - 142.80
	assertMoney(t, "313.64", b.Deductions, "deductions")
	assertMoney(t, "12056.24", b.TotalAmount, "total_amount")
}

func TestCalculateTermination_HighSalaryLeapMonth(t *testing.T) {
	p := terminationParams("10000", date(2020, time.January, 1), date(2024, time.February, 29))

	b, err := calculation.CalculateTermination(p)
	require.NoError(t, err)

	assert.Equal(t, 49, b.MonthsWorked)
	assertMoney(t, "10000", b.SalaryBalance, "salary_balance") // last day of a 29-day month
	assertMoney(t, "40833.33", b.VacationBalance, "vacation_balance")
	assertMoney(t, "40833.33", b.ThirteenthSalary, "thirteenth_salary")
	assertMoney(t, "15680", b.FGTSFine, "fgts_fine")
	assertMoney(t, "1000", b.OtherBenefits, "other_benefits")
	assertMoney(t, "1108.5", b.INSS, "inss") // capped at the last INSS threshold
	assertMoney(t, "1575.8", b.IR, "ir")     // top bracket
	assertMoney(t, "115662.36", b.TotalAmount, "total_amount")
}

func TestCalculateTermination_ZeroSalary(t *testing.T) {
	p := terminationParams("0", date(2023, time.January, 15), date(2024, time.March, 20))

	b, err := calculation.CalculateTermination(p)
	require.NoError(t, err)

	for name, v := range map[string]decimal.Decimal{
		"salary_balance":    b.SalaryBalance,
		"vacation_balance":  b.VacationBalance,
		"thirteenth_salary": b.ThirteenthSalary,
		"notice_period":     b.NoticePeriod,
		"fgts_fine":         b.FGTSFine,
		"other_benefits":    b.OtherBenefits,
		"deductions":        b.Deductions,
		"total_amount":      b.TotalAmount,
	} {
		assert.True(t, v.IsZero(), "%s should be zero, got %s", name, v)
	}
}

func TestCalculateTermination_SameMonthAsAdmission(t *testing.T) {
	p := terminationParams("3100", date(2024, time.May, 2), date(2024, time.May, 10))

	b, err := calculation.CalculateTermination(p)
	require.NoError(t, err)

	assert.Equal(t, 0, b.MonthsWorked)
	assertMoney(t, "1000", b.SalaryBalance, "salary_balance")
	assert.True(t, b.VacationBalance.IsZero())
	assert.True(t, b.ThirteenthSalary.IsZero())
	assert.True(t, b.FGTSFine.IsZero())
}

func TestCalculateTermination_TotalIsCreditsMinusDeductions(t *testing.T) {
	salaries := []string{"0", "1", "999.99", "1320", "1903.98", "2571.29", "4500.50", "7507.49", "12345.67", "50000"}
	admission := date(2019, time.August, 31)

	for _, s := range salaries {
		for months := 0; months < 40; months += 7 {
			end := admission.AddMonths(months).AddDays(months)
			b, err := calculation.CalculateTermination(terminationParams(s, admission, end))
			require.NoError(t, err)

			assert.True(t, b.TotalAmount.Equal(b.Credits().Sub(b.Deductions)), "salary=%s end=%s", s, end)
			assert.True(t, b.Deductions.Equal(b.INSS.Add(b.IR)), "salary=%s", s)
			assert.False(t, b.Deductions.IsNegative())
		}
	}
}

func TestCalculateTermination_Validation(t *testing.T) {
	adm := date(2023, time.January, 15)
	term := date(2024, time.March, 20)

	tests := []struct {
		name  string
		p     calculation.Parameters
		field string
	}{
		{"missing termination date", calculation.Parameters{Salary: dec("3000"), AdmissionDate: adm}, "termination_date"},
		{"missing admission date", calculation.Parameters{Salary: dec("3000"), TerminationDate: term}, "admission_date"},
		{"admission after termination", terminationParams("3000", term, adm), "admission_date"},
		{"negative salary", terminationParams("-1", adm, term), "salary"},
		{"mixed with leave fields", func() calculation.Parameters {
			p := terminationParams("3000", adm, term)
			p.LeaveType = calculation.LeaveSickness
			return p
		}(), "leave"},
		{"medical certificate flag set", func() calculation.Parameters {
			p := terminationParams("3000", adm, term)
			p.HasMedicalCertificate = true
			return p
		}(), "leave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calculation.CalculateTermination(tt.p)

			require.ErrorIs(t, err, generic.ErrInvalidArgument)
			var argErr *generic.InvalidArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.field, argErr.Field)
			assert.Equal(t, calculation.TerminationBreakdown{}, b, "no partial result")
		})
	}
}

// =============================================================================
// LEAVE
// =============================================================================

func TestCalculateLeave_ByType(t *testing.T) {
	start := date(2024, time.January, 1)
	end := date(2024, time.January, 10)

	tests := []struct {
		name      string
		leaveType calculation.LeaveType
		cert      bool
		daily     string
		total     string
	}{
		{"sickness without certificate", calculation.LeaveSickness, false, "50", "500"},
		{"sickness with certificate", calculation.LeaveSickness, true, "100", "1000"},
		{"work accident", calculation.LeaveWorkAccident, false, "100", "1000"},
		{"maternity", calculation.LeaveMaternity, false, "100", "1000"},
		{"paternity", calculation.LeavePaternity, false, "100", "1000"},
		{"vacation with one-third bonus", calculation.LeaveVacation, false, "133.33", "1333.3"},
		{"unknown type defaults to full pay", calculation.LeaveType("licenca_gala"), false, "100", "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calculation.CalculateLeave(leaveParams("3000", start, end, tt.leaveType, tt.cert))
			require.NoError(t, err)

			assert.Equal(t, 10, b.Days)
			assertMoney(t, tt.daily, b.DailyAmount, "daily_amount")
			assertMoney(t, tt.total, b.TotalAmount, "total_amount")
		})
	}
}

func TestCalculateLeave_SingleDayIsInclusive(t *testing.T) {
	d := date(2024, time.February, 29)
	b, err := calculation.CalculateLeave(leaveParams("3000", d, d, calculation.LeaveMaternity, false))
	require.NoError(t, err)

	assert.Equal(t, 1, b.Days)
	assertMoney(t, "100", b.TotalAmount, "total_amount")
}

func TestCalculateLeave_SpansMonths(t *testing.T) {
	b, err := calculation.CalculateLeave(leaveParams("4500", date(2024, time.January, 20), date(2024, time.March, 5), calculation.LeaveWorkAccident, false))
	require.NoError(t, err)

	// 12 days in January, 29 in February, 5 in March
	assert.Equal(t, 46, b.Days)
	assertMoney(t, "150", b.DailyAmount, "daily_amount")
	assertMoney(t, "6900", b.TotalAmount, "total_amount")
}

func TestCalculateLeave_TotalIsDailyTimesDays(t *testing.T) {
	start := date(2024, time.March, 3)
	for _, s := range []string{"0", "1234.56", "3333.33", "9999.99"} {
		for _, lt := range []calculation.LeaveType{calculation.LeaveSickness, calculation.LeaveVacation, calculation.LeavePaternity} {
			for n := 0; n < 45; n += 11 {
				b, err := calculation.CalculateLeave(leaveParams(s, start, start.AddDays(n), lt, false))
				require.NoError(t, err)

				assert.Equal(t, n+1, b.Days)
				assert.True(t, b.TotalAmount.Equal(b.DailyAmount.Mul(decimal.NewFromInt(int64(b.Days)))))
			}
		}
	}
}

func TestCalculateLeave_ZeroSalary(t *testing.T) {
	b, err := calculation.CalculateLeave(leaveParams("0", date(2024, time.January, 1), date(2024, time.January, 10), calculation.LeaveVacation, false))
	require.NoError(t, err)

	assert.True(t, b.DailyAmount.IsZero())
	assert.True(t, b.TotalAmount.IsZero())
	assert.Equal(t, 10, b.Days)
}

func TestCalculateLeave_Validation(t *testing.T) {
	start := date(2024, time.January, 10)
	end := date(2024, time.January, 1)

	tests := []struct {
		name  string
		p     calculation.Parameters
		field string
	}{
		{"missing start", calculation.Parameters{Salary: dec("3000"), LeaveEndDate: end, LeaveType: calculation.LeaveSickness}, "leave_start_date"},
		{"missing end", calculation.Parameters{Salary: dec("3000"), LeaveStartDate: start, LeaveType: calculation.LeaveSickness}, "leave_end_date"},
		{"missing type", calculation.Parameters{Salary: dec("3000"), LeaveStartDate: end, LeaveEndDate: start}, "leave_type"},
		{"end before start", leaveParams("3000", start, end, calculation.LeaveSickness, true), "leave_end_date"},
		{"negative salary", leaveParams("-10", end, start, calculation.LeaveSickness, true), "salary"},
		{"mixed with termination", func() calculation.Parameters {
			p := leaveParams("3000", end, start, calculation.LeaveSickness, true)
			p.TerminationDate = start
			return p
		}(), "termination_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calculation.CalculateLeave(tt.p)

			var argErr *generic.InvalidArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.field, argErr.Field)
			assert.Equal(t, calculation.LeaveBreakdown{}, b)
		})
	}
}

// =============================================================================
// ENGINE
// =============================================================================

func TestEngine_CalculateDispatch(t *testing.T) {
	e := calculation.Default()

	res, err := e.Calculate(terminationParams("3000", date(2023, time.January, 15), date(2024, time.March, 20)))
	require.NoError(t, err)
	require.NotNil(t, res.Termination)
	assert.Nil(t, res.Leave)

	res, err = e.Calculate(leaveParams("3000", date(2024, time.January, 1), date(2024, time.January, 10), calculation.LeaveSickness, false))
	require.NoError(t, err)
	require.NotNil(t, res.Leave)
	assert.Nil(t, res.Termination)

	_, err = e.Calculate(calculation.Parameters{Salary: dec("3000"), AdmissionDate: date(2023, time.January, 15)})
	assert.ErrorIs(t, err, generic.ErrInvalidArgument, "neither group present")

	both := leaveParams("3000", date(2024, time.January, 1), date(2024, time.January, 10), calculation.LeaveSickness, false)
	both.TerminationDate = date(2024, time.March, 20)
	_, err = e.Calculate(both)
	assert.ErrorIs(t, err, generic.ErrInvalidArgument, "both groups present")
}

func TestEngine_CustomTables(t *testing.T) {
	// GIVEN: A flat 10% INSS and an exempt IR table
	tables := tax.Tables{
		INSS: tax.Table{Name: "inss", Brackets: []tax.Bracket{tax.Above("0.10", "0")}},
		IR:   tax.Table{Name: "ir", Brackets: []tax.Bracket{tax.Above("0", "0")}},
	}
	e, err := calculation.New(tables)
	require.NoError(t, err)

	// WHEN
	b, err := e.CalculateTermination(terminationParams("3000", date(2023, time.January, 15), date(2024, time.March, 20)))
	require.NoError(t, err)

	// THEN
	assertMoney(t, "300", b.INSS, "inss")
	assertMoney(t, "0", b.IR, "ir")
	assertMoney(t, "300", b.Deductions, "deductions")
}

func TestEngine_RejectsInvalidTables(t *testing.T) {
	tables := tax.DefaultTables()
	tables.IR.Brackets = tables.IR.Brackets[:2]

	_, err := calculation.New(tables)
	assert.ErrorIs(t, err, generic.ErrInvalidArgument)
}

func TestEngine_TablesAreCopied(t *testing.T) {
	tables := tax.DefaultTables()
	e, err := calculation.New(tables)
	require.NoError(t, err)

	tables.INSS.Brackets[0].Rate = dec("0.9")
	e.Tables().INSS.Brackets[0].Rate = dec("0.9")

	assertMoney(t, "0.075", e.Tables().INSS.Brackets[0].Rate, "rate")
}

func TestEngine_IdempotentAndConcurrent(t *testing.T) {
	e := calculation.Default()
	p := terminationParams("4321.09", date(2021, time.June, 7), date(2024, time.November, 13))

	want, err := e.CalculateTermination(p)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]calculation.TerminationBreakdown, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.CalculateTermination(p)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, want.TotalAmount.Equal(got.TotalAmount))
		assert.True(t, want.Deductions.Equal(got.Deductions))
		assert.Equal(t, want.MonthsWorked, got.MonthsWorked)
	}
}
