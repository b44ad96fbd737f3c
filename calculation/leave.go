package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/generic"
)

var (
	halfRate = decimal.RequireFromString("0.5")
	// One-third vacation bonus: 4/3 of the daily rate.
	vacationRate = decimal.NewFromInt(4).Div(decimal.NewFromInt(3))
)

// LeaveBreakdown is the payment for a leave of absence.
// TotalAmount = DailyAmount * Days.
type LeaveBreakdown struct {
	DailyAmount decimal.Decimal `json:"daily_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Days        int             `json:"days"`
}

// DailyRate is the fraction of the daily salary paid for a leave type.
// Unknown types pay the full daily salary.
func DailyRate(leaveType LeaveType, hasMedicalCertificate bool) decimal.Decimal {
	switch leaveType {
	case LeaveSickness:
		if !hasMedicalCertificate {
			return halfRate
		}
	case LeaveVacation:
		return vacationRate
	}
	return decimal.NewFromInt(1)
}

func calculateLeave(p Parameters) (LeaveBreakdown, error) {
	if err := p.validateLeave(); err != nil {
		return LeaveBreakdown{}, err
	}

	days := p.LeavePeriod().Length()
	daily := generic.RoundCents(
		p.Salary.Div(daysPerMonth).Mul(DailyRate(p.LeaveType, p.HasMedicalCertificate)),
	)

	return LeaveBreakdown{
		DailyAmount: daily,
		TotalAmount: daily.Mul(decimal.NewFromInt(int64(days))),
		Days:        days,
	}, nil
}
