// Package statement renders a process breakdown as a printable PDF.
package statement

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/hrprocess"
)

var ErrNoBreakdown = errors.New("process has no breakdown")

type line struct {
	label  string
	amount decimal.Decimal
}

// Render writes a one-page A4 statement for proc to w.
func Render(w io.Writer, emp hrprocess.Employee, proc hrprocess.Process) error {
	var title string
	var lines []line
	var extra []string

	switch {
	case proc.Termination != nil:
		b := proc.Termination
		title = "Termo de Rescisão"
		lines = []line{
			{"Saldo de salário", b.SalaryBalance},
			{"Férias proporcionais", b.VacationBalance},
			{"13º salário proporcional", b.ThirteenthSalary},
			{"Aviso prévio", b.NoticePeriod},
			{"Multa FGTS (40%)", b.FGTSFine},
			{"Outros benefícios", b.OtherBenefits},
			{"INSS", b.INSS.Neg()},
			{"IRRF", b.IR.Neg()},
		}
		extra = []string{
			fmt.Sprintf("Data de desligamento: %s", proc.Params.TerminationDate),
			fmt.Sprintf("Meses trabalhados: %d", b.MonthsWorked),
		}
	case proc.Leave != nil:
		b := proc.Leave
		title = "Demonstrativo de Afastamento"
		lines = []line{
			{"Valor diário", b.DailyAmount},
		}
		extra = []string{
			fmt.Sprintf("Tipo: %s", proc.Params.LeaveType),
			fmt.Sprintf("Período: %s a %s (%d dias)", proc.Params.LeaveStartDate, proc.Params.LeaveEndDate, b.Days),
		}
	default:
		return fmt.Errorf("process %s: %w", proc.ID, ErrNoBreakdown)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{fmt.Sprintf("Colaborador: %s", emp.Name)}
	if emp.Email != "" {
		header = append(header, "E-mail: "+emp.Email)
	}
	header = append(header,
		fmt.Sprintf("Admissão: %s", emp.AdmissionDate),
		fmt.Sprintf("Salário base: %s", FormatBRL(emp.Salary)),
		fmt.Sprintf("Processo: %s (%s)", proc.ID, proc.Status),
	)
	for _, h := range append(header, extra...) {
		pdf.Cell(0, 7, tr(h))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 8, tr("Descrição"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, "Valor", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, l := range lines {
		pdf.CellFormat(120, 7, tr(l.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, tr(FormatBRL(l.amount)), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 9, tr("Total líquido"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(60, 9, tr(FormatBRL(proc.TotalAmount())), "T", 1, "R", false, 0, "")

	if proc.Reason != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, tr("Motivo: "+proc.Reason), "", "L", false)
	}

	return pdf.Output(w)
}

// FormatBRL formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("R$ ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
