package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/macro-coach/internal/metrics"
)

const (
	pdfFont       = "Helvetica"
	pdfTableDays  = 14
	noDataLabel   = "No data"
	csvFloatDigit = 1
)

var csvHeader = []string{
	"date", "total_metrics", "kcal_in", "kcal_out", "kcal_balance",
	"protein_g", "carbs_g", "fat_g", "steps", "weight_kg", "workouts",
}

// Render выбирает формат отчёта.
func Render(format string, data ReportData) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(data)
	case FormatPDF:
		return renderPDF(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

// renderCSV пишет одну строку на каждый день периода; пустые ячейки: нет данных.
func renderCSV(data ReportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, day := range data.Days {
		row := []string{
			day.Date,
			strconv.Itoa(day.TotalMetrics),
			csvFloat(day.KcalIn),
			csvFloat(day.KcalOut),
			csvFloat(day.KcalBalance),
			csvFloat(day.ProteinG),
			csvFloat(day.CarbsG),
			csvFloat(day.FatG),
			csvInt(day.Steps),
			csvFloat(day.Weight),
			strconv.Itoa(len(day.Workouts)),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(data ReportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("MacroCoach progress report", false)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.Cell(0, 10, "MacroCoach Progress Report")
	pdf.Ln(8)

	pdf.SetFont(pdfFont, "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("User: %s   Period: %s - %s", data.UserID, data.From, data.To))
	pdf.Ln(6)
	pdf.Cell(0, 7, "Generated: "+data.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	section(pdf, "Summary")
	p := data.Progress
	if p.NoData {
		line(pdf, "No metrics were logged in this period.")
	} else {
		line(pdf, fmt.Sprintf("Days with data: %d", p.TotalDays))
		line(pdf, fmt.Sprintf("Average intake: %d kcal/day", p.AvgKcalIn))
		line(pdf, fmt.Sprintf("Average protein: %.1f g/day", p.AvgProteinG))
		line(pdf, fmt.Sprintf("Average steps: %d/day", p.AvgSteps))
		line(pdf, fmt.Sprintf("Workout days: %d/%d", p.WorkoutDays, p.TotalDays))
		change := noDataLabel
		if p.WeightChangeKG != nil {
			change = fmt.Sprintf("%+.1f kg", *p.WeightChangeKG)
		}
		line(pdf, fmt.Sprintf("Weight trend: %s (%s)", p.WeightTrend, change))
	}
	pdf.Ln(6)

	if data.Profile != nil {
		section(pdf, "Profile")
		pr := data.Profile
		line(pdf, fmt.Sprintf("%d y/o %s, %.0f cm, %s", pr.Age, pr.Gender, pr.HeightCM, pr.ActivityLevel))
		line(pdf, fmt.Sprintf("Goal: %s, macro split %.0f/%.0f/%.0f", pr.Goal, pr.ProteinPercent, pr.CarbsPercent, pr.FatPercent))
		pdf.Ln(6)
	}

	if plan := data.LatestPlan; plan != nil {
		section(pdf, "Latest plan ("+plan.Date+")")
		line(pdf, fmt.Sprintf("Target: %d kcal, protein %.0f g, carbs %.0f g, fat %.0f g",
			plan.TargetKcal, plan.TargetProteinG, plan.TargetCarbsG, plan.TargetFatG))
		line(pdf, fmt.Sprintf("Steps: %d, workout: %d min", plan.TargetSteps, plan.TargetWorkoutMinutes))
		pdf.Ln(6)
	}

	section(pdf, "Recent days")
	drawDaysTable(pdf, data.Days)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawDaysTable рисует последние дни, в которые были данные.
func drawDaysTable(pdf *gofpdf.Fpdf, days []metrics.DailySummary) {
	withData := make([]metrics.DailySummary, 0, len(days))
	for _, d := range days {
		if d.HasData() {
			withData = append(withData, d)
		}
	}
	if len(withData) > pdfTableDays {
		withData = withData[len(withData)-pdfTableDays:]
	}

	if len(withData) == 0 {
		line(pdf, noDataLabel)
		return
	}

	pdf.SetFont(pdfFont, "B", 9)
	for i, h := range []string{"Date", "Kcal in", "Kcal out", "Protein", "Steps", "Weight", "Workouts"} {
		ln := 0
		if i == 6 {
			ln = 1
		}
		pdf.CellFormat(25, 6, h, "1", ln, "C", false, 0, "")
	}

	pdf.SetFont(pdfFont, "", 9)
	for _, d := range withData {
		cells := []string{
			d.Date,
			pdfFloat(d.KcalIn, 0),
			pdfFloat(d.KcalOut, 0),
			pdfFloat(d.ProteinG, 1),
			csvInt(d.Steps),
			pdfFloat(d.Weight, 1),
			strconv.Itoa(len(d.Workouts)),
		}
		for i, c := range cells {
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(25, 6, c, "1", ln, "C", false, 0, "")
		}
	}
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(pdfFont, "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont(pdfFont, "", 10)
}

func line(pdf *gofpdf.Fpdf, text string) {
	pdf.Cell(0, 6, text)
	pdf.Ln(5)
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', csvFloatDigit, 64)
}

func csvInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func pdfFloat(v *float64, digits int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', digits, 64)
}
