package reports

import (
	"time"

	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/progress"
	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady = "ready"
)

// CreateReportRequest: тело POST /v1/users/{user_id}/reports
type CreateReportRequest struct {
	From   string `json:"from"`   // YYYY-MM-DD
	To     string `json:"to"`     // YYYY-MM-DD
	Format string `json:"format"` // pdf | csv
}

type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Format      string    `json:"format"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReportData: всё, что попадает в отчёт за период.
type ReportData struct {
	UserID      string
	From        string
	To          string
	GeneratedAt time.Time
	Days        []metrics.DailySummary // каждый день периода, включая пустые
	Progress    progress.Report
	Profile     *storage.UserProfile
	LatestPlan  *storage.DailyPlan
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
