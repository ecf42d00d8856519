package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hifz-progress-api/internal/models"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
	"github.com/noah-isme/hifz-progress-api/pkg/export"
)

// ReportFormat is the rendering format of a progress report.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type progressReader interface {
	Snapshot(ctx context.Context, studentID string) (*models.ProgressSnapshot, error)
	Recompute(ctx context.Context, studentID string) (*models.ProgressSnapshot, error)
	ChapterBreakdown(ctx context.Context, studentID string) ([]models.ChapterProgress, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered report ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

var reportHeaders = []string{"Chapter", "Name", "Section", "Verses", "Covered", "Completion %", "Completed", "Last Touched"}

// ExportService renders per-student progress reports.
type ExportService struct {
	progress progressReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(progress progressReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = &export.PDFExporter{Widths: []float64{1, 3, 1, 1, 1, 1.4, 1.3, 1.8}}
	}
	return &ExportService{progress: progress, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ParseReportFormat validates a user supplied format, defaulting to CSV.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", raw))
	}
}

// Render builds the student's report. A student without a persisted
// snapshot is recomputed first.
func (s *ExportService) Render(ctx context.Context, studentID string, format ReportFormat) (*ExportResult, error) {
	snapshot, err := s.progress.Snapshot(ctx, studentID)
	if err != nil {
		if !errors.Is(err, appErrors.ErrSnapshotMissing) {
			return nil, err
		}
		snapshot, err = s.progress.Recompute(ctx, studentID)
		if err != nil {
			return nil, err
		}
	}

	chapters, err := s.progress.ChapterBreakdown(ctx, studentID)
	if err != nil {
		return nil, err
	}
	dataset := buildReportDataset(snapshot, chapters)

	stamp := s.now().UTC().Format("20060102")
	var body []byte
	result := &ExportResult{}
	switch format {
	case ReportFormatPDF:
		body, err = s.pdf.Render(dataset)
		result.ContentType = "application/pdf"
	case ReportFormatCSV:
		body, err = s.csv.Render(dataset)
		result.ContentType = "text/csv"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
	if err != nil {
		s.logger.Error("render progress report failed", zap.String("student_id", studentID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	result.Body = body
	result.Filename = fmt.Sprintf("progress-%s-%s.%s", studentID, stamp, format)
	return result, nil
}

func buildReportDataset(snapshot *models.ProgressSnapshot, chapters []models.ChapterProgress) export.Dataset {
	rows := make([]map[string]string, 0, len(chapters))
	for _, ch := range chapters {
		touched := ""
		if ch.LastTouchedAt != nil {
			touched = ch.LastTouchedAt.Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Chapter":      strconv.Itoa(ch.ChapterIndex),
			"Name":         ch.ChapterName,
			"Section":      strconv.Itoa(ch.Section),
			"Verses":       strconv.Itoa(ch.VerseCount),
			"Covered":      strconv.Itoa(ch.CoveredCount),
			"Completion %": formatPct(ch.CompletionPct),
			"Completed":    strconv.FormatBool(ch.Completed),
			"Last Touched": touched,
		})
	}

	return export.Dataset{
		Title: fmt.Sprintf("Memorization progress: %s", snapshot.StudentID),
		Summary: []export.SummaryLine{
			{Label: "Level", Value: string(snapshot.Level)},
			{Label: "Chapters completed", Value: strconv.Itoa(snapshot.ChaptersCompleted)},
			{Label: "Verses memorized", Value: strconv.Itoa(snapshot.VersesMemorized)},
			{Label: "Overall completion", Value: formatPct(snapshot.OverallCompletionPct) + "%"},
			{Label: "Section 30 completion", Value: formatPct(snapshot.Section30CompletionPct) + "%"},
			{Label: "Average quality", Value: strconv.FormatFloat(snapshot.AverageQualityScore, 'f', 2, 64)},
			{Label: "Streak (current / longest)", Value: fmt.Sprintf("%d / %d days", snapshot.CurrentStreakDays, snapshot.LongestStreakDays)},
			{Label: "Computed at", Value: snapshot.LastComputedAt.UTC().Format(time.RFC3339)},
		},
		Headers: reportHeaders,
		Rows:    rows,
	}
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
