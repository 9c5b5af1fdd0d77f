package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/macro-coach/internal/blob"
	"github.com/fdg312/macro-coach/internal/metrics"
	"github.com/fdg312/macro-coach/internal/progress"
	"github.com/fdg312/macro-coach/internal/storage"
)

var (
	ErrInvalidUserID    = errors.New("user_id is required")
	ErrInvalidFormat    = errors.New("format must be 'pdf' or 'csv'")
	ErrInvalidDate      = errors.New("dates must be in YYYY-MM-DD format")
	ErrInvalidDateRange = errors.New("from must be before or equal to to")
	ErrRangeTooLarge    = errors.New("date range is too large")
	ErrReportNotFound   = errors.New("report not found")
)

const (
	dateLayout          = "2006-01-02"
	defaultMaxRangeDays = 90
	defaultPresignTTL   = 15 * time.Minute
	defaultListLimit    = 50
	maxListLimit        = 200
)

type Logger interface {
	Printf(format string, v ...any)
}

type Service struct {
	storage      storage.Storage
	metrics      *metrics.Service
	blobStore    blob.Store // nil в local режиме
	maxRangeDays int
	presignTTL   time.Duration
	logger       Logger
	now          func() time.Time
}

func NewService(st storage.Storage, metricsService *metrics.Service, blobStore blob.Store, maxRangeDays int, presignTTL time.Duration, logger Logger) *Service {
	if maxRangeDays <= 0 {
		maxRangeDays = defaultMaxRangeDays
	}
	if presignTTL <= 0 {
		presignTTL = defaultPresignTTL
	}
	return &Service{
		storage:      st,
		metrics:      metricsService,
		blobStore:    blobStore,
		maxRangeDays: maxRangeDays,
		presignTTL:   presignTTL,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create строит отчёт за [from, to] и сохраняет его: байты в хранилище (local) или в S3.
func (s *Service) Create(ctx context.Context, userID string, req CreateReportRequest) (*storage.ReportMeta, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > s.maxRangeDays {
		return nil, fmt.Errorf("%w: %d days, max %d", ErrRangeTooLarge, days, s.maxRangeDays)
	}

	data, err := s.collect(ctx, userID, req.From, req.To, days)
	if err != nil {
		return nil, err
	}

	content, err := Render(format, *data)
	if err != nil {
		return nil, err
	}

	meta := &storage.ReportMeta{
		ID:        uuid.New(),
		UserID:    userID,
		Format:    format,
		FromDate:  req.From,
		ToDate:    req.To,
		SizeBytes: int64(len(content)),
		Status:    StatusReady,
	}

	if s.blobStore == nil {
		meta.Data = content
	} else {
		key := blob.ReportKey(userID, req.From, req.To, meta.ID.String(), format)
		if _, err := s.blobStore.PutObject(ctx, key, content, contentType(format)); err != nil {
			return nil, fmt.Errorf("upload report: %w", err)
		}
		meta.ObjectKey = &key
	}

	if err := s.storage.CreateReport(ctx, meta); err != nil {
		if meta.ObjectKey != nil {
			if delErr := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); delErr != nil {
				s.logf("WARN reports: orphan object %s: %v", *meta.ObjectKey, delErr)
			}
		}
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.logf("INFO reports: created id=%s user=%s format=%s range=%s..%s size=%d",
		meta.ID, userID, format, req.From, req.To, meta.SizeBytes)
	return meta, nil
}

// collect собирает метрики периода и раскладывает их по дням в DAY_TIMEZONE.
func (s *Service) collect(ctx context.Context, userID, fromDate, toDate string, days int) (*ReportData, error) {
	loc := s.metrics.Location()

	start, _, err := metrics.DayWindow(fromDate, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	_, end, err := metrics.DayWindow(toDate, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	rows, err := s.storage.ListMetrics(ctx, storage.MetricQuery{UserID: userID, Start: &start, End: &end})
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	// rows уже отсортированы новыми первыми, порядок внутри дня сохраняется
	byDate := make(map[string][]storage.HealthMetric)
	for _, m := range rows {
		date := m.Timestamp.In(loc).Format(dateLayout)
		byDate[date] = append(byDate[date], m)
	}

	data := &ReportData{
		UserID:      userID,
		From:        fromDate,
		To:          toDate,
		GeneratedAt: s.now(),
		Days:        make([]metrics.DailySummary, 0, days),
		Progress:    progress.Analyze(rows, days, loc),
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		data.Days = append(data.Days, metrics.Summarize(date, byDate[date]))
	}

	profile, err := s.storage.GetProfile(ctx, userID)
	switch {
	case err == nil:
		data.Profile = profile
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("get profile: %w", err)
	}

	plans, err := s.storage.ListPlans(ctx, userID, 1)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	if len(plans) > 0 {
		data.LatestPlan = &plans[0]
	}

	return data, nil
}

// Get возвращает отчёт владельца. Чужой отчёт неотличим от отсутствующего.
func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.storage.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if ownerID != "" && meta.UserID != ownerID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]storage.ReportMeta, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.storage.ListReports(ctx, userID, limit)
}

// DownloadURL: в local режиме ссылка на наш download endpoint, в S3: presigned URL.
func (s *Service) DownloadURL(ctx context.Context, meta *storage.ReportMeta, baseURL string) (string, error) {
	if meta.ObjectKey == nil || s.blobStore == nil {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimRight(baseURL, "/"), meta.ID), nil
	}
	return s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
}

// Content возвращает байты отчёта из хранилища или из S3.
func (s *Service) Content(ctx context.Context, meta *storage.ReportMeta) ([]byte, error) {
	if meta.ObjectKey == nil {
		return meta.Data, nil
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("report %s stored in s3, but blob store is not configured", meta.ID)
	}
	return s.blobStore.GetObject(ctx, *meta.ObjectKey)
}

func (s *Service) ToDTO(ctx context.Context, meta *storage.ReportMeta, baseURL string) ReportDTO {
	url, err := s.DownloadURL(ctx, meta, baseURL)
	if err != nil {
		s.logf("WARN reports: download url id=%s: %v", meta.ID, err)
	}
	return ReportDTO{
		ID:          meta.ID,
		UserID:      meta.UserID,
		Format:      meta.Format,
		From:        meta.FromDate,
		To:          meta.ToDate,
		DownloadURL: url,
		SizeBytes:   meta.SizeBytes,
		Status:      meta.Status,
		CreatedAt:   meta.CreatedAt,
	}
}

func (s *Service) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}
