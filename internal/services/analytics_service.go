package services

import (
	"context"
	"database/sql"

	"wastereport/internal/models"
	"wastereport/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// AnalyticsServiceInterface provides the dashboard aggregations
type AnalyticsServiceInterface interface {
	GetAnalytics(ctx context.Context) (*models.Analytics, error)
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
	TypeCounts(ctx context.Context) ([]models.TypeCount, error)
}

// AnalyticsService runs read-only grouped counts over complaints
type AnalyticsService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ AnalyticsServiceInterface = (*AnalyticsService)(nil)

const (
	statusCountsQuery = `SELECT status, COUNT(*) FROM complaints GROUP BY status ORDER BY status`
	typeCountsQuery   = `SELECT type, COUNT(*) FROM complaints GROUP BY type ORDER BY type`
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// NewAnalyticsService creates a new AnalyticsService instance
func NewAnalyticsService(db *sql.DB, logger *observability.Logger) *AnalyticsService {
	return &AnalyticsService{db: db, logger: logger}
}

// GetAnalytics returns status and type counts taken from the same snapshot
func (s *AnalyticsService) GetAnalytics(ctx context.Context) (result0 *models.Analytics, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "get_analytics")
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, txError(err, "failed to begin analytics transaction")
	}
	defer rollbackTx(ctx, s.logger, tx)

	stats, err := s.statusCounts(ctx, tx)
	if err != nil {
		return nil, err
	}
	typeStats, err := s.typeCounts(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, txError(err, "failed to finish analytics transaction")
	}

	analytics := &models.Analytics{Stats: stats, TypeStats: typeStats}
	span.SetAttributes(attribute.Int("complaints.total", analytics.Total()))
	return analytics, nil
}

// StatusCounts returns one bucket per status present
func (s *AnalyticsService) StatusCounts(ctx context.Context) (result0 []models.StatusCount, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "status_counts")
	defer observability.FinishSpan(span, &err)
	return s.statusCounts(ctx, s.db)
}

// TypeCounts returns one bucket per complaint type present
func (s *AnalyticsService) TypeCounts(ctx context.Context) (result0 []models.TypeCount, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "type_counts")
	defer observability.FinishSpan(span, &err)
	return s.typeCounts(ctx, s.db)
}

func (s *AnalyticsService) statusCounts(ctx context.Context, q queryer) ([]models.StatusCount, error) {
	rows, err := q.QueryContext(ctx, statusCountsQuery)
	if err != nil {
		return nil, queryError(err, "failed to count complaints by status")
	}
	defer func() { _ = rows.Close() }()

	counts := make([]models.StatusCount, 0, len(models.AllComplaintStatuses))
	for rows.Next() {
		var c models.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, queryError(err, "failed to scan status count")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "error iterating status counts")
	}
	return counts, nil
}

func (s *AnalyticsService) typeCounts(ctx context.Context, q queryer) ([]models.TypeCount, error) {
	rows, err := q.QueryContext(ctx, typeCountsQuery)
	if err != nil {
		return nil, queryError(err, "failed to count complaints by type")
	}
	defer func() { _ = rows.Close() }()

	counts := make([]models.TypeCount, 0)
	for rows.Next() {
		var c models.TypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, queryError(err, "failed to scan type count")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "error iterating type counts")
	}
	return counts, nil
}
