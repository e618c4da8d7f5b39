package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance-ledger/internal/cache"
	"finance-ledger/internal/dto"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"
	"finance-ledger/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidDate      = validation.ErrInvalidDate
	ErrInvalidDateRange = validation.ErrInvalidDateRange
)

const rankingCacheName = "ranking"

type reportService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	cache           cache.Cache
	rankingTTL      time.Duration
	auditLogger     AuditLoggerInterface
	metrics         MetricsRecorderInterface
	logger          *logrus.Entry
}

func NewReportService(
	transactionRepo repositories.TransactionRepositoryInterface,
	rankingCache cache.Cache,
	rankingTTL time.Duration,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger logrus.FieldLogger,
) ReportServiceInterface {
	return &reportService{
		transactionRepo: transactionRepo,
		cache:           rankingCache,
		rankingTTL:      rankingTTL,
		auditLogger:     auditLogger,
		metrics:         metrics,
		logger:          logging.WithComponent(logger, "reports"),
	}
}

// CategorySpendingRanking totals the user's transactions of one type per
// category. Type defaults to withdrawal. Results are cached under the user's
// ranking generation, which every ledger write of the user bumps.
func (s *reportService) CategorySpendingRanking(ctx context.Context, userID uuid.UUID, query models.RankingQuery) (*dto.SpendingRankingResponse, error) {
	start := time.Now()

	transactionType := strings.ToLower(strings.TrimSpace(query.Type))
	if transactionType == "" {
		transactionType = models.TransactionTypeWithdrawal
	}
	if !models.IsValidTransactionType(transactionType) {
		return nil, ErrInvalidTransactionType
	}

	startDate, endDate, err := validation.ParseDateRange(query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}

	genKey := cache.RankingGenerationKey(userID)
	gen, err := s.cache.Generation(ctx, genKey)
	cacheable := err == nil
	key := cache.RankingKey(userID, gen, query.StartDate, query.EndDate, transactionType)

	if !cacheable {
		s.recordCache("error")
		s.auditLogger.LogCacheFailure(ctx, "generation", genKey, err)
	} else {
		var cached dto.SpendingRankingResponse
		hit, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			s.recordCache("error")
			s.auditLogger.LogCacheFailure(ctx, "get", key, err)
		case hit:
			s.recordCache("hit")
			return &cached, nil
		default:
			s.recordCache("miss")
		}
	}

	rows, err := s.transactionRepo.SpendingByCategory(models.SpendingFilters{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
		Type:      transactionType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get category spending ranking: %w", err)
	}

	response := dto.NewSpendingRankingResponse(rows, dto.RankingFilters{
		Period: dto.RankingPeriod{
			StartDate: optionalString(query.StartDate),
			EndDate:   optionalString(query.EndDate),
		},
		Type: transactionType,
	})

	if cacheable {
		if err := s.cache.Set(ctx, key, response, s.rankingTTL); err != nil {
			s.auditLogger.LogCacheFailure(ctx, "set", key, err)
		}
	}
	s.metrics.RecordProcessingTime("report.ranking", time.Since(start))

	return response, nil
}

func (s *reportService) recordCache(result string) {
	s.metrics.IncrementCounter(MetricCacheRequest, map[string]string{
		"cache":  rankingCacheName,
		"result": result,
	})
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
