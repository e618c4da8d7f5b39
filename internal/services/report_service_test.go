package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finance-ledger/internal/cache"
	"finance-ledger/internal/cache/cache_mocks"
	"finance-ledger/internal/database"
	"finance-ledger/internal/dto"
	"finance-ledger/internal/events"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"
	"finance-ledger/internal/repositories/repository_mocks"
	"finance-ledger/internal/services/service_mocks"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedReportService(t *testing.T) (ReportServiceInterface, *repository_mocks.MockTransactionRepositoryInterface, *cache_mocks.MockCache, *service_mocks.MockMetricsRecorderInterface) {
	ctrl := gomock.NewController(t)
	repo := repository_mocks.NewMockTransactionRepositoryInterface(ctrl)
	c := cache_mocks.NewMockCache(ctrl)
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)
	auditLogger := service_mocks.NewMockAuditLoggerInterface(ctrl)
	auditLogger.EXPECT().LogCacheFailure(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	svc := NewReportService(repo, c, time.Minute, auditLogger, metrics, logging.Discard())
	return svc, repo, c, metrics
}

func TestReportService_RejectsInvalidInput(t *testing.T) {
	svc, _, _, _ := newMockedReportService(t)
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name  string
		query models.RankingQuery
		want  error
	}{
		{"unknown type", models.RankingQuery{Type: "refund"}, ErrInvalidTransactionType},
		{"bad start date", models.RankingQuery{StartDate: "01/02/2024"}, ErrInvalidDate},
		{"bad end date", models.RankingQuery{EndDate: "2024-13-01"}, ErrInvalidDate},
		{"end before start", models.RankingQuery{StartDate: "2024-02-10", EndDate: "2024-02-01"}, ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CategorySpendingRanking(ctx, userID, tt.query)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReportService_CacheHit(t *testing.T) {
	svc, _, c, metrics := newMockedReportService(t)
	ctx := context.Background()
	userID := uuid.New()

	cached := dto.SpendingRankingResponse{TotalCategories: 1, Filters: dto.RankingFilters{Type: models.TransactionTypeWithdrawal}}
	c.EXPECT().Generation(ctx, cache.RankingGenerationKey(userID)).Return(int64(2), nil)
	c.EXPECT().Get(ctx, cache.RankingKey(userID, 2, "", "", models.TransactionTypeWithdrawal), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, dest any) (bool, error) {
			*dest.(*dto.SpendingRankingResponse) = cached
			return true, nil
		})
	metrics.EXPECT().IncrementCounter(MetricCacheRequest, map[string]string{"cache": rankingCacheName, "result": "hit"})

	got, err := svc.CategorySpendingRanking(ctx, userID, models.RankingQuery{})

	require.NoError(t, err)
	assert.Equal(t, &cached, got)
}

func TestReportService_MissQueriesAndStores(t *testing.T) {
	svc, repo, c, metrics := newMockedReportService(t)
	ctx := context.Background()
	userID := uuid.New()
	key := cache.RankingKey(userID, 0, "2024-01-01", "2024-01-31", models.TransactionTypeDeposit)

	c.EXPECT().Generation(ctx, cache.RankingGenerationKey(userID)).Return(int64(0), nil)
	c.EXPECT().Get(ctx, key, gomock.Any()).Return(false, nil)
	metrics.EXPECT().IncrementCounter(MetricCacheRequest, map[string]string{"cache": rankingCacheName, "result": "miss"})
	repo.EXPECT().SpendingByCategory(gomock.Any()).
		DoAndReturn(func(f models.SpendingFilters) ([]models.CategorySpending, error) {
			assert.Equal(t, userID, f.UserID)
			assert.Equal(t, models.TransactionTypeDeposit, f.Type)
			assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
			assert.Equal(t, 23, f.EndDate.Hour())
			return []models.CategorySpending{{CategoryID: uuid.New(), CategoryName: "Salary", TotalSpent: amount("3000"), TransactionCount: 1}}, nil
		})
	c.EXPECT().Set(ctx, key, gomock.Any(), time.Minute).Return(nil)
	metrics.EXPECT().RecordProcessingTime("report.ranking", gomock.Any())

	got, err := svc.CategorySpendingRanking(ctx, userID, models.RankingQuery{
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		Type:      "Deposit",
	})

	require.NoError(t, err)
	require.Len(t, got.Ranking, 1)
	assert.Equal(t, "3000.00", got.Ranking[0].TotalSpent)
	assert.Equal(t, "2024-01-01", *got.Filters.Period.StartDate)
	assert.Equal(t, models.TransactionTypeDeposit, got.Filters.Type)
}

func TestReportService_StoreFailure(t *testing.T) {
	svc, repo, c, metrics := newMockedReportService(t)
	ctx := context.Background()
	userID := uuid.New()

	c.EXPECT().Generation(ctx, gomock.Any()).Return(int64(0), nil)
	c.EXPECT().Get(ctx, gomock.Any(), gomock.Any()).Return(false, nil)
	metrics.EXPECT().IncrementCounter(MetricCacheRequest, gomock.Any())
	repo.EXPECT().SpendingByCategory(gomock.Any()).Return(nil, errors.New("query failed"))

	_, err := svc.CategorySpendingRanking(ctx, userID, models.RankingQuery{})

	assert.ErrorContains(t, err, "failed to get category spending ranking")
}

func TestReportService_GenerationErrorSkipsCache(t *testing.T) {
	svc, repo, c, metrics := newMockedReportService(t)
	ctx := context.Background()
	userID := uuid.New()

	c.EXPECT().Generation(ctx, cache.RankingGenerationKey(userID)).Return(int64(0), errors.New("redis down"))
	metrics.EXPECT().IncrementCounter(MetricCacheRequest, map[string]string{"cache": rankingCacheName, "result": "error"})
	repo.EXPECT().SpendingByCategory(gomock.Any()).Return(nil, nil)
	metrics.EXPECT().RecordProcessingTime("report.ranking", gomock.Any())

	got, err := svc.CategorySpendingRanking(ctx, userID, models.RankingQuery{})

	require.NoError(t, err)
	assert.Zero(t, got.TotalCategories)
}

func TestReportService_RankingAgainstSQLite(t *testing.T) {
	db := database.SetupTestDB(t)
	ctx := context.Background()

	user := database.CreateTestUser(t, db, gofakeit.Email())
	account := database.CreateTestAccount(t, db, user.ID, "1000")
	food := database.CreateTestCategory(t, db, "Food")
	rent := database.CreateTestCategory(t, db, "Rent")
	fun := database.CreateTestCategory(t, db, "Fun")

	transactions := NewTransactionService(
		repositories.NewTransactionRepository(db.DB),
		repositories.NewAccountRepository(db.DB),
		repositories.NewCategoryRepository(db.DB),
		cache.NewNoop(),
		events.NoopPublisher{},
		NewAuditLogger(logging.Discard()),
		NoopMetrics{},
		logging.Discard(),
	)
	reports := NewReportService(
		repositories.NewTransactionRepository(db.DB),
		cache.NewNoop(),
		time.Minute,
		NewAuditLogger(logging.Discard()),
		NoopMetrics{},
		logging.Discard(),
	)

	record := func(txType, value string, category *models.Category, day int) {
		date := time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC)
		_, err := transactions.CreateTransaction(ctx, user.ID, models.TransactionInput{
			Amount:     amount(value),
			Type:       txType,
			Date:       &date,
			AccountID:  account.ID,
			CategoryID: category.ID,
		})
		require.NoError(t, err)
	}

	record(models.TransactionTypeWithdrawal, "20.00", food, 1)
	record(models.TransactionTypeWithdrawal, "15.50", food, 5)
	record(models.TransactionTypeWithdrawal, "800.00", rent, 2)
	record(models.TransactionTypeWithdrawal, "5.00", fun, 20)
	record(models.TransactionTypeDeposit, "999.00", fun, 3)

	all, err := reports.CategorySpendingRanking(ctx, user.ID, models.RankingQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, all.TotalCategories)
	assert.Equal(t, "Rent", all.Ranking[0].CategoryName)
	assert.Equal(t, "Food", all.Ranking[1].CategoryName)
	assert.Equal(t, "35.50", all.Ranking[1].TotalSpent)
	assert.Equal(t, int64(2), all.Ranking[1].TransactionCount)
	assert.Equal(t, "5.00", all.Ranking[2].TotalSpent)
	assert.Nil(t, all.Filters.Period.StartDate)

	window, err := reports.CategorySpendingRanking(ctx, user.ID, models.RankingQuery{StartDate: "2024-03-01", EndDate: "2024-03-05"})
	require.NoError(t, err)
	require.Equal(t, 2, window.TotalCategories)
	assert.Equal(t, "35.50", window.Ranking[1].TotalSpent)

	deposits, err := reports.CategorySpendingRanking(ctx, user.ID, models.RankingQuery{Type: models.TransactionTypeDeposit})
	require.NoError(t, err)
	require.Equal(t, 1, deposits.TotalCategories)
	assert.Equal(t, "999.00", deposits.Ranking[0].TotalSpent)
}

// A ranking loaded before a concurrent write must not outlive that write.
func TestReportService_WriteDuringFillIsNotServedStale(t *testing.T) {
	db := database.SetupTestDB(t)
	ctx := context.Background()

	user := database.CreateTestUser(t, db, gofakeit.Email())
	account := database.CreateTestAccount(t, db, user.ID, "1000")
	food := database.CreateTestCategory(t, db, "Food")

	shared := newMemoryCache()
	transactions := NewTransactionService(
		repositories.NewTransactionRepository(db.DB),
		repositories.NewAccountRepository(db.DB),
		repositories.NewCategoryRepository(db.DB),
		shared,
		events.NoopPublisher{},
		NewAuditLogger(logging.Discard()),
		NoopMetrics{},
		logging.Discard(),
	)
	reports := NewReportService(
		repositories.NewTransactionRepository(db.DB),
		shared,
		time.Minute,
		NewAuditLogger(logging.Discard()),
		NoopMetrics{},
		logging.Discard(),
	)

	spend := func(value string) {
		_, err := transactions.CreateTransaction(ctx, user.ID, models.TransactionInput{
			Amount:     amount(value),
			Type:       models.TransactionTypeWithdrawal,
			AccountID:  account.ID,
			CategoryID: food.ID,
		})
		require.NoError(t, err)
	}

	spend("10.00")
	shared.onFirstSet(func() { spend("5.00") })

	first, err := reports.CategorySpendingRanking(ctx, user.ID, models.RankingQuery{})
	require.NoError(t, err)
	assert.Equal(t, "10.00", first.Ranking[0].TotalSpent)

	second, err := reports.CategorySpendingRanking(ctx, user.ID, models.RankingQuery{})
	require.NoError(t, err)
	assert.Equal(t, "15.00", second.Ranking[0].TotalSpent)
	assert.Equal(t, int64(2), second.Ranking[0].TransactionCount)

	third, err := reports.CategorySpendingRanking(ctx, user.ID, models.RankingQuery{})
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Equal(t, 1, shared.hits)
}
