package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-ledger/internal/errors"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves spending aggregations
type ReportHandler struct {
	reportService services.ReportServiceInterface
	logger        *logrus.Entry
}

func NewReportHandler(reportService services.ReportServiceInterface, logger logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logging.WithComponent(logger, "report_handler"),
	}
}

// CategorySpendingRanking ranks the caller's categories by total amount.
// type defaults to withdrawal.
//
// GET /api/v1/categories/spending-ranking?startDate=&endDate=&type=
//
//	200: dto.SpendingRankingResponse
//	400: VALIDATION_006, VALIDATION_007, VALIDATION_008
//	500: CATEGORY_006
func (h *ReportHandler) CategorySpendingRanking(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	query := models.RankingQuery{
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		Type:      c.QueryParam("type"),
	}

	ranking, err := h.reportService.CategorySpendingRanking(c.Request().Context(), userID, query)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrInvalidTransactionType):
			return SendError(c, errors.ValidationInvalidType)
		case stderrors.Is(err, services.ErrInvalidDate):
			return SendError(c, errors.ValidationInvalidDate)
		case stderrors.Is(err, services.ErrInvalidDateRange):
			return SendError(c, errors.ValidationInvalidRange)
		}
		return SendSystemError(c, h.logger, err, errors.CategoryRankingFailed)
	}

	return c.JSON(http.StatusOK, ranking)
}
