package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"enstore_storefront/internal/models"
	"enstore_storefront/internal/services"
	"enstore_storefront/web/templates/pages"
)

const opsPerPage = 25

// OpsHandler serves the operator view of transactions tracked by this storefront
type OpsHandler struct {
	watch WatchBrowser
}

// NewOpsHandler creates a new OpsHandler
func NewOpsHandler(watch WatchBrowser) *OpsHandler {
	return &OpsHandler{watch: watch}
}

var opsStatuses = []models.TransactionStatus{
	models.TransactionPending,
	models.TransactionProcessing,
	models.TransactionSuccess,
	models.TransactionFailed,
	models.TransactionExpired,
	models.TransactionRefunded,
}

// ListTransactions renders the watched transactions, newest first
func (h *OpsHandler) ListTransactions(c echo.Context) error {
	if h.watch == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Transaction tracking is not configured")
	}

	filter := services.WatchFilter{
		Status:  models.TransactionStatus(strings.TrimSpace(c.QueryParam("status"))),
		Search:  strings.TrimSpace(c.QueryParam("search")),
		Page:    parsePage(c.QueryParam("page")),
		PerPage: opsPerPage,
	}

	rows, total, err := h.watch.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transactions")
	}

	props := pages.OpsTransactionsProps{
		Layout:   layout(c, "Transactions", "ops", "Transactions", ""),
		Rows:     rows,
		Total:    total,
		Page:     filter.Page,
		HasMore:  int64(filter.Page*opsPerPage) < total,
		Status:   string(filter.Status),
		Search:   filter.Search,
		Statuses: opsStatuses,
	}
	return pages.OpsTransactions(props).Render(c.Request().Context(), c.Response())
}

// ShowTransaction renders one watched transaction with its status history
func (h *OpsHandler) ShowTransaction(c echo.Context) error {
	if h.watch == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Transaction tracking is not configured")
	}

	code := c.Param("code")
	row, err := h.watch.Get(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transaction")
	}

	props := pages.OpsTransactionDetailProps{
		Layout: layout(c, code, "ops", "Transactions", "/ops/transactions", code, ""),
		Row:    *row,
	}
	return pages.OpsTransactionDetail(props).Render(c.Request().Context(), c.Response())
}
