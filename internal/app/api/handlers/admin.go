package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/subsync/internal/app/service/statistics"
	"github.com/fatflowers/subsync/internal/app/service/transaction"
	models "github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/response"
	"github.com/fatflowers/subsync/pkg/types"
)

type SyncOperationLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.SyncOperation, error)
}

type ListTransactionRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      List Payment Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of all payment transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListTransactionRequest true "List transaction request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPaymentTransactions
// @Router       /api/v1/admin/list_payment_transactions [post]
func ApiListPaymentTransactions(mgr transaction.TransactionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &transaction.ScanTransactionsRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := mgr.ScanTransactions(c.Request.Context(), scanReq)
		if err != nil {
			code := response.APIResponseCodeError
			if errors.Is(err, transaction.ErrInvalidScanRequest) {
				code = response.APIResponseCodeBadRequest
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Subscription Statistics (Admin)
// @Description  Counts subscriptions by local state, risk level or plan, and syncs per day.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.SubscriptionStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespSubscriptionStatistic
// @Router       /api/v1/admin/subscription_statistic [post]
func ApiGetSubscriptionStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.SubscriptionStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetSubscriptionStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Sync Operations (Admin)
// @Description  Returns the user's most recent sync audit records with provider payloads.
// @Tags         Admin
// @Produce      json
// @Param        user_id query string true "User ID"
// @Param        size query int false "Max items"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/sync_operations [get]
func ApiListSyncOperations(svc SyncOperationLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			UserID string `form:"user_id" binding:"required"`
			Size   int    `form:"size"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		rows, err := svc.ListByUser(c.Request.Context(), q.UserID, q.Size)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

func RegisterAdminRoutes(r gin.IRouter, mgr transaction.TransactionManager, stats *statistics.Service, syncOps SyncOperationLister) {
	r.POST("/list_payment_transactions", ApiListPaymentTransactions(mgr))
	r.POST("/subscription_statistic", ApiGetSubscriptionStatistic(stats))
	r.GET("/sync_operations", ApiListSyncOperations(syncOps))
}
