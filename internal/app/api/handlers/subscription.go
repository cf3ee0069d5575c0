package handlers

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/subsync/internal/app/api/middleware"
	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	subsvc "github.com/fatflowers/subsync/internal/app/service/subscription"
	"github.com/fatflowers/subsync/internal/app/service/transaction"
	"github.com/fatflowers/subsync/pkg/response"
	"github.com/fatflowers/subsync/pkg/types"
)

type Syncer interface {
	Sync(ctx context.Context, req reconcile.SyncRequest) (*reconcile.SyncResult, error)
}

type StatusReader interface {
	GetStatus(ctx context.Context, userID string) (*subsvc.StatusView, error)
}

type PollController interface {
	Start(userID, subscriptionID string) *reconcile.PollHandle
	Stop(userID string) bool
}

type SyncSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`
}

// SyncErrorResponse is the body of every non-2xx sync response.
type SyncErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Hint    string `json:"hint,omitempty"`
}

// SyncStatusCode maps the sync error taxonomy onto HTTP status codes.
func SyncStatusCode(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, reconcile.ErrProviderAuth), errors.Is(err, reconcile.ErrProviderResource):
		return http.StatusBadGateway
	case errors.Is(err, reconcile.ErrStaleSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// @Summary      Sync Subscription
// @Description  Pulls the subscription from the billing provider and overwrites the local record and user settings.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body SyncSubscriptionRequest true "Subscription to sync"
// @Success      200  {object}  reconcile.SyncResult
// @Failure      400  {object}  SyncErrorResponse
// @Failure      502  {object}  SyncErrorResponse
// @Router       /api/v1/subscription/sync [post]
func ApiSyncSubscription(s Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Header("Allow", "POST, OPTIONS")
			c.JSON(http.StatusMethodNotAllowed, SyncErrorResponse{Error: "Method not allowed"})
			return
		}
		var req SyncSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, SyncErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		res, err := s.Sync(c.Request.Context(), reconcile.SyncRequest{
			SubscriptionID: req.SubscriptionID,
			UserID:         req.UserID,
			Operation:      types.SyncOperationManual,
		})
		if err != nil {
			c.JSON(SyncStatusCode(err), SyncErrorResponse{Error: err.Error(), Hint: reconcile.Hint(err)})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Subscription Status
// @Description  Returns the user's current subscription with derived status and payment-risk banner.
// @Tags         Subscription
// @Produce      json
// @Param        user_id query string true "User ID"
// @Success      200  {object}  handlers.RespSubscriptionStatus
// @Router       /api/v1/subscription/status [get]
func ApiSubscriptionStatus(s StatusReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		view, err := s.GetStatus(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(view))
	}
}

// @Summary      User Payment Transactions
// @Description  Lists a user's payment transactions, newest first.
// @Tags         Subscription
// @Produce      json
// @Param        user_id query string true "User ID"
// @Param        size query int false "Max items (default 10, max 200)"
// @Success      200  {object}  handlers.RespUserTransactions
// @Router       /api/v1/subscription/transactions [get]
func ApiUserTransactions(mgr transaction.TransactionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			UserID string `form:"user_id" binding:"required"`
			Size   int    `form:"size" binding:"omitempty,min=1"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		items, err := mgr.ListUserTransactions(c.Request.Context(), q.UserID, q.Size)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

type PollRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	SubscriptionID string `json:"subscription_id"`
}

type PollResponse struct {
	UserID         string `json:"user_id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Polling        bool   `json:"polling"`
	// Stopped is set by the stop endpoint when a poll was running.
	Stopped bool `json:"stopped,omitempty"`
}

// @Summary      Start Periodic Sync
// @Description  Starts polling the provider for the user's subscription. Replaces any poll already running for the user.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body PollRequest true "Poll target"
// @Success      200  {object}  handlers.RespPoll
// @Router       /api/v1/subscription/poll/start [post]
func ApiStartPoll(p PollController) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.SubscriptionID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing subscription_id"))
			return
		}
		h := p.Start(req.UserID, req.SubscriptionID)
		c.JSON(http.StatusOK, response.OKT(PollResponse{UserID: h.UserID, SubscriptionID: h.SubscriptionID, Polling: true}))
	}
}

// @Summary      Stop Periodic Sync
// @Description  Stops the user's poll. Results of a sync still in flight are discarded.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body PollRequest true "Poll owner"
// @Success      200  {object}  handlers.RespPoll
// @Router       /api/v1/subscription/poll/stop [post]
func ApiStopPoll(p PollController) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		stopped := p.Stop(req.UserID)
		c.JSON(http.StatusOK, response.OKT(PollResponse{UserID: req.UserID, Stopped: stopped}))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, syncer Syncer, status StatusReader, mgr transaction.TransactionManager, poller PollController) {
	r.Any("/sync", mw.CORSMiddleware(http.MethodPost), ApiSyncSubscription(syncer))
	r.GET("/status", ApiSubscriptionStatus(status))
	r.GET("/transactions", ApiUserTransactions(mgr))
	r.POST("/poll/start", ApiStartPoll(poller))
	r.POST("/poll/stop", ApiStopPoll(poller))
}
