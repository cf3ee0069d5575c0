package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	nh "github.com/fatflowers/subsync/internal/app/service/notification_handler"
	"github.com/fatflowers/subsync/pkg/logctx"
	"github.com/fatflowers/subsync/pkg/response"
)

type WebhookProcessor interface {
	HandleNotification(ctx context.Context, body []byte) (*nh.HandleResult, error)
}

// ApiPayPalWebhook answers non-2xx on processing failures so the provider redelivers.
//
// @Summary      PayPal Webhook
// @Description  Receives PayPal webhook events. Subscription and sale events trigger a sync; sale, activation and failed-payment events are recorded as payment transactions.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body object true "PayPal webhook event"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/webhook/paypal [post]
func ApiPayPalWebhook(h WebhookProcessor, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logctx.FromGin(c, log)
		l.Infow("webhook_paypal_received")

		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := h.HandleNotification(c.Request.Context(), body)
		if err != nil {
			l.Errorw("webhook_paypal_handle_error", "error", err.Error())
			status := http.StatusInternalServerError
			code := response.APIResponseCodeError
			if errors.Is(err, nh.ErrInvalidNotification) {
				status, code = http.StatusBadRequest, response.APIResponseCodeBadRequest
			}
			c.JSON(status, response.ErrorT[any](code, err.Error()))
			return
		}
		l.Infow("webhook_paypal_handled", "event_id", res.EventID, "duplicate", res.Duplicate)
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, h WebhookProcessor, log *zap.SugaredLogger) {
	r.POST("/paypal", ApiPayPalWebhook(h, log))
}
