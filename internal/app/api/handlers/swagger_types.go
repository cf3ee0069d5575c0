package handlers

import (
	"github.com/fatflowers/subsync/internal/app/service/statistics"
	subsvc "github.com/fatflowers/subsync/internal/app/service/subscription"
	"github.com/fatflowers/subsync/internal/app/service/transaction"
	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/response"
)

// Envelope types referenced from the swagger annotations.

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespSubscriptionStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    subsvc.StatusView        `json:"data"`
}

type RespUserTransactions struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    []*models.PaymentTransaction `json:"data"`
}

type RespListPaymentTransactions struct {
	Code    response.APIResponseCode             `json:"code"`
	Message string                               `json:"message"`
	Data    transaction.ScanTransactionsResponse `json:"data"`
}

type RespSubscriptionStatistic struct {
	Code    response.APIResponseCode                 `json:"code"`
	Message string                                   `json:"message"`
	Data    statistics.SubscriptionStatisticResponse `json:"data"`
}

type RespPoll struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    PollResponse             `json:"data"`
}
