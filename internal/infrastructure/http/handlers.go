package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/expiration"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/lifecycle"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/validation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/infra/metrics"
)

type PaymentHandler struct {
	Confirmations *confirmation.Service
	Validator     *validation.Validator
	Queue         *worker.Queue
	Sweeper       *expiration.Sweeper
	Metrics       *metrics.Counters
}

type ConfirmRequest struct {
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
	Reason         string `json:"reason"`
}

func (r ConfirmRequest) toRequest() confirmation.Request {
	return confirmation.Request{
		Amount:         r.Amount,
		IdempotencyKey: r.IdempotencyKey,
		Reason:         r.Reason,
	}
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res := h.Confirmations.Confirm(c.Request.Context(), c.Param("id"), req.toRequest())
	writeConfirmation(c, res)
}

func (h *PaymentHandler) ConfirmByOrder(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res := h.Confirmations.ConfirmByOrderID(c.Request.Context(), c.Param("team_id"), c.Param("order_id"), req.toRequest())
	writeConfirmation(c, res)
}

func (h *PaymentHandler) ConfirmByExternalID(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res := h.Confirmations.ConfirmByPaymentID(c.Request.Context(), c.Param("payment_id"), req.toRequest())
	writeConfirmation(c, res)
}

func writeConfirmation(c *gin.Context, res confirmation.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (h *PaymentHandler) CanConfirm(c *gin.Context) {
	ok, reasons := h.Confirmations.CanConfirm(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"can_confirm": ok, "reasons": reasons})
}

func (h *PaymentHandler) ConfirmablePayments(c *gin.Context) {
	payments, err := h.Confirmations.ConfirmablePayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type ValidateRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

func (h *PaymentHandler) ValidateTransition(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res := h.Validator.ValidateTransition(c.Request.Context(), c.Param("id"),
		payment.Status(req.From), payment.Status(req.To))
	c.JSON(http.StatusOK, res)
}

type EnqueueRequest struct {
	PaymentID      string `json:"payment_id" binding:"required"`
	Operation      string `json:"operation" binding:"required"`
	Priority       int    `json:"priority"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
	Reason         string `json:"reason"`
}

func (h *PaymentHandler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	op := worker.Operation(req.Operation)
	item := worker.Item{
		PaymentID: req.PaymentID,
		Operation: op,
		Priority:  req.Priority,
	}

	switch op {
	case worker.OpConfirm:
		item.Payload = lifecycle.ConfirmPayload{
			Amount:         req.Amount,
			IdempotencyKey: req.IdempotencyKey,
			Reason:         req.Reason,
		}
	case worker.OpCancel:
		item.Payload = lifecycle.CancelPayload{Reason: req.Reason}
	case worker.OpInitialize, worker.OpAuthorize, worker.OpExpire:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown operation"})
		return
	}

	if err := h.Queue.Enqueue(c.Request.Context(), item); err != nil {
		if errors.Is(err, worker.ErrQueueClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue closed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *PaymentHandler) QueueStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"depth":     h.Queue.Depth(),
		"in_flight": h.Queue.InFlight(),
	})
}

func (h *PaymentHandler) Expiration(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	expired, err := h.Sweeper.IsExpired(ctx, id)
	if err != nil {
		writeLookupError(c, err)
		return
	}

	remaining, hasDeadline, err := h.Sweeper.TimeToExpiration(ctx, id)
	if err != nil {
		writeLookupError(c, err)
		return
	}

	resp := gin.H{"expired": expired}
	if hasDeadline {
		resp["time_to_expiration"] = remaining.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) ExpiringPayments(c *gin.Context) {
	window := expiration.DefaultWarningWindow
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window"})
			return
		}
		window = parsed
	}

	payments, err := h.Sweeper.ExpiringPayments(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *PaymentHandler) ExpiredPayments(c *gin.Context) {
	payments, err := h.Sweeper.ExpiredPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type ExpireRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *PaymentHandler) ExpirePayments(c *gin.Context) {
	var req ExpireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	expired := h.Sweeper.ExpirePayments(c.Request.Context(), req.IDs)
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

func (h *PaymentHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Metrics.Snapshot())
}

func writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, payment.ErrPaymentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
