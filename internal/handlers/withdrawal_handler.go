package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SageBrian/group-savings-app/internal/ledger"
)

// WithdrawalHandler обслуживает решение администратора по запросу на вывод.
type WithdrawalHandler struct {
	ledger *ledger.Ledger
}

func NewWithdrawalHandler(l *ledger.Ledger) *WithdrawalHandler {
	return &WithdrawalHandler{ledger: l}
}

type processRequest struct {
	Status string `json:"status"`
}

// Process переводит запрос в approved или rejected. Только для
// администраторов группы; повторная обработка отклоняется.
func (h *WithdrawalHandler) Process(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	withdrawalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	withdrawal, err := h.ledger.ProcessWithdrawal(c.Request.Context(), adminID, withdrawalID, req.Status)
	if err != nil {
		var verr *ledger.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal request not found"})
		case errors.Is(err, ledger.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to process withdrawals"})
		case errors.Is(err, ledger.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Withdrawal request already processed"})
		default:
			slog.Error("Не удалось обработать запрос на вывод", "withdrawal_id", withdrawalID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process withdrawal"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Withdrawal request " + withdrawal.Status,
		"withdrawal": gin.H{
			"id":           withdrawal.ID,
			"status":       withdrawal.Status,
			"processed_at": withdrawal.ProcessedAt,
		},
	})
}
