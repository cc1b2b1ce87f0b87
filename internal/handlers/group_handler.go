package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SageBrian/group-savings-app/internal/ledger"
	"github.com/SageBrian/group-savings-app/models"
)

// GroupHandler переводит HTTP-запросы в вызовы Ledger.
type GroupHandler struct {
	ledger *ledger.Ledger
}

func NewGroupHandler(l *ledger.Ledger) *GroupHandler {
	return &GroupHandler{ledger: l}
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Фронтенд исторически шлёт и snake_case, и camelCase.
	TargetAmount    *float64 `json:"target_amount"`
	TargetAmountAlt *float64 `json:"targetAmount"`
}

type contributeRequest struct {
	Amount float64 `json:"amount"`
}

type withdrawRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

func groupJSON(g *models.SavingsGroup) gin.H {
	return gin.H{
		"id":             g.ID,
		"name":           g.Name,
		"description":    g.Description,
		"target_amount":  g.TargetAmount,
		"current_amount": g.CurrentAmount,
		"created_at":     g.CreatedAt,
	}
}

// ListGroups возвращает группы, в которых состоит пользователь.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.ledger.ListGroups(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Не удалось получить список групп", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// CreateGroup создаёт группу; создатель сразу становится администратором.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Target amount must be a number"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Group name is required"})
		return
	}
	target := req.TargetAmount
	if target == nil {
		target = req.TargetAmountAlt
	}
	if target == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Target amount is required"})
		return
	}

	group, err := h.ledger.CreateGroup(c.Request.Context(), userID, req.Name, req.Description, *target)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Group created successfully",
		"group":   groupJSON(group),
	})
}

// GetGroup возвращает детальную карточку группы. Только для участников.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.ledger.GroupDetail(c.Request.Context(), userID, groupID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this group"})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		default:
			slog.Error("Не удалось получить карточку группы", "group_id", groupID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load group"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": detail})
}

// JoinGroup добавляет пользователя в группу обычным участником.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	group, err := h.ledger.JoinGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Already a member of this group"})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		default:
			slog.Error("Не удалось вступить в группу", "group_id", groupID, "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join group"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully joined the group",
		"group": gin.H{
			"id":   group.ID,
			"name": group.Name,
		},
	})
}

// Contribute записывает взнос и возвращает новый баланс группы.
func (h *GroupHandler) Contribute(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req contributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	contribution, newBalance, err := h.ledger.Contribute(c.Request.Context(), userID, groupID, req.Amount)
	if err != nil {
		var verr *ledger.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
		case errors.Is(err, ledger.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		default:
			slog.Error("Не удалось записать взнос", "group_id", groupID, "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record contribution"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Contribution successful",
		"contribution": gin.H{
			"id":         contribution.ID,
			"amount":     contribution.Amount,
			"created_at": contribution.CreatedAt,
		},
		"group": gin.H{
			"id":             groupID,
			"current_amount": newBalance,
		},
	})
}

// RequestWithdrawal создаёт запрос на вывод средств в статусе pending.
func (h *GroupHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	withdrawal, err := h.ledger.RequestWithdrawal(c.Request.Context(), userID, groupID, req.Amount, req.Reason)
	if err != nil {
		var verr *ledger.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
		case errors.Is(err, ledger.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		default:
			slog.Error("Не удалось создать запрос на вывод", "group_id", groupID, "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit withdrawal request"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Withdrawal request submitted",
		"withdrawal": gin.H{
			"id":         withdrawal.ID,
			"amount":     withdrawal.Amount,
			"reason":     withdrawal.Reason,
			"status":     withdrawal.Status,
			"created_at": withdrawal.CreatedAt,
		},
	})
}

// Discover возвращает группы, в которых пользователь ещё не состоит.
func (h *GroupHandler) Discover(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.ledger.DiscoverGroups(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Не удалось получить ленту групп", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// ExportHistory отдаёт полную историю операций группы CSV-файлом.
func (h *GroupHandler) ExportHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.ledger.GroupHistory(c.Request.Context(), userID, groupID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		default:
			slog.Error("Не удалось выгрузить историю группы", "group_id", groupID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export history"})
		}
		return
	}

	fileName := fmt.Sprintf("group_%d_history.csv", groupID)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Type", "Amount", "User", "Status", "Reason", "Date"})
	for _, entry := range history.Contributions {
		writer.Write([]string{
			"contribution",
			strconv.FormatFloat(entry.Amount, 'f', 2, 64),
			entry.User.Name,
			"",
			"",
			entry.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, entry := range history.Withdrawals {
		writer.Write([]string{
			"withdrawal",
			strconv.FormatFloat(entry.Amount, 'f', 2, 64),
			entry.User.Name,
			entry.Status,
			entry.Reason,
			entry.CreatedAt.Format(time.RFC3339),
		})
	}
}
