package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SageBrian/group-savings-app/models"
)

// Ledger отвечает за все изменения баланса группы и проверку прав доступа.
// Не зависит от HTTP-фреймворка: хранилище передаётся при создании.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// IsMember проверяет, состоит ли пользователь в группе.
func (l *Ledger) IsMember(ctx context.Context, userID, groupID uint) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	return count > 0, err
}

// IsAdmin проверяет, является ли пользователь администратором группы.
func (l *Ledger) IsAdmin(ctx context.Context, userID, groupID uint) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ? AND group_id = ? AND is_admin = ?", userID, groupID, true).
		Count(&count).Error
	return count > 0, err
}

// CreateGroup создаёт группу и членство создателя-администратора в одной
// транзакции: либо появляются обе записи, либо ни одной.
func (l *Ledger) CreateGroup(ctx context.Context, userID uint, name, description string, targetAmount float64) (*models.SavingsGroup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Reason: "Group name is required"}
	}
	if !isFinite(targetAmount) || targetAmount <= 0 {
		return nil, &ValidationError{Reason: "Target amount must be greater than zero"}
	}

	group := &models.SavingsGroup{
		Name:         name,
		Description:  description,
		TargetAmount: targetAmount,
		CreatedBy:    userID,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := models.GroupMember{
			UserID:  userID,
			GroupID: group.ID,
			IsAdmin: true,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		slog.Error("Не удалось создать группу", "user_id", userID, "error", err)
		return nil, err
	}

	return group, nil
}

// JoinGroup добавляет пользователя в группу как обычного участника.
func (l *Ledger) JoinGroup(ctx context.Context, userID, groupID uint) (*models.SavingsGroup, error) {
	var group models.SavingsGroup
	if err := l.db.WithContext(ctx).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	member, err := l.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrConflict
	}

	membership := models.GroupMember{
		UserID:  userID,
		GroupID: groupID,
		IsAdmin: false,
	}
	if err := l.db.WithContext(ctx).Create(&membership).Error; err != nil {
		return nil, err
	}

	return &group, nil
}

// Contribute записывает взнос и увеличивает баланс группы в одной транзакции.
// Баланс меняется арифметикой на стороне БД, поэтому параллельные взносы
// сериализуются на записи строки. Возвращает взнос и новый баланс.
func (l *Ledger) Contribute(ctx context.Context, userID, groupID uint, amount float64) (*models.Contribution, float64, error) {
	member, err := l.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, 0, err
	}
	if !member {
		return nil, 0, ErrUnauthorized
	}

	if !isFinite(amount) || amount <= 0 {
		return nil, 0, &ValidationError{Reason: "Contribution amount must be greater than zero"}
	}

	contribution := &models.Contribution{
		Amount:  amount,
		UserID:  userID,
		GroupID: groupID,
	}

	var newBalance float64
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contribution).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SavingsGroup{}).Where("id = ?", groupID).
			UpdateColumn("current_amount", gorm.Expr("current_amount + ?", amount)).Error; err != nil {
			return err
		}
		var group models.SavingsGroup
		if err := tx.First(&group, groupID).Error; err != nil {
			return err
		}
		newBalance = group.CurrentAmount
		return nil
	})
	if err != nil {
		slog.Error("Не удалось записать взнос", "user_id", userID, "group_id", groupID, "error", err)
		return nil, 0, err
	}

	return contribution, newBalance, nil
}

// RequestWithdrawal создаёт запрос на вывод средств в статусе pending.
// Баланс группы на этом этапе не меняется и сумма не резервируется —
// списание происходит только при одобрении администратором.
func (l *Ledger) RequestWithdrawal(ctx context.Context, userID, groupID uint, amount float64, reason string) (*models.WithdrawalRequest, error) {
	member, err := l.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrUnauthorized
	}

	if !isFinite(amount) || amount <= 0 {
		return nil, &ValidationError{Reason: "Withdrawal amount must be greater than zero"}
	}

	withdrawal := &models.WithdrawalRequest{
		Amount:  amount,
		Reason:  reason,
		Status:  models.WithdrawalPending,
		UserID:  userID,
		GroupID: groupID,
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.SavingsGroup
		if err := tx.First(&group, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if amount > group.CurrentAmount {
			return &ValidationError{Reason: "Withdrawal amount exceeds group's current amount"}
		}
		return tx.Create(withdrawal).Error
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

// ProcessWithdrawal переводит запрос из pending в approved или rejected.
// Переход выполняется условным UPDATE по статусу pending: повторная
// обработка не затрагивает ни одной строки и возвращает ErrConflict,
// поэтому двойное списание невозможно. При одобрении баланс группы
// уменьшается в той же транзакции; соответствие суммы текущему балансу
// на этом этапе не перепроверяется.
func (l *Ledger) ProcessWithdrawal(ctx context.Context, adminID, withdrawalID uint, status string) (*models.WithdrawalRequest, error) {
	if status != models.WithdrawalApproved && status != models.WithdrawalRejected {
		return nil, &ValidationError{Reason: "Invalid status value"}
	}

	var withdrawal models.WithdrawalRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&withdrawal, withdrawalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var admins int64
		if err := tx.Model(&models.GroupMember{}).
			Where("user_id = ? AND group_id = ? AND is_admin = ?", adminID, withdrawal.GroupID, true).
			Count(&admins).Error; err != nil {
			return err
		}
		if admins == 0 {
			return ErrUnauthorized
		}

		now := time.Now().UTC()
		res := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", withdrawal.ID, models.WithdrawalPending).
			Updates(map[string]interface{}{
				"status":       status,
				"processed_at": now,
				"processed_by": adminID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if status == models.WithdrawalApproved {
			if err := tx.Model(&models.SavingsGroup{}).Where("id = ?", withdrawal.GroupID).
				UpdateColumn("current_amount", gorm.Expr("current_amount - ?", withdrawal.Amount)).Error; err != nil {
				return err
			}
		}

		withdrawal.Status = status
		withdrawal.ProcessedAt = &now
		withdrawal.ProcessedBy = &adminID
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Запрос на вывод обработан", "withdrawal_id", withdrawal.ID, "status", status, "processed_by", adminID)
	return &withdrawal, nil
}

func isFinite(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
