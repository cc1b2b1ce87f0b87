package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы запроса на вывод средств. Переход возможен только из pending.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// WithdrawalRequest представляет запрос на вывод средств из группы,
// ожидающий решения администратора.
type WithdrawalRequest struct {
	gorm.Model
	Amount      float64    `json:"amount" gorm:"type:numeric(12,2);not null"`
	Reason      string     `json:"reason" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:20;not null;default:pending"`
	UserID      uint       `json:"user_id" gorm:"not null"`
	GroupID     uint       `json:"group_id" gorm:"not null"`
	ProcessedAt *time.Time `json:"processed_at"`
	ProcessedBy *uint      `json:"processed_by"`

	User      User         `json:"-" gorm:"foreignKey:UserID"`
	Group     SavingsGroup `json:"-" gorm:"foreignKey:GroupID"`
	Processor *User        `json:"-" gorm:"foreignKey:ProcessedBy"`
}
