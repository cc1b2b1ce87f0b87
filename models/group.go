package models

import "gorm.io/gorm"

// SavingsGroup представляет общую копилку с целевой суммой и текущим балансом.
// CurrentAmount меняется только через взнос или одобренный запрос на вывод.
type SavingsGroup struct {
	gorm.Model
	Name          string  `json:"name" gorm:"size:100;not null"`
	Description   string  `json:"description" gorm:"type:text"`
	TargetAmount  float64 `json:"target_amount" gorm:"type:numeric(12,2);not null"`
	CurrentAmount float64 `json:"current_amount" gorm:"type:numeric(12,2);not null;default:0"`
	CreatedBy     uint    `json:"created_by" gorm:"not null"`

	Members       []GroupMember       `json:"-" gorm:"foreignKey:GroupID"`
	Contributions []Contribution      `json:"-" gorm:"foreignKey:GroupID"`
	Withdrawals   []WithdrawalRequest `json:"-" gorm:"foreignKey:GroupID"`
}
