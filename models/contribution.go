package models

import "gorm.io/gorm"

// Contribution представляет один взнос в группу. Запись неизменяема после
// создания; баланс группы увеличивается в той же транзакции.
type Contribution struct {
	gorm.Model
	Amount  float64 `json:"amount" gorm:"type:numeric(12,2);not null"`
	UserID  uint    `json:"user_id" gorm:"not null"`
	GroupID uint    `json:"group_id" gorm:"not null"`

	User  User         `json:"-" gorm:"foreignKey:UserID"`
	Group SavingsGroup `json:"-" gorm:"foreignKey:GroupID"`
}
