package models

import "gorm.io/gorm"

// User представляет зарегистрированного пользователя.
type User struct {
	gorm.Model
	Name     string `json:"name" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"size:100;uniqueIndex;not null"`
	Password string `json:"-" gorm:"size:200;not null"`
	Avatar   string `json:"avatar" gorm:"size:255"`

	Memberships   []GroupMember       `json:"-" gorm:"foreignKey:UserID"`
	Contributions []Contribution      `json:"-" gorm:"foreignKey:UserID"`
	Withdrawals   []WithdrawalRequest `json:"-" gorm:"foreignKey:UserID"`
}
