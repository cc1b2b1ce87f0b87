package models

import "time"

// GroupMember связывает пользователя с группой. Пара (user, group) уникальна;
// создатель группы автоматически становится её администратором.
type GroupMember struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_member_user_group"`
	GroupID  uint      `json:"group_id" gorm:"not null;uniqueIndex:idx_member_user_group"`
	IsAdmin  bool      `json:"is_admin" gorm:"not null;default:false"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`

	User  User         `json:"-" gorm:"foreignKey:UserID"`
	Group SavingsGroup `json:"-" gorm:"foreignKey:GroupID"`
}
