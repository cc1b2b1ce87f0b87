package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SageBrian/group-savings-app/models"
)

// GroupSummary — краткая карточка группы для списков.
type GroupSummary struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	CreatedAt     time.Time `json:"created_at"`
	IsAdmin       bool      `json:"is_admin"`
	MembersCount  int       `json:"members_count"`
}

// ActivityUser — автор взноса или запроса в детальной карточке группы.
type ActivityUser struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type MemberDetail struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

type ContributionDetail struct {
	ID        uint         `json:"id"`
	Amount    float64      `json:"amount"`
	User      ActivityUser `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

type WithdrawalDetail struct {
	ID          uint         `json:"id"`
	Amount      float64      `json:"amount"`
	Reason      string       `json:"reason"`
	Status      string       `json:"status"`
	User        ActivityUser `json:"user"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at"`
}

// GroupDetail — полная карточка группы: участники и последняя активность.
type GroupDetail struct {
	ID            uint                 `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	TargetAmount  float64              `json:"target_amount"`
	CurrentAmount float64              `json:"current_amount"`
	CreatedAt     time.Time            `json:"created_at"`
	Members       []MemberDetail       `json:"members"`
	Contributions []ContributionDetail `json:"contributions"`
	Withdrawals   []WithdrawalDetail   `json:"withdrawals"`
	IsAdmin       bool                 `json:"is_admin"`
}

// GroupHistory — полная история операций группы (для выгрузки).
type GroupHistory struct {
	Group         models.SavingsGroup
	Contributions []models.Contribution
	Withdrawals   []models.WithdrawalRequest
}

// recentLimit — сколько последних взносов и запросов попадает в карточку группы.
const recentLimit = 5

// ListGroups возвращает группы, в которых состоит пользователь,
// с количеством участников и его собственным флагом администратора.
func (l *Ledger) ListGroups(ctx context.Context, userID uint) ([]GroupSummary, error) {
	var memberships []models.GroupMember
	if err := l.db.WithContext(ctx).Preload("Group").
		Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	groups := make([]GroupSummary, 0, len(memberships))
	for _, m := range memberships {
		count, err := l.memberCount(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, GroupSummary{
			ID:            m.Group.ID,
			Name:          m.Group.Name,
			Description:   m.Group.Description,
			TargetAmount:  m.Group.TargetAmount,
			CurrentAmount: m.Group.CurrentAmount,
			CreatedAt:     m.Group.CreatedAt,
			IsAdmin:       m.IsAdmin,
			MembersCount:  count,
		})
	}
	return groups, nil
}

// DiscoverGroups возвращает группы, в которых пользователь не состоит.
func (l *Ledger) DiscoverGroups(ctx context.Context, userID uint) ([]GroupSummary, error) {
	sub := l.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)

	var dbGroups []models.SavingsGroup
	if err := l.db.WithContext(ctx).Where("id NOT IN (?)", sub).Find(&dbGroups).Error; err != nil {
		return nil, err
	}

	groups := make([]GroupSummary, 0, len(dbGroups))
	for _, g := range dbGroups {
		count, err := l.memberCount(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, GroupSummary{
			ID:            g.ID,
			Name:          g.Name,
			Description:   g.Description,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			CreatedAt:     g.CreatedAt,
			MembersCount:  count,
		})
	}
	return groups, nil
}

// GroupDetail возвращает карточку группы. Доступ только участникам.
func (l *Ledger) GroupDetail(ctx context.Context, userID, groupID uint) (*GroupDetail, error) {
	var membership models.GroupMember
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	var group models.SavingsGroup
	if err := l.db.WithContext(ctx).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var members []models.GroupMember
	if err := l.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		return nil, err
	}

	var contributions []models.Contribution
	if err := l.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC").Limit(recentLimit).
		Find(&contributions).Error; err != nil {
		return nil, err
	}

	var withdrawals []models.WithdrawalRequest
	if err := l.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC").Limit(recentLimit).
		Find(&withdrawals).Error; err != nil {
		return nil, err
	}

	detail := &GroupDetail{
		ID:            group.ID,
		Name:          group.Name,
		Description:   group.Description,
		TargetAmount:  group.TargetAmount,
		CurrentAmount: group.CurrentAmount,
		CreatedAt:     group.CreatedAt,
		Members:       make([]MemberDetail, 0, len(members)),
		Contributions: make([]ContributionDetail, 0, len(contributions)),
		Withdrawals:   make([]WithdrawalDetail, 0, len(withdrawals)),
		IsAdmin:       membership.IsAdmin,
	}

	for _, m := range members {
		detail.Members = append(detail.Members, MemberDetail{
			ID:       m.User.ID,
			Name:     m.User.Name,
			Email:    m.User.Email,
			Avatar:   m.User.Avatar,
			IsAdmin:  m.IsAdmin,
			JoinedAt: m.JoinedAt,
		})
	}
	for _, c := range contributions {
		detail.Contributions = append(detail.Contributions, ContributionDetail{
			ID:        c.ID,
			Amount:    c.Amount,
			User:      ActivityUser{ID: c.User.ID, Name: c.User.Name, Avatar: c.User.Avatar},
			CreatedAt: c.CreatedAt,
		})
	}
	for _, w := range withdrawals {
		detail.Withdrawals = append(detail.Withdrawals, WithdrawalDetail{
			ID:          w.ID,
			Amount:      w.Amount,
			Reason:      w.Reason,
			Status:      w.Status,
			User:        ActivityUser{ID: w.User.ID, Name: w.User.Name, Avatar: w.User.Avatar},
			CreatedAt:   w.CreatedAt,
			ProcessedAt: w.ProcessedAt,
		})
	}

	return detail, nil
}

// GroupHistory возвращает всю историю взносов и запросов группы.
// Доступ только участникам.
func (l *Ledger) GroupHistory(ctx context.Context, userID, groupID uint) (*GroupHistory, error) {
	member, err := l.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrUnauthorized
	}

	var group models.SavingsGroup
	if err := l.db.WithContext(ctx).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	history := &GroupHistory{Group: group}

	if err := l.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&history.Contributions).Error; err != nil {
		return nil, err
	}

	if err := l.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&history.Withdrawals).Error; err != nil {
		return nil, err
	}

	return history, nil
}

func (l *Ledger) memberCount(ctx context.Context, groupID uint) (int, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).Count(&count).Error
	return int(count), err
}
