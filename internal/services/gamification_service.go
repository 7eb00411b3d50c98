// Package services holds the bot's business logic, one service per
// concern, all speaking to persistence through storage.Store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ceconelo/financaia/internal/storage"
)

const xpPerTransaction = 10

// achievement XP rewards, keyed by achievement name.
var achievementXP = map[string]int64{
	"Primeiro Passo":  50,
	"Semana Completa": 100,
}

// GamificationService owns XP, level, streak and achievement state.
// Other services call it after successful transaction writes and
// append its reply fragments to their own.
type GamificationService struct {
	store storage.Store
}

func NewGamificationService(store storage.Store) *GamificationService {
	return &GamificationService{store: store}
}

// UserStats is what the summary command renders.
type UserStats struct {
	Level        int64
	XP           int64
	Streak       int64
	Achievements int64
}

// AddXP credits XP and recomputes the level (1 + xp/100). Reports
// whether the user leveled up.
func (s *GamificationService) AddXP(ctx context.Context, userID string, amount int64) (leveledUp bool, newLevel int64, err error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, 0, fmt.Errorf("load user: %w", err)
	}

	user.XP += amount
	newLevel = 1 + user.XP/100
	leveledUp = newLevel > user.Level
	user.Level = newLevel

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return false, 0, fmt.Errorf("update user xp: %w", err)
	}
	return leveledUp, newLevel, nil
}

// UpdateStreak advances the daily streak: activity within 24h of the
// last one keeps the current streak, between 24h and 48h extends it,
// beyond 48h resets it to 1.
func (s *GamificationService) UpdateStreak(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	now := time.Now().UTC()
	if user.LastActivity.IsZero() {
		user.Streak = 1
		user.LastActivity = now
		return s.store.UpdateUser(ctx, user)
	}

	elapsed := now.Sub(user.LastActivity)
	switch {
	case elapsed < 24*time.Hour:
		return nil
	case elapsed < 48*time.Hour:
		user.Streak++
	default:
		user.Streak = 1
	}
	user.LastActivity = now
	return s.store.UpdateUser(ctx, user)
}

// CheckAchievements unlocks any achievements the user just earned and
// returns the celebration lines to append to the reply.
func (s *GamificationService) CheckAchievements(ctx context.Context, userID string) []string {
	var messages []string

	count, err := s.store.CountUserTransactions(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to count transactions for achievements",
			"user_id", userID, "error", err)
		return messages
	}
	if count == 1 {
		if msg := s.unlock(ctx, userID, "Primeiro Passo"); msg != "" {
			messages = append(messages, msg)
		}
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load user for achievements",
			"user_id", userID, "error", err)
		return messages
	}
	if user.Streak >= 7 {
		if msg := s.unlock(ctx, userID, "Semana Completa"); msg != "" {
			messages = append(messages, msg)
		}
	}

	return messages
}

func (s *GamificationService) unlock(ctx context.Context, userID, name string) string {
	newly, err := s.store.UnlockAchievement(ctx, userID, name)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unlock achievement",
			"user_id", userID, "achievement", name, "error", err)
		return ""
	}
	if !newly {
		return ""
	}

	reward := achievementXP[name]
	if reward > 0 {
		if _, _, err := s.AddXP(ctx, userID, reward); err != nil {
			slog.ErrorContext(ctx, "Failed to credit achievement XP",
				"user_id", userID, "achievement", name, "error", err)
		}
	}
	return fmt.Sprintf("🎉 Conquista desbloqueada: %s! (+%d XP)", name, reward)
}

// Stats returns what the resumo command shows about gamification.
func (s *GamificationService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	achievements, err := s.store.CountAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count achievements: %w", err)
	}
	return &UserStats{
		Level:        user.Level,
		XP:           user.XP,
		Streak:       user.Streak,
		Achievements: achievements,
	}, nil
}
