package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/heirclark/nutricoach/internal/models"
)

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// CreateUser inserts a new user row.
func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := s.exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash,
		user.CreatedAt.Format(time.RFC3339), user.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id. Returns nil when not found.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserWhere(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email. Returns nil when not found.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserWhere(ctx, "email", email)
}

func (s *SQLStore) getUserWhere(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	var createdAt, updatedAt string
	err := s.queryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE `+column+` = ?
	`, value).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updatedAt)
	return user, nil
}

// SaveProfile creates or replaces the user's profile.
func (s *SQLStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	_, err := s.exec(ctx, `
		INSERT INTO user_profiles (user_id, age, sex, height_cm, activity_level, goal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			age = excluded.age,
			sex = excluded.sex,
			height_cm = excluded.height_cm,
			activity_level = excluded.activity_level,
			goal = excluded.goal,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.Age, profile.Sex, profile.HeightCm,
		profile.ActivityLevel, profile.Goal, nowString())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile retrieves the user's profile. Returns nil when none is saved.
func (s *SQLStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	err := s.queryRow(ctx, `
		SELECT user_id, age, sex, height_cm, activity_level, goal
		FROM user_profiles WHERE user_id = ?
	`, userID).Scan(&profile.UserID, &profile.Age, &profile.Sex,
		&profile.HeightCm, &profile.ActivityLevel, &profile.Goal)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}
