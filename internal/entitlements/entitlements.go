// Package entitlements decides which subscription levels may use the AI tools.
package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Level is a subscription tier.
type Level string

const (
	LevelFree    Level = "free"
	LevelPro     Level = "pro"
	LevelProPlus Level = "pro_plus"
)

// ErrNotEntitled is returned when the caller's level does not allow AI tools.
var ErrNotEntitled = errors.New("upgrade your subscription to use this feature")

// ParseLevel normalizes s. Unknown values are an error.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelFree, LevelPro, LevelProPlus:
		return l, nil
	case "":
		return LevelFree, nil
	default:
		return "", fmt.Errorf("unknown subscription level %q", s)
	}
}

// CanUseAITools reports whether level unlocks the resume analyzer and the
// roadmap generator.
func CanUseAITools(level Level) bool {
	return level == LevelPro || level == LevelProPlus
}

// Store resolves a user's current subscription level.
type Store interface {
	LevelFor(ctx context.Context, userID string) (Level, error)
}

// Check returns ErrNotEntitled unless userID may use the AI tools.
func Check(ctx context.Context, store Store, userID string) error {
	level, err := store.LevelFor(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve subscription for %s: %w", userID, err)
	}
	if !CanUseAITools(level) {
		return ErrNotEntitled
	}
	return nil
}

// StaticStore serves levels from configuration. Users without an override
// get Default.
type StaticStore struct {
	Default   Level
	Overrides map[string]Level
}

func (s StaticStore) LevelFor(_ context.Context, userID string) (Level, error) {
	if level, ok := s.Overrides[userID]; ok {
		return level, nil
	}
	if s.Default == "" {
		return LevelFree, nil
	}
	return s.Default, nil
}
