package coach

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/career-coach/internal/ai"
	"github.com/spigell/career-coach/internal/logger"
	"go.uber.org/zap"
)

// ErrRoleRequired is returned for an empty or whitespace-only role.
var ErrRoleRequired = errors.New("role required")

// RoadmapGenerator builds learning roadmaps for roles.
type RoadmapGenerator struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewRoadmapGenerator(generator ai.Generator, log *zap.Logger, maxLogLength int) *RoadmapGenerator {
	if generator == nil {
		generator = ai.Unavailable{}
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &RoadmapGenerator{
		generator: generator,
		logger:    logger.WithFields(log, zap.String(logger.FieldOperation, "roadmap")),
		maxLogLen: maxLogLength,
	}
}

// Generate returns the roadmap for role. Preset slugs are served without a
// model call. Failures yield the fallback roadmap with Outcome.Fallback set.
func (g *RoadmapGenerator) Generate(ctx context.Context, role string) (Outcome[Roadmap], error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return Outcome[Roadmap]{}, ErrRoleRequired
	}

	if preset, ok := PresetRoadmap(role); ok {
		g.logger.Debug("serving preset roadmap", zap.String("role", role))
		return Outcome[Roadmap]{Value: preset}, nil
	}

	raw, err := generateLogged(ctx, g.generator, g.logger, g.maxLogLen, BuildRoadmapPrompt(role), zap.String("role", SanitizeRole(role)))

	outcome := CoerceRoadmap(raw, err)
	if outcome.Fallback {
		g.logger.Warn("roadmap generation failed", zap.String("role", SanitizeRole(role)), zap.Error(outcome.Reason))
	}
	return outcome, nil
}
