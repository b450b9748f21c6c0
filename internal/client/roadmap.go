package client

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/career-coach/internal/coach"
	"go.uber.org/zap"
)

// RoleCustom selects the free-text role.
const RoleCustom = "custom"

// RoadmapAPI is the server call behind RoadmapGenerator.
type RoadmapAPI interface {
	GenerateRoadmap(ctx context.Context, role string) (coach.Roadmap, error)
}

// RoleOption is an entry of the role picker.
type RoleOption struct {
	Value string
	Label string
}

// RoleOptions lists the preset roles followed by the custom entry.
func RoleOptions() []RoleOption {
	presets := coach.PresetRoles()
	options := make([]RoleOption, 0, len(presets)+1)
	for _, p := range presets {
		options = append(options, RoleOption{Value: p.Slug, Label: p.Label})
	}
	return append(options, RoleOption{Value: RoleCustom, Label: "Custom Role"})
}

// RoadmapView is a roadmap with its rendered graph.
type RoadmapView struct {
	Roadmap  coach.Roadmap
	Graph    coach.Graph
	Fallback bool
}

// RoadmapGenerator drives role selection and roadmap generation.
type RoadmapGenerator struct {
	api      RoadmapAPI
	notifier Notifier
	session  *Session
	logger   *zap.Logger
}

func NewRoadmapGenerator(api RoadmapAPI, notifier Notifier, logger *zap.Logger) *RoadmapGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoadmapGenerator{
		api:      api,
		notifier: orDiscard(notifier),
		session:  NewSession(),
		logger:   logger,
	}
}

func (g *RoadmapGenerator) Session() *Session {
	return g.session
}

// Generate resolves role (or customRole when role is "custom") to a roadmap.
// Presets are served locally. A failed server call yields the fallback
// roadmap and a destructive notification.
func (g *RoadmapGenerator) Generate(ctx context.Context, role, customRole string) (RoadmapView, error) {
	role = strings.TrimSpace(role)
	selected := role
	if role == RoleCustom {
		selected = strings.TrimSpace(customRole)
	}
	if selected == "" {
		g.notifier.Notify(Notification{
			Title:       "Role Required",
			Description: "Please select or enter a role to generate roadmap",
			Variant:     VariantDestructive,
		})
		return RoadmapView{}, coach.ErrRoleRequired
	}

	var view RoadmapView
	err := g.session.Do(ctx, func(ctx context.Context) error {
		if role != RoleCustom {
			if preset, ok := coach.PresetRoadmap(role); ok {
				view = RoadmapView{Roadmap: preset}
				return nil
			}
		}

		roadmap, err := g.api.GenerateRoadmap(ctx, selected)
		if err != nil {
			g.logger.Warn("roadmap generation failed, using fallback", zap.String("role", selected), zap.Error(err))
			g.notifier.Notify(Notification{
				Title:       "Error",
				Description: "Failed to generate roadmap. Using fallback.",
				Variant:     VariantDestructive,
			})
			view = RoadmapView{Roadmap: coach.FallbackRoadmap(), Fallback: true}
			return err
		}

		view = RoadmapView{Roadmap: roadmap}
		return nil
	})
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrInvalidTransition) {
		return RoadmapView{}, err
	}

	view.Graph = coach.ProjectRoadmap(view.Roadmap)
	return view, nil
}
