// Package coach holds the career coaching core: prompt construction for the
// resume analyzer and roadmap generator, strict coercion of model output with
// a fixed fallback, preset roadmaps and the roadmap graph projection.
package coach

// Category is the difficulty stage of a roadmap node.
type Category string

const (
	CategoryFoundation     Category = "foundation"
	CategoryIntermediate   Category = "intermediate"
	CategoryAdvanced       Category = "advanced"
	CategorySpecialization Category = "specialization"
)

// Categories lists the legal categories in progression order.
func Categories() []Category {
	return []Category{CategoryFoundation, CategoryIntermediate, CategoryAdvanced, CategorySpecialization}
}

// Valid reports whether c is one of the four legal categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFoundation, CategoryIntermediate, CategoryAdvanced, CategorySpecialization:
		return true
	default:
		return false
	}
}

// AnalysisResult is the scored assessment of a resume.
type AnalysisResult struct {
	OverallScore    int      `json:"overallScore" mapstructure:"overallScore"`
	ContactScore    int      `json:"contactScore" mapstructure:"contactScore"`
	ExperienceScore int      `json:"experienceScore" mapstructure:"experienceScore"`
	Improvements    []string `json:"improvements" mapstructure:"improvements"`
	Strengths       []string `json:"strengths" mapstructure:"strengths"`
	Summary         string   `json:"summary" mapstructure:"summary"`
}

// Roadmap is an ordered learning path for a role. TotalNodes is reported by
// the model and is not reconciled with len(Nodes).
type Roadmap struct {
	Title       string        `json:"title" mapstructure:"title"`
	Description string        `json:"description" mapstructure:"description"`
	Duration    string        `json:"duration" mapstructure:"duration"`
	TotalNodes  int           `json:"totalNodes" mapstructure:"totalNodes"`
	Nodes       []RoadmapNode `json:"nodes" mapstructure:"nodes"`
}

// RoadmapNode is a single step of a Roadmap.
type RoadmapNode struct {
	ID          string   `json:"id" mapstructure:"id"`
	Title       string   `json:"title" mapstructure:"title"`
	Description string   `json:"description" mapstructure:"description"`
	Duration    string   `json:"duration" mapstructure:"duration"`
	Completed   bool     `json:"completed" mapstructure:"completed"`
	Category    Category `json:"category" mapstructure:"category"`
}

func (a AnalysisResult) clone() AnalysisResult {
	a.Improvements = append([]string(nil), a.Improvements...)
	a.Strengths = append([]string(nil), a.Strengths...)
	return a
}

func (r Roadmap) clone() Roadmap {
	r.Nodes = append([]RoadmapNode(nil), r.Nodes...)
	return r
}
