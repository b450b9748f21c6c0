package coach

import "strings"

const (
	// RoleReactDeveloper is the preset slug served when generation fails.
	RoleReactDeveloper  = "react-developer"
	RolePythonDeveloper = "python-developer"
)

var fallbackAnalysis = AnalysisResult{
	OverallScore:    65,
	ContactScore:    75,
	ExperienceScore: 70,
	Improvements: []string{
		"Poor formatting and typos make the resume look unprofessional",
		"Lacks detail in key areas, such as responsibilities, achievements, and education",
		"Missing essential contact information",
	},
	Strengths: []string{
		"Highlights 10+ years of experience",
		"Mentions proficiency in key technologies like .NET Core, Angular, and Azure",
		"Indicates experience with Microservices and Team Lead roles",
	},
	Summary: "The resume shows potential but suffers from poor formatting and a lack of detail in key areas. Clearer presentation and more quantifiable achievements are needed.",
}

var presetRoadmaps = map[string]Roadmap{
	RoleReactDeveloper: {
		Title:       "Full Stack React Developer Roadmap",
		Description: "This roadmap provides a structured path to becoming a proficient Full Stack React Developer. It covers essential front-end concepts with React, back-end technologies, databases, and deployment strategies.",
		Duration:    "12-18 Months",
		TotalNodes:  8,
		Nodes: []RoadmapNode{
			{ID: "1", Title: "React Component Lifecycle", Description: "Grasp how components are created, updated, and unmounted...", Duration: "2-3 weeks", Category: CategoryFoundation},
			{ID: "2", Title: "State Management (Redux/Context)", Description: "Learn to manage application state effectively using Redux or React Context...", Duration: "3-4 weeks", Category: CategoryFoundation},
			{ID: "3", Title: "React Hooks", Description: "Master the use of React Hooks (useState, useEffect, useContext...)...", Duration: "2-3 weeks", Category: CategoryIntermediate},
			{ID: "4", Title: "Frontend Testing (Jest/RTL)", Description: "Write unit and integration tests for React components...", Duration: "2-3 weeks", Category: CategoryIntermediate},
			{ID: "5", Title: "React Router", Description: "Implement client-side routing to create single-page applications...", Duration: "1-2 weeks", Category: CategoryIntermediate},
			{ID: "6", Title: "Backend Fundamentals (Node.js/Express)", Description: "Learn Node.js for server-side JavaScript development...", Duration: "4-6 weeks", Category: CategoryAdvanced},
			{ID: "7", Title: "API Integration (REST/GraphQL)", Description: "Build and consume REST and GraphQL APIs...", Duration: "3-4 weeks", Category: CategoryAdvanced},
			{ID: "8", Title: "Database Management", Description: "Choose and implement database solutions like PostgreSQL, MySQL, or MongoDB...", Duration: "4-5 weeks", Category: CategorySpecialization},
		},
	},
	RolePythonDeveloper: {
		Title:       "Python Full Stack Developer Roadmap",
		Description: "Comprehensive path to becoming a skilled Python developer covering web development, data science fundamentals, and deployment.",
		Duration:    "10-15 Months",
		TotalNodes:  8,
		Nodes: []RoadmapNode{
			{ID: "1", Title: "Python Fundamentals", Description: "Master Python syntax, data types, control structures, and OOP concepts...", Duration: "3-4 weeks", Category: CategoryFoundation},
			{ID: "2", Title: "Django/Flask Framework", Description: "Learn web development with Django or Flask frameworks...", Duration: "4-6 weeks", Category: CategoryFoundation},
			{ID: "3", Title: "Database Integration", Description: "Work with SQL databases using SQLAlchemy or Django ORM...", Duration: "2-3 weeks", Category: CategoryIntermediate},
			{ID: "4", Title: "REST API Development", Description: "Build RESTful APIs using Django REST Framework or FastAPI...", Duration: "3-4 weeks", Category: CategoryIntermediate},
			{ID: "5", Title: "Frontend Integration", Description: "Connect Python backend with React, Vue, or vanilla JavaScript...", Duration: "2-3 weeks", Category: CategoryIntermediate},
			{ID: "6", Title: "Testing & Documentation", Description: "Implement unit testing with pytest and create comprehensive documentation...", Duration: "2-3 weeks", Category: CategoryAdvanced},
			{ID: "7", Title: "Data Science Basics", Description: "Introduction to pandas, numpy, and data visualization...", Duration: "4-5 weeks", Category: CategoryAdvanced},
			{ID: "8", Title: "Deployment & DevOps", Description: "Deploy applications using Docker, AWS, or Heroku...", Duration: "3-4 weeks", Category: CategorySpecialization},
		},
	},
}

// PresetRole is a selectable role with a canned roadmap.
type PresetRole struct {
	Slug  string
	Label string
}

// PresetRoles lists the roles that resolve without a model call.
func PresetRoles() []PresetRole {
	return []PresetRole{
		{Slug: RoleReactDeveloper, Label: "React Developer"},
		{Slug: RolePythonDeveloper, Label: "Python Developer"},
	}
}

// FallbackAnalysis returns a copy of the analysis served when live
// generation fails.
func FallbackAnalysis() AnalysisResult {
	return fallbackAnalysis.clone()
}

// FallbackRoadmap returns a copy of the roadmap served when live generation
// fails. It is the react-developer preset.
func FallbackRoadmap() Roadmap {
	return presetRoadmaps[RoleReactDeveloper].clone()
}

// PresetRoadmap returns a copy of the preset roadmap for slug.
func PresetRoadmap(slug string) (Roadmap, bool) {
	r, ok := presetRoadmaps[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Roadmap{}, false
	}
	return r.clone(), true
}
