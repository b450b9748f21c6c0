package coach

import (
	"fmt"
	"strings"

	_ "embed"
)

//go:embed prompts/roadmap.md
var roadmapTemplate string

//go:embed prompts/analysis.md
var analysisTemplate string

const (
	maxRoleLength   = 120
	maxResumeLength = 20000
)

// BuildRoadmapPrompt renders the roadmap prompt for role.
func BuildRoadmapPrompt(role string) string {
	r := strings.NewReplacer("{{ROLE}}", SanitizeRole(role))
	return strings.TrimSpace(r.Replace(roadmapTemplate))
}

// BuildAnalysisPrompt renders the resume analysis prompt. Placeholders are
// substituted in a single pass so resume text cannot inject further
// substitutions.
func BuildAnalysisPrompt(fileName, resumeContent string) string {
	r := strings.NewReplacer(
		"{{FILE_NAME}}", strings.TrimSpace(fileName),
		"{{RESUME_CONTENT}}", truncateRunes(strings.TrimSpace(resumeContent), maxResumeLength),
	)
	return strings.TrimSpace(r.Replace(analysisTemplate))
}

// PlaceholderResumeText describes an upload whose text could not be read.
func PlaceholderResumeText(fileName string, encodedLength int) string {
	return fmt.Sprintf(`Resume file: %[1]s

This is a sample resume analysis. In a production environment, you would:
1. Extract text from the PDF using libraries like pdf-parse or pdf2pic
2. Use OCR for scanned documents
3. Parse the extracted text for better analysis

The file has been uploaded as: %[1]s
Base64 content length: %[2]d characters`, fileName, encodedLength)
}

// SanitizeRole collapses whitespace, drops double quotes and caps the length
// of a user supplied role.
func SanitizeRole(role string) string {
	role = strings.ReplaceAll(role, `"`, "'")
	role = strings.Join(strings.Fields(role), " ")
	return truncateRunes(role, maxRoleLength)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
