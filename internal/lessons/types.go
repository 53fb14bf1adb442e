package lessons

import "strconv"

// Lesson is a declarative, multi-step tutoring workflow loaded from a YAML
// source. Lessons are immutable once loaded into a Catalog.
type Lesson struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one stage of a lesson: what the learner should achieve, how
// practitioners approach it, and what to ask the learner.
type Step struct {
	Name           string   `yaml:"name"`
	Goals          []string `yaml:"goals"`
	BestPractices  []string `yaml:"best_practices"`
	PromptsForUser []string `yaml:"prompts_for_user"`
}

// StepName returns the step's declared name, or a positional fallback for
// steps defined without one.
func (l Lesson) StepName(idx int) string {
	if idx < 0 || idx >= len(l.Steps) {
		return ""
	}
	if n := l.Steps[idx].Name; n != "" {
		return n
	}
	return "Step " + strconv.Itoa(idx+1)
}
