package tutor

import "fmt"

// IncompleteLessonError reports a completion-time invariant violation:
// some step in [0, step count) has no recorded submission. The step
// handler makes this unreachable, but completion checks anyway and
// forces a reset rather than leaving the lesson stuck.
type IncompleteLessonError struct {
	LessonID    string
	MissingStep int
}

func (e *IncompleteLessonError) Error() string {
	return fmt.Sprintf("lesson %s incomplete: no submission for step %d", e.LessonID, e.MissingStep)
}
