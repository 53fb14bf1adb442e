package store

import (
	"context"
	"fmt"
	"sort"
)

func (r *eventRepo) AppendLessonEvent(ctx context.Context, data LessonEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.client.LessonEvent.Create().
		SetSequence(seqNum).
		SetSessionID(data.SessionID).
		SetLessonID(data.LessonID).
		SetAction(data.Action).
		SetStepIndex(data.StepIndex).
		SetArtifactPath(data.ArtifactPath).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save lesson event: %w", err)
	}
	return nil
}

func (r *eventRepo) LessonActivityStats(ctx context.Context) ([]LessonActivity, error) {
	rows, err := r.client.LessonEvent.Query().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query lesson events: %w", err)
	}

	byLesson := make(map[string]*LessonActivity)
	for _, row := range rows {
		a, ok := byLesson[row.LessonID]
		if !ok {
			a = &LessonActivity{LessonID: row.LessonID}
			byLesson[row.LessonID] = a
		}
		switch row.Action {
		case LessonActionStarted:
			a.Started++
		case LessonActionStepSubmitted:
			a.StepsSubmitted++
		case LessonActionCompleted:
			a.Completed++
		case LessonActionCancelled:
			a.Cancelled++
		case LessonActionExported:
			a.Exported++
		}
	}

	out := make([]LessonActivity, 0, len(byLesson))
	for _, a := range byLesson {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return out, nil
}
