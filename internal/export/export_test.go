package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("dmaic"); ok {
		t.Fatal("empty registry returned an exporter")
	}

	r.Register("dmaic", ExporterFunc(func(id string, recs []StepRecord) (string, error) {
		return "deck", nil
	}))

	e, ok := r.Lookup("dmaic")
	if !ok {
		t.Fatal("registered exporter not found")
	}
	path, err := e.Export("dmaic", nil)
	if err != nil || path != "deck" {
		t.Fatalf("export = %q, %v", path, err)
	}

	if _, ok := r.Lookup("five-s"); ok {
		t.Error("lookup for unregistered lesson succeeded")
	}
}

func TestRegistry_LessonIDsSorted(t *testing.T) {
	r := NewRegistry()
	noop := ExporterFunc(func(string, []StepRecord) (string, error) { return "", nil })
	r.Register("zeta", noop)
	r.Register("alpha", noop)

	ids := r.LessonIDs()
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "zeta" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestSlideExporter_WritesDeck(t *testing.T) {
	dir := t.TempDir()
	exp := NewSlideExporter(dir)
	exp.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	records := []StepRecord{
		{
			StepName:      "Define",
			UserInput:     "Our invoice approvals take eleven days on average.",
			Goals:         []string{"State the problem", "Identify the customer"},
			BestPractices: []string{"Quantify the pain"},
		},
		{
			StepName:  "Measure",
			UserInput: "",
			Goals:     []string{"Pick the metric"},
		},
	}

	deck, err := exp.Export("dmaic", records)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if filepath.Base(deck) != "dmaic_summary_20260314_092653" {
		t.Errorf("deck dir = %q", filepath.Base(deck))
	}

	// Title + overview + index + one per step.
	entries, err := os.ReadDir(deck)
	if err != nil {
		t.Fatalf("read deck dir: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("deck has %d slides, want 5", len(entries))
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "slide_") || !strings.HasSuffix(e.Name(), ".png") {
			t.Errorf("unexpected deck entry %q", e.Name())
		}
		info, err := e.Info()
		if err != nil {
			t.Fatalf("stat %s: %v", e.Name(), err)
		}
		if info.Size() == 0 {
			t.Errorf("slide %q is empty", e.Name())
		}
	}
}

func TestSlideExporter_WrapsFailureInError(t *testing.T) {
	// A file where the output directory should be forces MkdirAll to fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "out")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	exp := NewSlideExporter(blocked)
	_, err := exp.Export("dmaic", []StepRecord{{StepName: "Define"}})
	if err == nil {
		t.Fatal("expected error")
	}

	var exportErr *Error
	if !errors.As(err, &exportErr) {
		t.Fatalf("error = %T, want *export.Error", err)
	}
	if exportErr.LessonID != "dmaic" {
		t.Errorf("LessonID = %q", exportErr.LessonID)
	}
}
