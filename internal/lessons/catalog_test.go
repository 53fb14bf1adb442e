package lessons

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"gopkg.in/yaml.v3"
)

const validLesson = `
id: kata
title: Kata
description: A practice lesson.
steps:
  - name: Observe
    goals:
      - see the current condition
    best_practices:
      - go and see
    prompts_for_user:
      - what did you observe?
  - name: Experiment
    goals:
      - run one experiment
    best_practices:
      - change one thing
    prompts_for_user:
      - what will you try?
`

func TestParse_ValidLesson(t *testing.T) {
	lesson, err := Parse([]byte(validLesson))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lesson.ID != "kata" {
		t.Errorf("ID = %q, want kata", lesson.ID)
	}
	if lesson.Title != "Kata" {
		t.Errorf("Title = %q", lesson.Title)
	}
	if len(lesson.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(lesson.Steps))
	}
	if lesson.Steps[1].Name != "Experiment" {
		t.Errorf("step 1 name = %q", lesson.Steps[1].Name)
	}
	// Prompts are questions; the trailing "?" must survive parsing.
	if got := lesson.Steps[0].PromptsForUser[0]; got != "what did you observe?" {
		t.Errorf("step 0 prompt = %q", got)
	}
}

func TestParse_RejectsMissingID(t *testing.T) {
	src := `
title: No ID
steps:
  - name: Only Step
`
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatal("expected error for source without id")
	}
}

func TestParse_RejectsZeroSteps(t *testing.T) {
	src := `
id: empty
title: Empty
steps: []
`
	if _, err := Parse([]byte(src)); err == nil {
		t.Fatal("expected error for lesson with zero steps")
	}
}

func TestParse_RejectsInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("id: [unclosed")); err == nil {
		t.Fatal("expected error for broken YAML")
	}
}

func TestLoadFS_SkipsMalformedAndKeepsRest(t *testing.T) {
	fsys := fstest.MapFS{
		"good.yaml":    {Data: []byte(validLesson)},
		"no_id.yaml":   {Data: []byte("title: Nameless\nsteps:\n  - name: A\n")},
		"not_yaml.txt": {Data: []byte("ignored entirely")},
	}

	var warnings bytes.Buffer
	c := NewCatalog(&warnings)
	n, err := c.LoadFS(fsys, ".")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded = %d, want 1", n)
	}
	if _, ok := c.Get("kata"); !ok {
		t.Error("valid lesson missing from catalog")
	}
	if got := len(c.List()); got != 1 {
		t.Errorf("List() has %d lessons, want 1", got)
	}
	if !strings.Contains(warnings.String(), "no_id.yaml") {
		t.Errorf("skipped source not logged: %q", warnings.String())
	}
}

func TestLoadFS_LaterLoadOverridesOnIDCollision(t *testing.T) {
	base := fstest.MapFS{
		"kata.yaml": {Data: []byte(validLesson)},
	}
	override := fstest.MapFS{
		"kata.yaml": {Data: []byte("id: kata\ntitle: Kata Revised\nsteps:\n  - name: Revised\n")},
	}

	c := NewCatalog(nil)
	n, err := c.LoadFS(base, ".")
	if err != nil {
		t.Fatalf("load base: %v", err)
	}
	if n != 1 {
		// A skipped base would make the override assertion vacuous.
		t.Fatalf("base load = %d lessons, want 1", n)
	}
	if _, err := c.LoadFS(override, "."); err != nil {
		t.Fatalf("load override: %v", err)
	}

	l, ok := c.Get("kata")
	if !ok {
		t.Fatal("lesson missing")
	}
	if l.Title != "Kata Revised" {
		t.Errorf("Title = %q, want override to win", l.Title)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestList_SortedByTitle(t *testing.T) {
	fsys := fstest.MapFS{
		"b.yaml": {Data: []byte("id: zeta\ntitle: Zeta\nsteps:\n  - name: S\n")},
		"a.yaml": {Data: []byte("id: alpha\ntitle: Alpha\nsteps:\n  - name: S\n")},
		"c.yaml": {Data: []byte("id: mid\ntitle: Middle\nsteps:\n  - name: S\n")},
	}

	c := NewCatalog(nil)
	if _, err := c.LoadFS(fsys, "."); err != nil {
		t.Fatalf("load: %v", err)
	}

	var titles []string
	for _, l := range c.List() {
		titles = append(titles, l.Title)
	}
	want := []string{"Alpha", "Middle", "Zeta"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("titles = %v, want %v", titles, want)
		}
	}
}

func TestBuiltinLessonsLoad(t *testing.T) {
	c := NewCatalog(nil)
	n, err := c.LoadFS(Builtin(), ".")
	if err != nil {
		t.Fatalf("load builtin: %v", err)
	}
	if n != 3 {
		t.Fatalf("loaded = %d, want 3 built-in lessons", n)
	}

	for _, id := range []string{"dmaic", "five-s", "five-whys"} {
		l, ok := c.Get(id)
		if !ok {
			t.Errorf("built-in lesson %q missing", id)
			continue
		}
		if len(l.Steps) == 0 {
			t.Errorf("lesson %q has no steps", id)
		}
	}

	dmaic, _ := c.Get("dmaic")
	if len(dmaic.Steps) != 5 {
		t.Errorf("dmaic has %d steps, want 5", len(dmaic.Steps))
	}
	if dmaic.Steps[0].Name != "Define" || dmaic.Steps[4].Name != "Control" {
		t.Errorf("dmaic step order wrong: %q .. %q", dmaic.Steps[0].Name, dmaic.Steps[4].Name)
	}
}

func TestLesson_YAMLRoundTrip(t *testing.T) {
	original, err := Parse([]byte(validLesson))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	raw, err := yaml.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	reparsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}

	if reparsed.ID != original.ID || reparsed.Title != original.Title {
		t.Errorf("round trip changed identity: %q/%q -> %q/%q",
			original.ID, original.Title, reparsed.ID, reparsed.Title)
	}
	if len(reparsed.Steps) != len(original.Steps) {
		t.Fatalf("round trip changed step count: %d -> %d", len(original.Steps), len(reparsed.Steps))
	}
	for i := range original.Steps {
		if reparsed.Steps[i].Name != original.Steps[i].Name {
			t.Errorf("step %d name changed: %q -> %q", i, original.Steps[i].Name, reparsed.Steps[i].Name)
		}
	}
}

func TestMalformedLessonError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &MalformedLessonError{Source: "x.yaml", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap does not reach cause")
	}
	if !strings.Contains(err.Error(), "x.yaml") {
		t.Errorf("Error() = %q, want source name", err.Error())
	}
}
