package lessons

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MalformedLessonError describes a lesson source that failed validation.
// The catalog logs and skips the source; it never aborts a load.
type MalformedLessonError struct {
	Source string // file name or caller-supplied label
	Err    error
}

func (e *MalformedLessonError) Error() string {
	return fmt.Sprintf("malformed lesson source %s: %v", e.Source, e.Err)
}

func (e *MalformedLessonError) Unwrap() error { return e.Err }

// Catalog holds parsed lesson definitions keyed by ID. It is populated by
// LoadFS calls during startup and read-only afterwards.
type Catalog struct {
	byID map[string]Lesson
	warn io.Writer // skipped-source log destination
}

// NewCatalog creates an empty catalog. Malformed sources encountered
// during loading are reported to warn (typically os.Stderr); a nil warn
// discards them silently, which is only appropriate in tests.
func NewCatalog(warn io.Writer) *Catalog {
	return &Catalog{byID: make(map[string]Lesson), warn: warn}
}

// LoadFS parses every .yaml/.yml file under dir in fsys into the catalog.
// A source that fails schema validation is logged and skipped; the rest
// of the directory still loads. Later loads override earlier ones on ID
// collision, so external lesson directories can shadow built-ins.
// Returns the number of lessons accepted from this call.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) (int, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("read lessons dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			c.skip(&MalformedLessonError{Source: name, Err: err})
			continue
		}
		lesson, err := Parse(raw)
		if err != nil {
			c.skip(&MalformedLessonError{Source: name, Err: err})
			continue
		}
		c.byID[lesson.ID] = lesson
		loaded++
	}
	return loaded, nil
}

// Parse decodes and validates a single YAML lesson source.
func Parse(raw []byte) (Lesson, error) {
	// Decode generically first so schema validation sees the document
	// shape, not Go's zero values for missing fields.
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Lesson{}, fmt.Errorf("parse YAML: %w", err)
	}

	// yaml.v3 yields YAML-typed values; normalize through JSON so the
	// schema validator sees what it expects.
	jsonRaw, err := json.Marshal(doc)
	if err != nil {
		return Lesson{}, fmt.Errorf("normalize document: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(jsonRaw, &normalized); err != nil {
		return Lesson{}, fmt.Errorf("normalize document: %w", err)
	}
	if err := validateSource(normalized); err != nil {
		return Lesson{}, err
	}

	var lesson Lesson
	if err := yaml.Unmarshal(raw, &lesson); err != nil {
		return Lesson{}, fmt.Errorf("decode lesson: %w", err)
	}
	return lesson, nil
}

// Get returns the lesson with the given ID.
func (c *Catalog) Get(id string) (Lesson, bool) {
	l, ok := c.byID[id]
	return l, ok
}

// List returns all lessons sorted by title, falling back to ID for
// lessons without one, so presentation order is deterministic.
func (c *Catalog) List() []Lesson {
	out := make([]Lesson, 0, len(c.byID))
	for _, l := range c.byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Title, out[j].Title
		if ti == "" {
			ti = out[i].ID
		}
		if tj == "" {
			tj = out[j].ID
		}
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of lessons in the catalog.
func (c *Catalog) Len() int {
	return len(c.byID)
}

func (c *Catalog) skip(err *MalformedLessonError) {
	if c.warn == nil {
		return
	}
	fmt.Fprintf(c.warn, "warning: skipping lesson: %v\n", err)
}
