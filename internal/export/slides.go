package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Deck geometry and palette. Colors follow the original summary deck:
// dark blue titles, green accent headings, neutral dark body text.
const (
	slideWidth  = 1280
	slideHeight = 720
	marginX     = 96.0

	colorTitle  = "#203864"
	colorAccent = "#10A37F"
	colorBody   = "#2E2E2E"
	colorDim    = "#777777"
	colorBg     = "#FFFFFF"
)

// SlideExporter renders a lesson summary as a directory of PNG slides:
// a title slide, an overview, a steps-covered index, and one two-column
// slide per step (the learner's input on the left, goals and best
// practices on the right).
type SlideExporter struct {
	// OutDir is the directory slide decks are written under.
	OutDir string

	// Subtitle appears on the title slide under the lesson name.
	Subtitle string

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewSlideExporter creates a SlideExporter writing under outDir.
func NewSlideExporter(outDir string) *SlideExporter {
	return &SlideExporter{
		OutDir:   outDir,
		Subtitle: "Your session at a glance",
		now:      time.Now,
	}
}

// Export renders the deck and returns the deck directory path.
func (s *SlideExporter) Export(lessonID string, records []StepRecord) (string, error) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	stamp := now().Format("20060102_150405")
	deckDir := filepath.Join(s.OutDir, fmt.Sprintf("%s_summary_%s", lessonID, stamp))

	if err := os.MkdirAll(deckDir, 0o755); err != nil {
		return "", &Error{LessonID: lessonID, Err: fmt.Errorf("create deck dir: %w", err)}
	}

	deckTitle := strings.ToUpper(lessonID) + " Summary"
	generated := "Generated " + now().Format("2006-01-02 15:04")

	slides := []func(dc *gg.Context){
		func(dc *gg.Context) { s.titleSlide(dc, deckTitle, generated) },
		func(dc *gg.Context) { s.sectionSlide(dc, "Overview", s.Subtitle) },
		func(dc *gg.Context) { s.indexSlide(dc, records) },
	}
	for i := range records {
		rec := records[i]
		slides = append(slides, func(dc *gg.Context) { s.stepSlide(dc, rec) })
	}

	for i, draw := range slides {
		dc := gg.NewContext(slideWidth, slideHeight)
		dc.SetHexColor(colorBg)
		dc.Clear()
		dc.SetFontFace(basicfont.Face7x13)
		draw(dc)

		path := filepath.Join(deckDir, fmt.Sprintf("slide_%02d.png", i+1))
		if err := dc.SavePNG(path); err != nil {
			return "", &Error{LessonID: lessonID, Err: fmt.Errorf("write %s: %w", filepath.Base(path), err)}
		}
	}

	return deckDir, nil
}

func (s *SlideExporter) titleSlide(dc *gg.Context, title, subtitle string) {
	dc.SetHexColor(colorTitle)
	dc.DrawStringWrapped(title, marginX, 260, 0, 0, slideWidth-2*marginX, 1.6, gg.AlignLeft)

	dc.SetHexColor(colorDim)
	dc.DrawStringWrapped(subtitle, marginX, 330, 0, 0, slideWidth-2*marginX, 1.4, gg.AlignLeft)

	dc.SetHexColor(colorAccent)
	dc.DrawRectangle(marginX, 300, 240, 4)
	dc.Fill()
}

func (s *SlideExporter) sectionSlide(dc *gg.Context, title, subtitle string) {
	dc.SetHexColor(colorTitle)
	dc.DrawStringWrapped(title, marginX, 120, 0, 0, slideWidth-2*marginX, 1.6, gg.AlignLeft)

	if subtitle != "" {
		dc.SetHexColor(colorDim)
		dc.DrawStringWrapped(subtitle, marginX, 180, 0, 0, slideWidth-2*marginX, 1.4, gg.AlignLeft)
	}
}

func (s *SlideExporter) indexSlide(dc *gg.Context, records []StepRecord) {
	dc.SetHexColor(colorTitle)
	dc.DrawString("Steps Covered", marginX, 110)

	dc.SetHexColor(colorBody)
	y := 170.0
	for i, rec := range records {
		dc.DrawString(fmt.Sprintf("%d. %s", i+1, rec.StepName), marginX, y)
		y += 36
	}
}

func (s *SlideExporter) stepSlide(dc *gg.Context, rec StepRecord) {
	dc.SetHexColor(colorTitle)
	dc.DrawString(rec.StepName, marginX, 100)

	colWidth := (slideWidth - 2*marginX - 64) / 2.0
	rightX := marginX + colWidth + 64

	// Left column: the learner's input.
	dc.SetHexColor(colorAccent)
	dc.DrawString("Your Input", marginX, 170)

	input := strings.TrimSpace(rec.UserInput)
	if input == "" {
		input = "—"
	}
	dc.SetHexColor(colorBody)
	dc.DrawStringWrapped(input, marginX, 200, 0, 0, colWidth, 1.5, gg.AlignLeft)

	// Right column: goals then best practices.
	dc.SetHexColor(colorAccent)
	dc.DrawString("Goals", rightX, 170)

	y := 200.0
	y = s.bulletList(dc, rec.Goals, rightX, y, colWidth)

	dc.SetHexColor(colorAccent)
	dc.DrawString("Best Practices", rightX, y+40)

	s.bulletList(dc, rec.BestPractices, rightX, y+70, colWidth)
}

// bulletList draws one bullet per item and returns the next free y.
func (s *SlideExporter) bulletList(dc *gg.Context, items []string, x, y, width float64) float64 {
	dc.SetHexColor(colorBody)
	if len(items) == 0 {
		dc.DrawString("—", x, y)
		return y + 28
	}
	for _, item := range items {
		text := "• " + item
		lines := dc.WordWrap(text, width)
		dc.DrawStringWrapped(text, x, y-12, 0, 0, width, 1.4, gg.AlignLeft)
		y += float64(len(lines))*18 + 10
	}
	return y
}
