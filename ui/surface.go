// Package ui drives the phone's screens. The display itself sits behind
// the Surface interface, which accepts structured text per labeled region;
// the Navigator owns which view is shown and how keys move between views.
package ui

import (
	"fmt"
	"io"
)

// Color is a 24-bit RGB text color.
type Color uint32

const (
	ColorSelected Color = 0x00FF00 // green, highlighted row
	ColorNormal   Color = 0xFFFF00 // yellow, regular text
	ColorDim      Color = 0x888888 // grey, hints and metadata
)

// BodyLines is the number of visible body rows on the screen.
const BodyLines = 8

// Surface is the rendering sink. Implementations only draw; all layout
// decisions are made by the caller.
type Surface interface {
	// SetTitle sets the large heading ("INBOX", contact name, "CALL").
	SetTitle(text string)
	// SetStatus sets the one-line status region near the bottom.
	SetStatus(text string)
	// SetInfo sets the dim key-hint line below the status region.
	SetInfo(text string)
	// SetLine writes one body row. i is 0-based and < BodyLines.
	SetLine(i int, text string, color Color)
	// SetBanner shows large-scale text for call states, replacing the
	// body rows.
	SetBanner(title, body string)
	// ClearBody blanks all body rows and any banner.
	ClearBody()
}

// Terminal renders the surface as plain lines on a writer. It exists for
// desktop bring-up; the real display driver lives outside this module.
type Terminal struct {
	w     io.Writer
	title string
	lines [BodyLines]string
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) SetTitle(text string) {
	t.title = text
	fmt.Fprintf(t.w, "== %s ==\n", text)
}

func (t *Terminal) SetStatus(text string) {
	if text != "" {
		fmt.Fprintf(t.w, "[%s]\n", text)
	}
}

func (t *Terminal) SetInfo(text string) {
	if text != "" {
		fmt.Fprintf(t.w, "(%s)\n", text)
	}
}

func (t *Terminal) SetLine(i int, text string, _ Color) {
	if i < 0 || i >= BodyLines {
		return
	}
	t.lines[i] = text
	if text != "" {
		fmt.Fprintln(t.w, text)
	}
}

func (t *Terminal) SetBanner(title, body string) {
	fmt.Fprintf(t.w, "*** %s ***\n%s\n", title, body)
}

func (t *Terminal) ClearBody() {
	t.lines = [BodyLines]string{}
}

// Line is one recorded body row.
type Line struct {
	Text  string
	Color Color
}

// Recorder captures everything drawn, for tests.
type Recorder struct {
	Title       string
	Status      string
	Info        string
	Lines       [BodyLines]Line
	BannerTitle string
	BannerBody  string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SetTitle(text string)  { r.Title = text }
func (r *Recorder) SetStatus(text string) { r.Status = text }
func (r *Recorder) SetInfo(text string)   { r.Info = text }

func (r *Recorder) SetLine(i int, text string, color Color) {
	if i < 0 || i >= BodyLines {
		return
	}
	r.Lines[i] = Line{Text: text, Color: color}
}

func (r *Recorder) SetBanner(title, body string) {
	r.BannerTitle = title
	r.BannerBody = body
}

func (r *Recorder) ClearBody() {
	r.Lines = [BodyLines]Line{}
	r.BannerTitle = ""
	r.BannerBody = ""
}
