// Package browsertest provides in-memory implementations of the browser
// interfaces for tests. Elements are addressed by the exact selector string.
package browsertest

import (
	"fmt"
	"sync"
	"time"

	"formfill/browser"
)

// Element records what was done to it.
type Element struct {
	Value     string
	Typed     []string
	Scripted  bool
	Scrolled  bool
	ScrollErr error
	ClearErr  error
	TypeErr   error
	TypePanic interface{}
}

func (e *Element) ScrollIntoView() error {
	if e.ScrollErr != nil {
		return e.ScrollErr
	}
	e.Scrolled = true
	return nil
}

func (e *Element) Clear() error {
	if e.ClearErr != nil {
		return e.ClearErr
	}
	e.Value = ""
	return nil
}

func (e *Element) Type(text string, _ time.Duration) error {
	if e.TypePanic != nil {
		panic(e.TypePanic)
	}
	if e.TypeErr != nil {
		return e.TypeErr
	}
	e.Typed = append(e.Typed, text)
	e.Value += text
	return nil
}

// Frame is a document context holding elements by selector.
type Frame struct {
	Name        string
	Elements    map[string]*Element
	QueryErr    error
	SetValueErr error
}

func NewFrame(name string) *Frame {
	return &Frame{Name: name, Elements: make(map[string]*Element)}
}

// Add places a new element reachable through selector.
func (f *Frame) Add(selector string) *Element {
	el := &Element{}
	f.Elements[selector] = el
	return el
}

func (f *Frame) QuerySelector(selector string) (browser.Element, error) {
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	el, ok := f.Elements[selector]
	if !ok {
		return nil, nil
	}
	return el, nil
}

func (f *Frame) SetValue(selector, value string) error {
	if f.SetValueErr != nil {
		return f.SetValueErr
	}
	el, ok := f.Elements[selector]
	if !ok {
		return fmt.Errorf("failed to find element matching selector %q", selector)
	}
	el.Value = value
	el.Scripted = true
	return nil
}

// Page is a fake browser page. The embedded Frame is the main frame.
type Page struct {
	*Frame
	SubFrames []*Frame

	HTML      string
	PageTitle string
	Shot      []byte

	NavigateErr   error
	ContentErr    error
	ScreenshotErr error

	mu        sync.Mutex
	Navigated []string
	Waited    []time.Duration
}

func NewPage(html string) *Page {
	return &Page{Frame: NewFrame("main"), HTML: html}
}

// AddFrame appends a sub-frame after the existing ones.
func (p *Page) AddFrame(name string) *Frame {
	f := NewFrame(name)
	p.SubFrames = append(p.SubFrames, f)
	return f
}

func (p *Page) Frames() []browser.Frame {
	out := []browser.Frame{p.Frame}
	for _, f := range p.SubFrames {
		out = append(out, f)
	}
	return out
}

func (p *Page) Navigate(url string, _ time.Duration) error {
	p.mu.Lock()
	p.Navigated = append(p.Navigated, url)
	p.mu.Unlock()
	return p.NavigateErr
}

func (p *Page) Wait(d time.Duration) {
	p.mu.Lock()
	p.Waited = append(p.Waited, d)
	p.mu.Unlock()
}

func (p *Page) ScrollViewport() error { return nil }

func (p *Page) Content() (string, error) {
	if p.ContentErr != nil {
		return "", p.ContentErr
	}
	return p.HTML, nil
}

func (p *Page) Title() (string, error) { return p.PageTitle, nil }

func (p *Page) Screenshot() ([]byte, error) {
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return p.Shot, nil
}

// Launcher hands out Page on every Launch and counts closes.
type Launcher struct {
	Page *Page
	Err  error

	mu       sync.Mutex
	launches int
	closes   int
}

func (l *Launcher) Launch() (*browser.Instance, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	l.launches++
	l.mu.Unlock()
	return browser.NewInstance(l.Page, func() error {
		l.mu.Lock()
		l.closes++
		l.mu.Unlock()
		return nil
	}), nil
}

func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *Launcher) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}
