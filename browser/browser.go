// Package browser is the narrow view of a live browser page that the autofill
// pipeline needs: selector lookup across frames, typing, in-page value
// assignment, navigation and capture. The playwright implementation lives in
// playwright.go; browsertest provides in-memory fakes.
package browser

import (
	"errors"
	"sync"
	"time"
)

// ErrNavigationTimeout marks a page load that did not finish in time. The page
// may still hold partially loaded content.
var ErrNavigationTimeout = errors.New("navigation timed out")

// Element is a handle to one control in a live document.
type Element interface {
	ScrollIntoView() error
	Clear() error
	// Type sends the text one character at a time, pausing delay between keys.
	Type(text string, delay time.Duration) error
}

// Frame is a document context selectors are evaluated in.
type Frame interface {
	// QuerySelector returns (nil, nil) when nothing matches.
	QuerySelector(selector string) (Element, error)
	// SetValue assigns el.value directly through a script evaluated in this context.
	SetValue(selector, value string) error
}

// Document is a page seen as its own context plus all of its frames.
// Frames lists the main frame first, then sub-frames in document order.
type Document interface {
	Frame
	Frames() []Frame
}

// Page is a Document that can also be navigated and captured.
type Page interface {
	Document
	// Navigate loads url; a timeout is reported as ErrNavigationTimeout.
	Navigate(url string, timeout time.Duration) error
	Wait(d time.Duration)
	// ScrollViewport scrolls the window down by one viewport height.
	ScrollViewport() error
	Content() (string, error)
	Title() (string, error)
	Screenshot() ([]byte, error)
}

// Instance is one launched browser with a single page. Closing it tears down
// the page, its context, the browser process and the driver.
type Instance struct {
	Page Page

	closer func() error
	once   sync.Once
	err    error
}

// NewInstance wraps page with the function that releases everything behind it.
func NewInstance(page Page, closer func() error) *Instance {
	return &Instance{Page: page, closer: closer}
}

// Close releases the browser. Calls after the first return the first result.
func (i *Instance) Close() error {
	i.once.Do(func() {
		if i.closer != nil {
			i.err = i.closer()
		}
	})
	return i.err
}

// Launcher starts a fresh browser per call.
type Launcher interface {
	Launch() (*Instance, error)
}
