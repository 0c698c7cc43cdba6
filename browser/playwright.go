package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"formfill/config"
	"formfill/utils"
)

const setValueScript = "(el, val) => el.value = val"

const scrollViewportScript = "() => { window.scrollBy(0, window.innerHeight); }"

// PlaywrightLauncher starts a new playwright driver and chromium process for every Launch.
type PlaywrightLauncher struct {
	cfg config.BrowserConfig
}

func NewPlaywrightLauncher(cfg config.BrowserConfig) *PlaywrightLauncher {
	return &PlaywrightLauncher{cfg: cfg}
}

// Launch starts playwright, a chromium browser, a context and a page. Nothing
// is closed on success: the caller owns the returned Instance.
func (l *PlaywrightLauncher) Launch() (*Instance, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.cfg.Headless),
		Args:     l.cfg.Args,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext()
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser page: %w", err)
	}

	utils.LogInfo("Browser launched", map[string]interface{}{"headless": l.cfg.Headless})

	closer := func() error {
		var errs []error
		if err := bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
		return errors.Join(errs...)
	}

	return NewInstance(&playwrightPage{page: page}, closer), nil
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) QuerySelector(selector string) (Element, error) {
	h, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &playwrightElement{handle: h}, nil
}

func (p *playwrightPage) SetValue(selector, value string) error {
	_, err := p.page.EvalOnSelector(selector, setValueScript, value)
	return err
}

func (p *playwrightPage) Frames() []Frame {
	frames := p.page.Frames()
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		out = append(out, &playwrightFrame{frame: f})
	}
	return out
}

func (p *playwrightPage) Navigate(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return err
}

func (p *playwrightPage) Wait(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *playwrightPage) ScrollViewport() error {
	_, err := p.page.Evaluate(scrollViewportScript)
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) Screenshot() ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

type playwrightFrame struct {
	frame playwright.Frame
}

func (f *playwrightFrame) QuerySelector(selector string) (Element, error) {
	h, err := f.frame.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &playwrightElement{handle: h}, nil
}

func (f *playwrightFrame) SetValue(selector, value string) error {
	_, err := f.frame.EvalOnSelector(selector, setValueScript, value)
	return err
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) ScrollIntoView() error {
	return e.handle.ScrollIntoViewIfNeeded()
}

func (e *playwrightElement) Clear() error {
	return e.handle.Fill("")
}

func (e *playwrightElement) Type(text string, delay time.Duration) error {
	return e.handle.Type(text, playwright.ElementHandleTypeOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}
