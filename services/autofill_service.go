package services

import (
	"context"
	"errors"
	"fmt"

	"formfill/browser"
	"formfill/config"
	"formfill/models"
	"formfill/utils"
)

// Messages and detail keys of the 500 responses, one per failing step.
const (
	msgLaunchFailed    = "Failed to launch browser"
	msgNavigateFailed  = "Failed to navigate to URL"
	msgLLMFailed       = "LLM request failed"
	msgUnparseableJSON = "Could not parse LLM JSON output"
	msgNoJSON          = "LLM did not return JSON"
	detailKeyDetails   = "details"
	detailKeyDetail    = "detail"
	detailKeyRaw       = "raw"
)

const (
	FilledStatus        = "filled"
	FilledReviewMessage = "AI filled the form. Please review the visible browser and click Submit manually."
)

// PipelineError is a request-level failure. Message and Detail are returned to
// the caller under "error" and DetailKey.
type PipelineError struct {
	Message   string
	DetailKey string
	Detail    string
	SessionID string
	Err       error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error { return e.Err }

// AutofillResult is everything a successful fill reports.
type AutofillResult struct {
	SessionID  string
	URL        string
	Title      string
	Mapped     []models.ApplyResult
	Errors     []models.ApplyResult
	Notes      string
	LLMRaw     string
	Screenshot string
}

// AutofillService runs navigate -> extract -> map -> apply for one request and
// hands the browser to the session registry instead of closing it.
type AutofillService struct {
	launcher    browser.Launcher
	sessions    *SessionRegistry
	extractor   *DOMExtractor
	applier     *MappingApplier
	llm         Completer
	screenshots *ScreenshotService
	cfg         config.BrowserConfig
}

// NewAutofillService wires the pipeline. screenshots may be nil.
func NewAutofillService(launcher browser.Launcher, sessions *SessionRegistry, llm Completer, screenshots *ScreenshotService, cfg config.BrowserConfig) *AutofillService {
	return &AutofillService{
		launcher:    launcher,
		sessions:    sessions,
		extractor:   NewDOMExtractor(),
		applier:     NewMappingApplier(cfg.TypeDelay),
		llm:         llm,
		screenshots: screenshots,
		cfg:         cfg,
	}
}

// Fill runs the whole pipeline. Errors are *PipelineError; the browser stays
// registered for the operator whichever step fails after launch.
func (s *AutofillService) Fill(ctx context.Context, url, details string) (*AutofillResult, error) {
	instance, err := s.launcher.Launch()
	if err != nil {
		return nil, &PipelineError{Message: msgLaunchFailed, DetailKey: detailKeyDetails, Detail: err.Error(), Err: err}
	}

	session := s.sessions.Open(instance)
	defer s.sessions.markUsed(session)
	session.Describe(url, "")
	page := session.Page()

	logData := map[string]interface{}{"session_id": session.ID, "url": url}
	utils.LogInfo("Navigating", logData)

	if err := page.Navigate(url, s.cfg.NavigationTimeout); err != nil {
		if !errors.Is(err, browser.ErrNavigationTimeout) {
			return nil, &PipelineError{Message: msgNavigateFailed, DetailKey: detailKeyDetails, Detail: err.Error(), SessionID: session.ID, Err: err}
		}
		utils.LogWarn("Navigation timed out, continuing with partial page", logData)
	}

	// Let scripts render dynamic forms, then nudge lazy loaders.
	page.Wait(s.cfg.SettleDelay)
	if BestEffort("scroll-viewport", page.ScrollViewport) {
		page.Wait(s.cfg.ScrollDelay)
	}

	markup, err := page.Content()
	if err != nil {
		utils.LogWarn("Failed to read page content", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
	}
	title, err := page.Title()
	if err != nil {
		utils.LogWarn("Failed to read page title", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
	}
	session.Describe(url, title)

	controls := s.extractor.ExtractControls(markup)
	ambiguous := 0
	for _, c := range controls {
		if c.Ambiguous() {
			ambiguous++
		}
	}
	utils.LogInfo("Form controls extracted", map[string]interface{}{"session_id": session.ID, "controls": len(controls), "ambiguous": ambiguous})

	prompt, err := BuildMappingPrompt(details, title, url, controls)
	if err != nil {
		return nil, &PipelineError{Message: msgLLMFailed, DetailKey: detailKeyDetail, Detail: err.Error(), SessionID: session.ID, Err: err}
	}

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, &PipelineError{Message: msgLLMFailed, DetailKey: detailKeyDetail, Detail: err.Error(), SessionID: session.ID, Err: err}
	}

	parsed, err := ParseMappingResponse(raw)
	if err != nil {
		msg := msgUnparseableJSON
		if errors.Is(err, ErrNoJSON) {
			msg = msgNoJSON
		}
		return nil, &PipelineError{Message: msg, DetailKey: detailKeyRaw, Detail: raw, SessionID: session.ID, Err: err}
	}

	mapped, failed := s.applier.Apply(page, parsed.Mapping)

	result := &AutofillResult{
		SessionID: session.ID,
		URL:       url,
		Title:     title,
		Mapped:    mapped,
		Errors:    failed,
		Notes:     parsed.Notes,
		LLMRaw:    raw,
	}

	if s.screenshots != nil {
		if shot, err := s.screenshots.CaptureAndStore(page, session.ID); err != nil {
			utils.LogWarn("Review screenshot failed", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
		} else {
			result.Screenshot = shot
		}
	}

	return result, nil
}
