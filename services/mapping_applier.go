package services

import (
	"fmt"
	"time"

	"formfill/browser"
	"formfill/models"
	"formfill/utils"
)

const errElementNotFound = "Element not found"

// MappingApplier writes model-proposed values into a live page.
type MappingApplier struct {
	typeDelay time.Duration
}

func NewMappingApplier(typeDelay time.Duration) *MappingApplier {
	return &MappingApplier{typeDelay: typeDelay}
}

// Apply handles every entry independently and in order. Each entry lands in
// exactly one of the two returned lists; a failing entry never stops the rest.
func (a *MappingApplier) Apply(doc browser.Document, mapping []models.MappingEntry) (mapped, failed []models.ApplyResult) {
	mapped = make([]models.ApplyResult, 0, len(mapping))
	failed = make([]models.ApplyResult, 0)

	for _, entry := range mapping {
		result, ok := a.applyEntry(doc, entry)
		if ok {
			mapped = append(mapped, result)
		} else {
			failed = append(failed, result)
		}
	}

	utils.LogInfo("Mapping applied", map[string]interface{}{
		"entries": len(mapping),
		"mapped":  len(mapped),
		"failed":  len(failed),
	})
	return mapped, failed
}

func (a *MappingApplier) applyEntry(doc browser.Document, entry models.MappingEntry) (result models.ApplyResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if msg == "" {
				msg = "panic during apply"
			}
			result = models.ApplyResult{Selector: entry.Selector, Error: msg}
			ok = false
		}
	}()

	selector := ResolveSelector(entry.Selector)

	el := locate(doc, selector)
	if el == nil {
		return models.ApplyResult{Selector: entry.Selector, Error: errElementNotFound}, false
	}

	BestEffort("scroll", el.ScrollIntoView)
	BestEffort("clear", el.Clear)

	// Typing fires the input listeners a direct assignment would skip.
	used, err := RunChain(
		Strategy{Name: "type", Run: func() error { return el.Type(entry.Value, a.typeDelay) }},
		Strategy{Name: "page-script", Run: func() error { return doc.SetValue(selector, entry.Value) }},
		Strategy{Name: "frame-script", Run: func() error { return setValueInFrames(doc.Frames(), selector, entry.Value) }},
	)
	if err != nil {
		utils.LogWarn("No write strategy succeeded", map[string]interface{}{
			"selector": selector,
			"error":    err.Error(),
		})
	} else {
		utils.LogDebug("Field written", map[string]interface{}{"selector": selector, "strategy": used})
	}

	return models.ApplyResult{
		Selector:        entry.Selector,
		AppliedSelector: selector,
		Value:           entry.Value,
	}, true
}

// locate looks in the page first, then in every frame; lookup errors count as no match.
func locate(doc browser.Document, selector string) browser.Element {
	if el, err := doc.QuerySelector(selector); err == nil && el != nil {
		return el
	}
	for _, f := range doc.Frames() {
		if el, err := f.QuerySelector(selector); err == nil && el != nil {
			return el
		}
	}
	return nil
}

func setValueInFrames(frames []browser.Frame, selector, value string) error {
	strategies := make([]Strategy, 0, len(frames))
	for i, f := range frames {
		f := f
		strategies = append(strategies, Strategy{
			Name: fmt.Sprintf("frame[%d]", i),
			Run:  func() error { return f.SetValue(selector, value) },
		})
	}
	_, err := RunChain(strategies...)
	return err
}
