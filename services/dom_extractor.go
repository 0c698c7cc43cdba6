package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"formfill/models"
	"formfill/utils"
)

// controlSelector matches every element the model may be asked to fill.
const controlSelector = "input, textarea, select, [role='combobox']"

// maxOuterHTML bounds the markup snippet sent to the model per control.
const maxOuterHTML = 800

type describeFunc func(doc *goquery.Document, control *goquery.Selection) (models.ControlDescriptor, error)

// DOMExtractor turns rendered page markup into ControlDescriptors.
type DOMExtractor struct {
	describe describeFunc
}

func NewDOMExtractor() *DOMExtractor {
	return &DOMExtractor{describe: describeControl}
}

// ExtractControls returns one descriptor per matched control in document order.
// A control that fails to describe is skipped; the rest of the page still is extracted.
func (e *DOMExtractor) ExtractControls(markup string) []models.ControlDescriptor {
	controls := make([]models.ControlDescriptor, 0)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		utils.LogWarn("Failed to parse page markup", map[string]interface{}{"error": err.Error()})
		return controls
	}

	doc.Find(controlSelector).Each(func(i int, control *goquery.Selection) {
		descriptor, err := e.safeDescribe(doc, control)
		if err != nil {
			utils.LogDebug("Skipping form control", map[string]interface{}{"index": i, "error": err.Error()})
			return
		}
		controls = append(controls, descriptor)
	})

	return controls
}

func (e *DOMExtractor) safeDescribe(doc *goquery.Document, control *goquery.Selection) (d models.ControlDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("control extraction panicked: %v", r)
		}
	}()
	return e.describe(doc, control)
}

func describeControl(doc *goquery.Document, control *goquery.Selection) (models.ControlDescriptor, error) {
	if control.Length() == 0 {
		return models.ControlDescriptor{}, errors.New("empty selection")
	}

	outer, err := goquery.OuterHtml(control)
	if err != nil {
		return models.ControlDescriptor{}, fmt.Errorf("failed to serialize control: %w", err)
	}

	return models.ControlDescriptor{
		Tag:         goquery.NodeName(control),
		Type:        control.AttrOr("type", ""),
		Name:        control.AttrOr("name", ""),
		ID:          control.AttrOr("id", ""),
		Placeholder: control.AttrOr("placeholder", ""),
		AriaLabel:   control.AttrOr("aria-label", ""),
		Label:       deriveLabel(doc, control),
		OuterHTML:   truncateRunes(outer, maxOuterHTML),
	}, nil
}

// deriveLabel tries, in order: <label for=id>, an enclosing <label>, the previous sibling node.
func deriveLabel(doc *goquery.Document, control *goquery.Selection) string {
	if id, ok := control.Attr("id"); ok {
		forLabel := doc.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			f, has := l.Attr("for")
			return has && f == id
		}).First()
		if text := nodesText(forLabel.Nodes...); text != "" {
			return text
		}
	}

	if parent := control.ParentsFiltered("label").First(); parent.Length() > 0 {
		if text := nodesText(parent.Nodes...); text != "" {
			return text
		}
	}

	return previousSiblingText(control.Get(0))
}

func previousSiblingText(n *html.Node) string {
	if n == nil || n.PrevSibling == nil {
		return ""
	}
	prev := n.PrevSibling
	switch prev.Type {
	case html.ElementNode:
		return nodesText(prev)
	case html.TextNode:
		return normalizeSpace(prev.Data)
	default:
		return strings.TrimSpace(prev.Data)
	}
}

// nodesText joins the whitespace-normalised text of every descendant text node with single spaces.
func nodesText(nodes ...*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := normalizeSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
