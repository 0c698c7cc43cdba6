package services

import (
	"fmt"
	"strings"
)

// Selector conventions the model is told to use when naming a control.
const (
	idSelectorPrefix   = "id:"
	nameSelectorPrefix = "name:"
)

// ResolveSelector turns a convention-prefixed selector into CSS:
// "id:X" -> "#X", "name:X" -> `[name="X"]`, anything else unchanged.
func ResolveSelector(raw string) string {
	switch {
	case strings.HasPrefix(raw, idSelectorPrefix):
		return "#" + strings.TrimPrefix(raw, idSelectorPrefix)
	case strings.HasPrefix(raw, nameSelectorPrefix):
		return fmt.Sprintf(`[name="%s"]`, strings.TrimPrefix(raw, nameSelectorPrefix))
	default:
		return raw
	}
}
