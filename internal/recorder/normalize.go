package recorder

import (
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// RawEvent is one entry from the in-page capture buffer, either drained on
// the poll timer or delivered through the beacon endpoint.
type RawEvent struct {
	Type     string           `json:"type"`
	URL      string           `json:"url,omitempty"`
	Locators []models.Locator `json:"locators,omitempty"`
	Value    string           `json:"value,omitempty"`
	Key      string           `json:"key,omitempty"`
	ScrollX  float64          `json:"scrollX,omitempty"`
	ScrollY  float64          `json:"scrollY,omitempty"`
}

// toStep converts a raw capture event into a normalized step. Unknown event
// types return false.
func toStep(ev RawEvent) (models.Step, bool) {
	switch ev.Type {
	case "click":
		return models.Step{Action: models.StepClick, Locators: ev.Locators}, true
	case "type":
		return models.Step{Action: models.StepType, Locators: ev.Locators, Value: ev.Value}, true
	case "select":
		return models.Step{Action: models.StepSelect, Locators: ev.Locators, Value: ev.Value}, true
	case "keypress":
		return models.Step{Action: models.StepKeypress, Locators: ev.Locators, Key: ev.Key}, true
	case "scroll":
		return models.Step{Action: models.StepScroll, ScrollX: ev.ScrollX, ScrollY: ev.ScrollY}, true
	case "navigate":
		if ev.URL == "" || ev.URL == "about:blank" {
			return models.Step{}, false
		}
		return models.Step{Action: models.StepNavigate, URL: ev.URL}, true
	}
	return models.Step{}, false
}

// normalizeSteps deduplicates consecutive navigate steps to the same URL.
// It is idempotent: normalizing twice yields the same list.
func normalizeSteps(steps []models.Step) []models.Step {
	out := make([]models.Step, 0, len(steps))
	for _, s := range steps {
		if s.Action == models.StepNavigate && len(out) > 0 {
			prev := out[len(out)-1]
			if prev.Action == models.StepNavigate && prev.URL == s.URL {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
