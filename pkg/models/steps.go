package models

import "time"

// StepAction enumerates the recordable/replayable step kinds.
type StepAction string

const (
	StepNavigate StepAction = "navigate"
	StepClick    StepAction = "click"
	StepType     StepAction = "type"
	StepSelect   StepAction = "select"
	StepKeypress StepAction = "keypress"
	StepScroll   StepAction = "scroll"
)

// LocatorStrategy enumerates the ways a recorded step can re-find its target.
type LocatorStrategy string

const (
	LocatorRole     LocatorStrategy = "role"
	LocatorText     LocatorStrategy = "text"
	LocatorSelector LocatorStrategy = "selector"
	LocatorCSSPath  LocatorStrategy = "cssPath"
)

// Locator is one way of re-finding a step's target element. Steps carry
// locators in descending stability order (role first, cssPath last).
type Locator struct {
	Strategy LocatorStrategy `json:"strategy"`
	Role     string          `json:"role,omitempty"`
	Name     string          `json:"name,omitempty"`
	Text     string          `json:"text,omitempty"`
	Selector string          `json:"selector,omitempty"`
	Path     string          `json:"path,omitempty"`
}

// Step is one normalized recorded interaction.
type Step struct {
	Action   StepAction `json:"action"`
	URL      string     `json:"url,omitempty"`
	Locators []Locator  `json:"locators,omitempty"`
	Value    string     `json:"value,omitempty"`
	Key      string     `json:"key,omitempty"`
	ScrollX  float64    `json:"scrollX,omitempty"`
	ScrollY  float64    `json:"scrollY,omitempty"`
}

// Recording is a named, replayable step list.
type Recording struct {
	Name       string    `json:"name"`
	RecordedAt time.Time `json:"recordedAt"`
	Steps      []Step    `json:"steps"`
}

// StepResult is the replay outcome for one step.
type StepResult struct {
	Index   int        `json:"index"`
	Action  StepAction `json:"action"`
	Passed  bool       `json:"passed"`
	Fatal   bool       `json:"fatal,omitempty"`
	Error   string     `json:"error,omitempty"`
	Elapsed int64      `json:"elapsedMs"`
}

// ReplaySummary aggregates a full replay run.
type ReplaySummary struct {
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Fatal   bool         `json:"fatal"`
	Results []StepResult `json:"results"`
}
