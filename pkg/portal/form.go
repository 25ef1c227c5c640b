package portal

import (
	"slices"
	"strings"
)

type InputKind int

const (
	INPUT_TEXT InputKind = iota
	INPUT_PASSWORD
	INPUT_CHECKBOX
	INPUT_RADIO
	INPUT_FILE
	INPUT_HIDDEN
	INPUT_SUBMIT
	INPUT_RESET
	INPUT_BUTTON
	INPUT_IMAGE
)

var inputKindNames = map[InputKind]string{
	INPUT_TEXT:     "text",
	INPUT_PASSWORD: "password",
	INPUT_CHECKBOX: "checkbox",
	INPUT_RADIO:    "radio",
	INPUT_FILE:     "file",
	INPUT_HIDDEN:   "hidden",
	INPUT_SUBMIT:   "submit",
	INPUT_RESET:    "reset",
	INPUT_BUTTON:   "button",
	INPUT_IMAGE:    "image",
}

func (k InputKind) String() string {
	name, ok := inputKindNames[k]
	if !ok {
		return "unknown"
	}
	return name
}

// ParseInputKind maps the `type` attribute of an <input> to its kind, anything
// unrecognized (including "") is treated as text like a browser would.
func ParseInputKind(attr string) InputKind {
	attr = strings.ToLower(strings.TrimSpace(attr))
	for kind, name := range inputKindNames {
		if name == attr {
			return kind
		}
	}
	return INPUT_TEXT
}

// Input is a scraped <input> element.
type Input struct {
	Name  string
	Kind  InputKind
	Value string
}

// SameField reports whether both inputs refer to the same scraped field, the
// value is not considered since it changes during injection.
func (i Input) SameField(other Input) bool {
	return i.Name == other.Name && i.Kind == other.Kind
}

// Select is a scraped <select> element.
type Select struct {
	Name    string
	Options []string

	selected    string
	hasSelected bool
}

func NewSelect(name string, options []string) Select {
	return Select{Name: name, Options: options}
}

func (s Select) Offers(value string) bool {
	return slices.Contains(s.Options, value)
}

// Choose selects `value` if it is one of the options, otherwise the select is
// left untouched. It returns whether the selection was made.
func (s *Select) Choose(value string) bool {
	if !s.Offers(value) {
		return false
	}
	s.selected = value
	s.hasSelected = true
	return true
}

func (s Select) Selected() (string, bool) {
	return s.selected, s.hasSelected
}

// Form is every field scraped from a single page.
type Form struct {
	Inputs  []Input
	Selects []Select
}

// clone returns a deep copy so that injection never aliases the scraped form.
func (f Form) clone() Form {
	inputs := make([]Input, len(f.Inputs))
	copy(inputs, f.Inputs)
	selects := make([]Select, len(f.Selects))
	for i, s := range f.Selects {
		s.Options = slices.Clone(s.Options)
		selects[i] = s
	}
	return Form{Inputs: inputs, Selects: selects}
}
