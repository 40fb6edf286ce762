package workout

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Input is raw field data keyed by field name, as decoded from a JSON body or an HTML form.
// A missing key means the field was not supplied.
type Input map[string]any

// Attributes holds validated values. A nil pointer means the field was not supplied.
type Attributes struct {
	Title       *string
	Description *string
	Trainer     *string
	Date        *time.Time
	Slots       *int
	IsActive    *bool
}

// IsEmpty reports whether no attribute was supplied.
func (a Attributes) IsEmpty() bool {
	return a.Title == nil && a.Description == nil && a.Trainer == nil &&
		a.Date == nil && a.Slots == nil && a.IsActive == nil
}

// Messages is the set of human-readable messages reported per field/rule pair.
type Messages struct {
	TitleRequired       string
	TitleString         string
	TitleMax            string
	DescriptionRequired string
	DescriptionString   string
	TrainerRequired     string
	TrainerString       string
	TrainerMax          string
	DateRequired        string
	DateInvalid         string
	DateFuture          string
	SlotsRequired       string
	SlotsInteger        string
	SlotsMin            string
	SlotsMax            string
	IsActiveBoolean     string
}

// DefaultMessages is the message set reported by the JSON API.
var DefaultMessages = Messages{
	TitleRequired:       "The title field is required.",
	TitleString:         "The title field must be a string.",
	TitleMax:            "The title field must not be greater than 255 characters.",
	DescriptionRequired: "The description field is required.",
	DescriptionString:   "The description field must be a string.",
	TrainerRequired:     "The trainer field is required.",
	TrainerString:       "The trainer field must be a string.",
	TrainerMax:          "The trainer field must not be greater than 255 characters.",
	DateRequired:        "The date field is required.",
	DateInvalid:         "The date field must be a valid date.",
	DateFuture:          "The workout date must be in the future.",
	SlotsRequired:       "The slots field is required.",
	SlotsInteger:        "The slots field must be an integer.",
	SlotsMin:            "There must be at least 1 slot available.",
	SlotsMax:            "The slots field must not be greater than 100.",
	IsActiveBoolean:     "The is_active field must be true or false.",
}

// UIMessages is the message set reported by the interactive pages.
var UIMessages = func() Messages {
	m := DefaultMessages
	m.SlotsMax = "Maximum 100 slots allowed."
	return m
}()

// ValidationErrors maps a field name to the first rule it failed.
type ValidationErrors map[string]string

// Error implements error.
func (v ValidationErrors) Error() string {
	fields := v.Fields()
	if len(fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + v[fields[0]]
}

// Fields returns the failing field names in canonical order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, f := range FieldOrder {
		if _, ok := v[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// ValidateCreate applies the create rule set: every field required except is_active, which defaults to true.
// PRE: now is the instant the request is being validated at
// POST: returns fully populated Attributes when errs is empty
func ValidateCreate(in Input, now time.Time, msgs Messages) (Attributes, ValidationErrors) {
	return validate(in, now, msgs, false)
}

// ValidateUpdate applies the update rule set: every field optional, but a supplied field must
// satisfy the same constraint as on create. The future-date check uses the update's now.
// PRE: now is the instant the request is being validated at
// POST: returns Attributes holding only the supplied fields when errs is empty
func ValidateUpdate(in Input, now time.Time, msgs Messages) (Attributes, ValidationErrors) {
	return validate(in, now, msgs, true)
}

func validate(in Input, now time.Time, msgs Messages, partial bool) (Attributes, ValidationErrors) {
	var attrs Attributes
	errs := ValidationErrors{}

	check := func(field string, fn func(raw any) string) {
		raw, present := in[field]
		if !present && partial {
			return
		}
		if msg := fn(raw); msg != "" {
			errs[field] = msg
		}
	}

	check(FieldTitle, func(raw any) string {
		s, msg := requiredString(raw, msgs.TitleRequired, msgs.TitleString)
		if msg != "" {
			return msg
		}
		if utf8.RuneCountInString(s) > MaxTitleLength {
			return msgs.TitleMax
		}
		attrs.Title = &s
		return ""
	})

	check(FieldDescription, func(raw any) string {
		s, msg := requiredString(raw, msgs.DescriptionRequired, msgs.DescriptionString)
		if msg != "" {
			return msg
		}
		attrs.Description = &s
		return ""
	})

	check(FieldTrainer, func(raw any) string {
		s, msg := requiredString(raw, msgs.TrainerRequired, msgs.TrainerString)
		if msg != "" {
			return msg
		}
		if utf8.RuneCountInString(s) > MaxTrainerLength {
			return msgs.TrainerMax
		}
		attrs.Trainer = &s
		return ""
	})

	check(FieldDate, func(raw any) string {
		if isBlank(raw) {
			return msgs.DateRequired
		}
		d, ok := parseDate(raw)
		if !ok {
			return msgs.DateInvalid
		}
		if !d.After(now) {
			return msgs.DateFuture
		}
		attrs.Date = &d
		return ""
	})

	check(FieldSlots, func(raw any) string {
		if isBlank(raw) {
			return msgs.SlotsRequired
		}
		n, ok := parseInteger(raw)
		if !ok {
			return msgs.SlotsInteger
		}
		if n < MinSlots {
			return msgs.SlotsMin
		}
		if n > MaxSlots {
			return msgs.SlotsMax
		}
		attrs.Slots = &n
		return ""
	})

	raw, present := in[FieldIsActive]
	switch {
	case present:
		b, ok := parseBool(raw)
		if !ok {
			errs[FieldIsActive] = msgs.IsActiveBoolean
			break
		}
		attrs.IsActive = &b
	case !partial:
		active := true
		attrs.IsActive = &active
	}

	if len(errs) > 0 {
		return Attributes{}, errs
	}
	return attrs, nil
}

// requiredString trims the value and reports the required message when nothing is left.
func requiredString(raw any, requiredMsg, typeMsg string) (string, string) {
	if raw == nil {
		return "", requiredMsg
	}
	s, ok := raw.(string)
	if !ok {
		return "", typeMsg
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", requiredMsg
	}
	return s, ""
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	DisplayLayout,
	"2006-01-02T15:04:05",
	FormLayout,
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate accepts the layouts clients and datetime-local inputs send.
// Values without a zone are read as UTC. The result is truncated to whole seconds.
func parseDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC().Truncate(time.Second), true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Truncate(time.Second), true
			}
		}
	}
	return time.Time{}, false
}

func parseInteger(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func parseBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case int:
		return intBool(int64(v))
	case float64:
		if v != math.Trunc(v) {
			return false, false
		}
		return intBool(int64(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return false, false
		}
		return intBool(n)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
	}
	return false, false
}

func intBool(n int64) (bool, bool) {
	switch n {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}

// String renders attributes for log lines.
func (a Attributes) String() string {
	var parts []string
	if a.Title != nil {
		parts = append(parts, FieldTitle)
	}
	if a.Description != nil {
		parts = append(parts, FieldDescription)
	}
	if a.Trainer != nil {
		parts = append(parts, FieldTrainer)
	}
	if a.Date != nil {
		parts = append(parts, FieldDate)
	}
	if a.Slots != nil {
		parts = append(parts, FieldSlots)
	}
	if a.IsActive != nil {
		parts = append(parts, FieldIsActive)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
