package questiontype

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"survai/internal/model"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	urlPattern    = regexp.MustCompile(`^https?://\S+$`)
	numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

	dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006", "January 2, 2006", "Jan 2, 2006", "2 Jan 2006"}
)

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// TextHandler accepts any free text
type TextHandler struct{}

func (TextHandler) Type() model.QuestionType        { return model.QuestionText }
func (TextHandler) DisplayName() string             { return "Text Response" }
func (TextHandler) Validate(string, []string) error { return nil }
func (TextHandler) FreeText() bool                  { return true }
func (TextHandler) PromptFragment() string {
	return `"text" for open-ended written answers`
}
func (TextHandler) Sample(rng *rand.Rand, _ []string) string {
	samples := []string{
		"Overall things are going well.",
		"There is room for improvement.",
		"No strong opinion either way.",
	}
	return samples[rng.Intn(len(samples))]
}

// ScaleHandler accepts integers in [Min, Max]
type ScaleHandler struct {
	Min, Max int
}

func (ScaleHandler) Type() model.QuestionType { return model.QuestionScale }
func (ScaleHandler) DisplayName() string      { return "Rating Scale" }

func (h ScaleHandler) Validate(value string, _ []string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return errors.New("must be a whole number")
	}
	if n < h.Min || n > h.Max {
		return fmt.Errorf("must be between %d and %d", h.Min, h.Max)
	}
	return nil
}

func (h ScaleHandler) PromptFragment() string {
	return fmt.Sprintf(`"scale" for %d-%d ratings`, h.Min, h.Max)
}

func (h ScaleHandler) Sample(rng *rand.Rand, _ []string) string {
	return strconv.Itoa(h.Min + rng.Intn(h.Max-h.Min+1))
}

// PickOneHandler accepts exactly one of the question options
type PickOneHandler struct{}

func (PickOneHandler) Type() model.QuestionType { return model.QuestionPickOne }
func (PickOneHandler) DisplayName() string      { return "Single Choice" }

func (PickOneHandler) Validate(value string, options []string) error {
	if !contains(options, strings.TrimSpace(value)) {
		return errors.New("must be one of the listed options")
	}
	return nil
}

func (PickOneHandler) PromptFragment() string {
	return `"pick_one" for a single choice from options`
}

func (PickOneHandler) Sample(rng *rand.Rand, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[rng.Intn(len(options))]
}

// PickAnyHandler accepts a comma separated subset of the options
type PickAnyHandler struct{}

func (PickAnyHandler) Type() model.QuestionType { return model.QuestionPickAny }
func (PickAnyHandler) DisplayName() string      { return "Multiple Choice" }

func (PickAnyHandler) Validate(value string, options []string) error {
	for _, part := range strings.Split(value, ",") {
		if !contains(options, strings.TrimSpace(part)) {
			return fmt.Errorf("%q is not a listed option", strings.TrimSpace(part))
		}
	}
	return nil
}

func (PickAnyHandler) PromptFragment() string {
	return `"pick_any" for any number of choices from options`
}

func (PickAnyHandler) Sample(rng *rand.Rand, options []string) string {
	if len(options) == 0 {
		return ""
	}
	var picked []string
	for _, o := range options {
		if rng.Intn(2) == 0 {
			picked = append(picked, o)
		}
	}
	if len(picked) == 0 {
		picked = append(picked, options[rng.Intn(len(options))])
	}
	return strings.Join(picked, ", ")
}

type EmailHandler struct{}

func (EmailHandler) Type() model.QuestionType { return model.QuestionEmail }
func (EmailHandler) DisplayName() string      { return "Email" }
func (EmailHandler) Validate(value string, _ []string) error {
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		return errors.New("must be a valid email")
	}
	return nil
}
func (EmailHandler) PromptFragment() string { return `"email" for an email address` }
func (EmailHandler) Sample(rng *rand.Rand, _ []string) string {
	return fmt.Sprintf("respondent%d@example.com", rng.Intn(1000))
}

type URLHandler struct{}

func (URLHandler) Type() model.QuestionType { return model.QuestionURL }
func (URLHandler) DisplayName() string      { return "URL" }
func (URLHandler) Validate(value string, _ []string) error {
	if !urlPattern.MatchString(strings.TrimSpace(value)) {
		return errors.New("must be a valid URL")
	}
	return nil
}
func (URLHandler) PromptFragment() string { return `"url" for a web address` }
func (URLHandler) Sample(rng *rand.Rand, _ []string) string {
	return fmt.Sprintf("https://example.com/page/%d", rng.Intn(100))
}

type NumberHandler struct{}

func (NumberHandler) Type() model.QuestionType { return model.QuestionNumber }
func (NumberHandler) DisplayName() string      { return "Number" }
func (NumberHandler) Validate(value string, _ []string) error {
	if !numberPattern.MatchString(strings.TrimSpace(value)) {
		return errors.New("must be a number")
	}
	return nil
}
func (NumberHandler) PromptFragment() string { return `"number" for a numeric answer` }
func (NumberHandler) Sample(rng *rand.Rand, _ []string) string {
	return strconv.Itoa(rng.Intn(100))
}

type DateHandler struct{}

func (DateHandler) Type() model.QuestionType { return model.QuestionDate }
func (DateHandler) DisplayName() string      { return "Date" }
func (DateHandler) Validate(value string, _ []string) error {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return nil
		}
	}
	return errors.New("must be a valid date")
}
func (DateHandler) PromptFragment() string { return `"date" for a calendar date` }
func (DateHandler) Sample(rng *rand.Rand, _ []string) string {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, rng.Intn(365)).Format("2006-01-02")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
