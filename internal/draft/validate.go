package draft

import (
	"fmt"
	"strings"

	"github.com/dleads/stakeados/internal/model"
)

const (
	// MaxMetaDescriptionLen caps each locale's meta description.
	MaxMetaDescriptionLen = 160
	// MinContentWords is the per-locale minimum for non-empty content.
	MinContentWords = 100
)

// ValidationResult is the validation engine's first-class return value.
// Validation failures are never errors; callers decide whether they block
// a publish action.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  map[string]string `json:"errors"`
}

// Validate computes the full structured error set for a draft. Every rule
// is evaluated independently; nothing short-circuits.
func Validate(d model.Draft) ValidationResult {
	errs := make(map[string]string)

	if !anyLocaleNonEmpty(d.Title) {
		errs["title"] = "a title is required in at least one language"
	}
	if !anyLocaleNonEmpty(d.Content) {
		errs["content"] = "content is required in at least one language"
	}
	if strings.TrimSpace(d.Category) == "" {
		errs["category"] = "a category is required"
	}
	if len(d.Tags) == 0 {
		errs["tags"] = "at least one tag is required"
	}

	for locale, text := range d.Content {
		if strings.TrimSpace(text) == "" {
			continue
		}

		if strings.TrimSpace(d.MetaDescription.Get(locale)) == "" {
			errs["metaDescription_"+string(locale)] = fmt.Sprintf(
				"a meta description is required for %s content", locale)
		}
		if words := CountWords(text); words < MinContentWords {
			errs["contentLength_"+string(locale)] = fmt.Sprintf(
				"%s content has %d words; at least %d are required", locale, words, MinContentWords)
		}
	}

	// The length cap applies to every locale, independent of the
	// emptiness rule above.
	for locale, meta := range d.MetaDescription {
		if len(meta) > MaxMetaDescriptionLen {
			errs["metaDescriptionLength_"+string(locale)] = fmt.Sprintf(
				"%s meta description exceeds %d characters", locale, MaxMetaDescriptionLen)
		}
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

func anyLocaleNonEmpty(lt model.LocalizedText) bool {
	for _, v := range lt {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
