package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	questKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("quest_key", validateQuestKey); err != nil {
		panic(fmt.Sprintf("failed to register quest_key validator: %v", err))
	}
}

// validateQuestKey accepts lower snake_case identifiers.
func validateQuestKey(fl validator.FieldLevel) bool {
	return questKeyPattern.MatchString(fl.Field().String())
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateCatalog checks every entry's fields and that quest keys are unique.
// All problems are reported together.
func ValidateCatalog(entries []models.CatalogEntry) error {
	var errs []error
	seen := make(map[string]int, len(entries))
	for i := range entries {
		e := &entries[i]
		if err := Validate.Struct(e); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					errs = append(errs, fmt.Errorf("entry %d (%s): field %s failed %q", i, e.QuestKey, fe.Field(), fe.Tag()))
				}
			} else {
				errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			}
		}
		if prev, dup := seen[e.QuestKey]; dup && e.QuestKey != "" {
			errs = append(errs, fmt.Errorf("entry %d: quest_key %q duplicates entry %d", i, e.QuestKey, prev))
		} else {
			seen[e.QuestKey] = i
		}
	}
	return errors.Join(errs...)
}
