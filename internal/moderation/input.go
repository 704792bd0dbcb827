package moderation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

// Field bounds, shared with the HTTP binding tags. The minimum lengths
// apply to admin updates only; a new report needs just non-empty fields.
const (
	TitleMin        = 5
	TitleMax        = 200
	DescriptionMin  = 20
	DescriptionMax  = 2000
	WarningSignsMin = 5
	WarningSignsMax = 1000
	ImageURLMax     = 500
	CommentMin      = 1
	CommentMax      = 500
)

// WarningInput is the author-supplied content of a warning.
type WarningInput struct {
	Title        string
	Description  string
	WarningSigns string
	ImageURL     string
	CategoryID   uint
}

// UpdateInput replaces every editable field of a warning. All fields are
// mandatory; there is no partial update.
type UpdateInput struct {
	WarningInput
	Status models.Status
}

func (in *WarningInput) validate() error {
	return in.check(1, 1, 1)
}

func (in *WarningInput) check(titleMin, descriptionMin, signsMin int) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.WarningSigns = strings.TrimSpace(in.WarningSigns)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if err := checkLength("title", in.Title, titleMin, TitleMax); err != nil {
		return err
	}
	if err := checkLength("description", in.Description, descriptionMin, DescriptionMax); err != nil {
		return err
	}
	if err := checkLength("warningSigns", in.WarningSigns, signsMin, WarningSignsMax); err != nil {
		return err
	}
	if in.ImageURL != "" {
		if len(in.ImageURL) > ImageURLMax {
			return fmt.Errorf("%w: imageUrl must be at most %d characters", models.ErrValidation, ImageURLMax)
		}
		u, err := url.Parse(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: imageUrl must be an absolute http(s) URL", models.ErrValidation)
		}
	}
	if in.CategoryID == 0 {
		return fmt.Errorf("%w: categoryId must be a positive number", models.ErrValidation)
	}
	return nil
}

func (in *UpdateInput) validate() error {
	if err := in.WarningInput.check(TitleMin, DescriptionMin, WarningSignsMin); err != nil {
		return err
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: status must be one of %s, %s, %s", models.ErrValidation,
			models.StatusPending, models.StatusApproved, models.StatusRejected)
	}
	return nil
}

func validateComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := checkLength("text", text, CommentMin, CommentMax); err != nil {
		return "", err
	}
	return text, nil
}

func checkLength(field, v string, lo, hi int) error {
	n := utf8.RuneCountInString(v)
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s must be between %d and %d characters", models.ErrValidation, field, lo, hi)
	}
	return nil
}
