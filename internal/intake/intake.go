// Package intake validates and normalizes submitted job postings before they
// reach the store. It never writes anything itself.
package intake

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/geotsn/aggeliesergasias/models"
)

// Payload is a candidate listing as submitted by the posting form.
// Field order matters: validation failures are reported in this order.
type Payload struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Category    string `json:"category" validate:"required,category"`
	Description string `json:"description" validate:"required"`
	Phone       string `json:"phone" validate:"required,len=10,number"`
	Email       string `json:"email" validate:"required,contains=@"`
	Salary      string `json:"salary,omitempty"`
	Type        string `json:"type,omitempty" validate:"omitempty,oneof=free premium"`

	Translations map[string]Translation `json:"translations,omitempty"`
}

// Translation is an optional per-locale title and description.
type Translation struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Posting is a validated payload together with its lifecycle branch.
type Posting struct {
	Title        string
	Company      string
	Location     string
	Category     models.Category
	Description  string
	Phone        string
	Email        string
	Salary       string
	Type         models.ListingType
	Translations map[models.Locale]Translation
}

// ValidationError enumerates every offending field by its json name.
type ValidationError struct {
	MissingFields []string `json:"missingFields,omitempty"`
	InvalidFields []string `json:"invalidFields,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, fmt.Sprintf("missing fields: %s", strings.Join(e.MissingFields, ", ")))
	}
	if len(e.InvalidFields) > 0 {
		parts = append(parts, fmt.Sprintf("invalid fields: %s", strings.Join(e.InvalidFields, ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).IsKnown()
	})
	return v
}

// Normalize trims the payload so that whitespace-only values count as missing.
func Normalize(p Payload) Payload {
	p.Title = strings.TrimSpace(p.Title)
	p.Company = strings.TrimSpace(p.Company)
	p.Location = strings.TrimSpace(p.Location)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	p.Description = strings.TrimSpace(p.Description)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	p.Salary = strings.TrimSpace(p.Salary)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	return p
}

// Validate normalizes p and checks it. On failure the returned error is a
// *ValidationError listing every missing and every malformed field.
func Validate(p Payload) (Posting, error) {
	p = Normalize(p)

	verr := &ValidationError{}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Posting{}, errors.Wrap(err, "validating posting")
		}
		verr = toValidationError(verrs)
	}
	for loc := range p.Translations {
		if !translatable(models.Locale(loc)) {
			verr.InvalidFields = append(verr.InvalidFields, "translations")
			break
		}
	}
	if len(verr.MissingFields) > 0 || len(verr.InvalidFields) > 0 {
		return Posting{}, verr
	}

	posting := Posting{
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		Category:    models.Category(p.Category),
		Description: p.Description,
		Phone:       p.Phone,
		Email:       p.Email,
		Salary:      p.Salary,
		Type:        models.ListingFree,
	}
	if p.Type == string(models.ListingPremium) {
		posting.Type = models.ListingPremium
	}
	if len(p.Translations) > 0 {
		posting.Translations = make(map[models.Locale]Translation, len(p.Translations))
		for loc, tr := range p.Translations {
			posting.Translations[models.Locale(loc)] = Translation{
				Title:       strings.TrimSpace(tr.Title),
				Description: strings.TrimSpace(tr.Description),
			}
		}
	}
	return posting, nil
}

func toValidationError(verrs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}
	seen := make(map[string]bool)
	for _, fe := range verrs {
		name := fe.Field()
		if seen[name] {
			continue
		}
		seen[name] = true
		if fe.Tag() == "required" {
			out.MissingFields = append(out.MissingFields, name)
		} else {
			out.InvalidFields = append(out.InvalidFields, name)
		}
	}
	return out
}

func translatable(loc models.Locale) bool {
	switch loc {
	case models.LocaleEN, models.LocaleZH, models.LocaleRU, models.LocaleES, models.LocaleDE:
		return true
	}
	return false
}
