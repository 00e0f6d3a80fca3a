package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kittylit/kittylit/internal/domain"
)

// Normalizer validates raw queries against a Domain.
type Normalizer struct {
	dom      Domain
	validate *validator.Validate
	ageTag   string
	genreTag string
	levelTag string
	hintTag  string
}

// NewNormalizer creates a Normalizer. The domain must already be valid.
func NewNormalizer(d Domain) *Normalizer {
	return &Normalizer{
		dom:      d,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		ageTag:   fmt.Sprintf("gte=%d,lte=%d", d.MinAge, d.MaxAge),
		genreTag: "required,oneof=" + strings.Join(d.Genres, " "),
		levelTag: "required,oneof=" + strings.Join(d.ReadingLevels, " "),
		hintTag:  fmt.Sprintf("max=%d", d.MaxHintLength),
	}
}

// Domain returns the domain the normalizer validates against.
func (n *Normalizer) Domain() Domain { return n.dom }

// Normalize validates every field of raw. It either accepts the whole query or
// returns a *domain.ValidationError naming each rejected field.
func (n *Normalizer) Normalize(raw Raw) (Query, error) {
	genre := strings.ToLower(strings.TrimSpace(raw.Genre))
	level := strings.ToLower(strings.TrimSpace(raw.ReadingLevel))
	hint := strings.Join(strings.Fields(raw.Hint), " ")

	var fields []domain.FieldError
	if raw.Age == nil {
		fields = append(fields, domain.FieldError{Field: "age", Message: "age is required"})
	} else if err := n.validate.Var(*raw.Age, n.ageTag); err != nil {
		fields = append(fields, n.fieldErrors("age", err)...)
	}
	if err := n.validate.Var(genre, n.genreTag); err != nil {
		fields = append(fields, n.fieldErrors("genre", err)...)
	}
	if err := n.validate.Var(level, n.levelTag); err != nil {
		fields = append(fields, n.fieldErrors("reading_level", err)...)
	}
	if err := n.validate.Var(hint, n.hintTag); err != nil {
		fields = append(fields, n.fieldErrors("hint", err)...)
	}
	if len(fields) > 0 {
		return Query{}, &domain.ValidationError{Fields: fields}
	}

	age := *raw.Age
	bi := n.dom.BandIndex(age)
	if bi < 0 {
		return Query{}, domain.NewValidationError("age", fmt.Sprintf("age %d is not covered by any age band", age))
	}

	return Query{
		age:          age,
		genre:        genre,
		readingLevel: level,
		hint:         hint,
		key:          Key{Band: n.dom.Bands[bi], BandIndex: bi, Genre: genre, ReadingLevel: level},
	}, nil
}

func (n *Normalizer) fieldErrors(field string, err error) []domain.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.FieldError{{Field: field, Message: field + " is invalid"}}
	}
	out := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.FieldError{Field: field, Message: n.translate(field, fe)})
	}
	return out
}

// translate turns a validator failure into a corrective message for the end user.
func (n *Normalizer) translate(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte", "lte":
		return fmt.Sprintf("%s must be between %d and %d", field, n.dom.MinAge, n.dom.MaxAge)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
