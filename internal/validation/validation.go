// Package validation holds the input rule sets applied before any upstream write.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

// MaxTitleLength bounds issue titles, counted in characters.
const MaxTitleLength = 255

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// StatusUpdate is the body of a state transition request.
type StatusUpdate struct {
	StateEvent string `json:"state_event" form:"state_event" validate:"required,oneof=close reopen"`
}

// Validate checks the requested transition. The value must match exactly.
func (s *StatusUpdate) Validate() error {
	return check(s)
}

// Event returns the validated transition.
func (s StatusUpdate) Event() domain.StateEvent {
	return domain.StateEvent(s.StateEvent)
}

// CommentCreate is the body of a new comment request.
type CommentCreate struct {
	Comment string `json:"comment" form:"comment" validate:"required"`
}

// Validate trims the comment and checks it is not empty.
func (c *CommentCreate) Validate() error {
	c.Comment = strings.TrimSpace(c.Comment)
	return check(c)
}

// IssueForm is the body of issue create and edit requests.
type IssueForm struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description"`
}

// Validate trims the title and checks it is present and bounded.
func (f *IssueForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	return check(f)
}

// Draft converts a validated form into a creation request.
func (f IssueForm) Draft() domain.IssueDraft {
	return domain.IssueDraft{Title: f.Title, Description: f.Description}
}

// Update converts a validated form into an edit request.
func (f IssueForm) Update() domain.IssueUpdate {
	title := f.Title
	description := f.Description
	return domain.IssueUpdate{Title: &title, Description: &description}
}

type listQuery struct {
	Page    *int64 `json:"page" validate:"omitempty,min=1"`
	PerPage *int64 `json:"per_page" validate:"omitempty,min=1,max=100"`
	OrderBy string `json:"order_by" validate:"omitempty,oneof=created_at updated_at priority due_date relative_position label_priority milestone_due popularity weight title"`
	Sort    string `json:"sort" validate:"omitempty,oneof=asc desc"`
}

// ListQuery holds the raw explorer query parameters.
type ListQuery struct {
	Page    string `query:"page"`
	PerPage string `query:"per_page"`
	OrderBy string `query:"order_by"`
	Sort    string `query:"sort"`
}

// Options validates the query and converts it into list options. Empty
// parameters stay unset.
func (q ListQuery) Options() (domain.ListIssuesOptions, error) {
	var errs domain.ValidationErrors
	page, ok := optionalInt(q.Page)
	if !ok {
		errs = append(errs, domain.FieldError{Field: "page", Message: "must be an integer"})
	}
	perPage, ok := optionalInt(q.PerPage)
	if !ok {
		errs = append(errs, domain.FieldError{Field: "per_page", Message: "must be an integer"})
	}

	parsed := listQuery{
		Page:    page,
		PerPage: perPage,
		OrderBy: strings.TrimSpace(q.OrderBy),
		Sort:    strings.TrimSpace(q.Sort),
	}
	if err := check(&parsed); err != nil {
		var verrs domain.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.ListIssuesOptions{}, err
		}
		errs = append(errs, verrs...)
	}
	if len(errs) > 0 {
		return domain.ListIssuesOptions{}, errs
	}

	opts := domain.ListIssuesOptions{OrderBy: parsed.OrderBy, Sort: parsed.Sort}
	if parsed.Page != nil {
		opts.Page = *parsed.Page
	}
	if parsed.PerPage != nil {
		opts.PerPage = *parsed.PerPage
	}
	return opts, nil
}

// IssueID parses a path identifier. Only unsigned base-10 digits with a value
// of at least 1 pass.
func IssueID(raw string) (int64, error) {
	invalid := domain.ValidationErrors{{Field: "iid", Message: "must be a positive integer"}}
	if raw == "" || strings.IndexFunc(raw, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, invalid
	}
	iid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || iid < 1 {
		return 0, invalid
	}
	return iid, nil
}

// BindFailure converts a body decoding error into field errors. Type
// mismatches name the offending field; anything else is reported against
// fallback, the field the request cannot do without.
func BindFailure(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = fallback
		}
		msg := "is invalid"
		if typeErr.Type != nil {
			msg = "must be a " + typeErr.Type.Kind().String()
		}
		return domain.ValidationErrors{{Field: field, Message: msg}}
	}
	return domain.ValidationErrors{{Field: fallback, Message: "could not be read from the request body"}}
}

func optionalInt(raw string) (*int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &value, true
}

func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	out := make(domain.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
