package mastery

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
)

// TriggerRequest is the caller's description of one batch.
type TriggerRequest struct {
	ScopeKind      string `json:"scope_kind" validate:"required,oneof=experience syllabus program section"`
	ScopeID        string `json:"scope_id" validate:"required,uuid"`
	MasteryModelID string `json:"mastery_model_id" validate:"required,uuid"`
	SchoolYearID   string `json:"school_year_id,omitempty" validate:"omitempty,uuid"`
	Quarter        *int   `json:"quarter,omitempty" validate:"omitempty,min=1,max=4"`
	Term           string `json:"term,omitempty" validate:"omitempty,max=64"`
	SnapshotDate   string `json:"snapshot_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ReviewRequest carries one reviewer decision. Action specific requirements
// are checked by the workflow, not by tags.
type ReviewRequest struct {
	Action                string `json:"action" validate:"required,oneof=approve request_changes override"`
	ReviewerNotes         string `json:"reviewer_notes,omitempty" validate:"max=4000"`
	OverrideLevelID       string `json:"override_level_id,omitempty" validate:"omitempty,uuid"`
	OverrideJustification string `json:"override_justification,omitempty" validate:"max=4000"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs tag validation and reports failures keyed by json name.
func validateStruct(op string, v any) error {
	err := requestValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Wrap(domain.CodeInternal, op, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describeFieldError(fe)
	}
	return domain.ValidationFailed(op, fields)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return "must be a uuid"
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "invalid"
	}
}
