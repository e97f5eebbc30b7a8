package project

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fyp/core"
)

var (
	decisionTag  = "decision"
	decisionText = "decision must be one of: approve, reject, request-changes"

	stageText = "stage must be one of: initial-defense, srs-sds, final"

	docTypeTag  = "doctype"
	docTypeText = "document type must be one of: proposal, ppt, srs, sds, final-ppt"

	meetingStatusTag  = "meetingstatus"
	meetingStatusText = "meeting_status must be one of: " + strings.Join(MeetingStatuses, ", ")
)

// InitValidators registers the project validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(decisionTag, decisionValidation)
	core.RegisterCustomTranslation(validate, translator, decisionTag, decisionText)

	_ = validate.RegisterValidation(docTypeTag, docTypeValidation)
	core.RegisterCustomTranslation(validate, translator, docTypeTag, docTypeText)

	_ = validate.RegisterValidation(meetingStatusTag, meetingStatusValidation)
	core.RegisterCustomTranslation(validate, translator, meetingStatusTag, meetingStatusText)
}

// Custom Validators

func decisionValidation(fl validator.FieldLevel) bool {
	d := Decision(fl.Field().String())
	for _, dec := range AllDecisions {
		if d == dec {
			return true
		}
	}
	return false
}

func docTypeValidation(fl validator.FieldLevel) bool {
	_, ok := ParseDocType(fl.Field().String())
	return ok
}

func meetingStatusValidation(fl validator.FieldLevel) bool {
	return contains(MeetingStatuses, fl.Field().String())
}
