package middleware

import (
	"reflect"
	"strings"
	"sync"

	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the domain enum tags to gin's binding validator:
// complaint_type, complaint_status, urgency and user_role. Values are trimmed before
// checking, like the model Parse functions. Empty values pass; combine with
// "required" where a value must be present.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = contextutils.ErrorWithContextf("gin binding validator is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
		registerErr = registerEnumValidators(v)
	})
	return registerErr
}

// jsonTagName makes validation errors report the wire field name
func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func registerEnumValidators(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"complaint_type":   func(s string) bool { return models.ComplaintType(s).IsValid() },
		"complaint_status": func(s string) bool { return models.ComplaintStatus(s).IsValid() },
		"urgency":          func(s string) bool { return models.Urgency(s).IsValid() },
		"user_role":        func(s string) bool { return models.UserRole(s).IsValid() },
	}
	for tag, valid := range rules {
		valid := valid
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			return s == "" || valid(s)
		}); err != nil {
			return contextutils.WrapErrorf(err, "failed to register %s validator", tag)
		}
	}
	return nil
}
