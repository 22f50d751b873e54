package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	plans      = []string{"basic", "premium"}
	creditPack = []string{"credit_1", "credit_5", "credit_12", "credit_30"}
	postTypes  = []string{"seasonal", "fulltime"}
	rateUnits  = []string{"hour", "day", "week", "month", "fixed"}
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("plan", oneOf(plans, true))
	validate.RegisterValidation("credit_pack", oneOf(creditPack, true))
	validate.RegisterValidation("post_type", oneOf(postTypes, false))
	validate.RegisterValidation("rate_unit", oneOf(rateUnits, true))
}

func oneOf(values []string, allowEmpty bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return allowEmpty
		}
		for _, candidate := range values {
			if v == candidate {
				return true
			}
		}
		return false
	}
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + fe.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + fe.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + fe.Param()
		case "gtfield":
			errors[field] = "Value must be after " + fe.Param()
		case "oneof":
			errors[field] = "Must be one of: " + fe.Param()
		case "plan":
			errors[field] = "Invalid plan. Must be: " + strings.Join(plans, ", ")
		case "credit_pack":
			errors[field] = "Invalid pack. Must be: " + strings.Join(creditPack, ", ")
		case "post_type":
			errors[field] = "Invalid type. Must be: " + strings.Join(postTypes, ", ")
		case "rate_unit":
			errors[field] = "Invalid rate unit. Must be: " + strings.Join(rateUnits, ", ")
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}
