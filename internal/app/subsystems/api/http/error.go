package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var OneOfCaseInsensitive validator.Func = func(fl validator.FieldLevel) bool {
	fieldValue := fl.Field().String()

	for _, allowedValue := range strings.Split(fl.Param(), " ") {
		if strings.EqualFold(fieldValue, allowedValue) {
			return true
		}
	}

	return false
}

// validationError renders binding errors as one readable message per
// invalid field.
func validationError(err error) gin.H {
	var details []string

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			details = append(details, parseFieldError(e))
		}
	} else {
		details = append(details, err.Error())
	}

	return gin.H{
		"error":   "invalid request",
		"details": details,
	}
}

func parseFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The field %s is required.", field)
	case "max":
		return fmt.Sprintf("The field %s must be at most %s.", field, e.Param())
	case "gte":
		return fmt.Sprintf("The field %s must be greater than or equal to %s.", field, e.Param())
	case "lte":
		return fmt.Sprintf("The field %s must be less than or equal to %s.", field, e.Param())
	case "oneof", "oneofci":
		values := strings.Split(e.Param(), " ")
		if len(values) > 1 {
			values[len(values)-1] = "or " + values[len(values)-1]
		}
		return fmt.Sprintf("The field %s must be one of %s.", field, strings.Join(values, ", "))
	default:
		return e.Error()
	}
}
