package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into Echo so handlers
// can call c.Validate on bound request structs.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.  Tag violations come back as a 400
// carrying one message per failing field; domain-level rules are handled
// later by the services as 422s.
func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		msgs := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				msgs[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
			}
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error":  "invalid request body",
			"fields": msgs,
		})
	}
	return nil
}
