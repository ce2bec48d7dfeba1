package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type bulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type bulkStatusRequest struct {
	IDs    []string     `json:"ids" validate:"required,min=1,dive,required"`
	Status model.Status `json:"status" validate:"required,oneof='Not Filed' Filed Suspended"`
}

type departmentStatusRequest struct {
	Names  []string                `json:"names" validate:"required,min=1,dive,required"`
	Status *model.DepartmentStatus `json:"status" validate:"required"`
}

type createAdminRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name"`
}

type attachmentURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// bindJSON decodes the body into dst and validates it.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "invalid request body", err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindInvalidInput, "invalid request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.New(apperr.KindInvalidInput, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
