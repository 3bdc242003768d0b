package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperror"
	"docvault/internal/auth"
	"docvault/internal/http/middleware"
)

// successPayload is the envelope of every successful JSON response.
type successPayload struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(successPayload{Success: true, Data: data, Message: message})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON decodes the body into dst and runs struct validation. messages
// maps "field.tag" to the text reported for that failure.
func bindJSON(c *fiber.Ctx, dst any, messages map[string]string) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.BadRequest("Invalid request body").WithErr(err)
	}
	return validateStruct(dst, messages)
}

func validateStruct(v any, messages map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Internal(err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = msg
		}
	}
	return apperror.Validation("", details)
}

func invalidID() error {
	return &apperror.Error{Kind: apperror.KindBadRequest, Code: "INVALID_ID", Message: "Invalid id"}
}

// pathID parses the :id route parameter as a positive integer.
func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidID()
	}
	return id, nil
}

// caller returns the authenticated identity. Routes using it sit behind
// middleware.RequireAuth.
func caller(c *fiber.Ctx) (auth.Identity, error) {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return auth.Identity{}, apperror.Unauthenticated("NO_TOKEN", "No token provided")
	}
	return id, nil
}
