package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

var registerMessages = map[string]string{
	"email.required":     "Invalid email",
	"email.email":        "Invalid email",
	"password.required":  "Password must be at least 6 characters",
	"password.min":       "Password must be at least 6 characters",
	"firstName.required": "First name is required",
	"lastName.required":  "Last name is required",
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"email.required":    "Invalid email",
	"email.email":       "Invalid email",
	"password.required": "Password is required",
}

// Register creates an account and returns a token for it.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body registerRequest true "Account"
// @Success 201 {object} successPayload{data=service.AuthResult}
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := bindJSON(c, &req, registerMessages); err != nil {
			return err
		}
		res, err := svc.Register(c.UserContext(), service.RegisterInput{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusCreated, res, "User registered successfully")
	}
}

// Login exchanges credentials for a token.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} successPayload{data=service.AuthResult}
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := bindJSON(c, &req, loginMessages); err != nil {
			return err
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, res, "Login successful")
	}
}
