package httpapi

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Request bodies are validated by gin's binding layer (go-playground
// validator); a failed binding never reaches the engine.

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	}
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required,min=3,username"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type signInGoogleRequest struct {
	Token string `json:"token" binding:"required"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type updateEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type updateUsernameRequest struct {
	Username string `json:"username" binding:"required,min=3,username"`
}

type errorResponse struct {
	Error string `json:"error"`
}
