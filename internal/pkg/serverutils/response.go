package serverutils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

func ErrorResponse(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts failures into
// a fiber 400 error with a readable field list.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg := "validation failed:"
		for _, fe := range verrs {
			msg += fmt.Sprintf(" %s(%s)", fe.Field(), fe.Tag())
		}
		return fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

// ErrorHandlerMiddleware converts uncaught errors into JSON envelopes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		return ctx.Status(code).JSON(ErrorResponse(err.Error()))
	}
}
