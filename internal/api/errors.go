package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

var statusByCode = map[string]int{
	models.ErrorCodeInvalidTransition:  fiber.StatusConflict,
	models.ErrorCodeForbidden:          fiber.StatusForbidden,
	models.ErrorCodeValidation:         fiber.StatusBadRequest,
	models.ErrorCodeOverlappingAbsence: fiber.StatusConflict,
	models.ErrorCodeNotFound:           fiber.StatusNotFound,
	models.ErrorCodeConfirmHoliday:     fiber.StatusConflict,
	models.ErrorCodeUnauthorized:       fiber.StatusUnauthorized,
	models.ErrorCodeInternal:           fiber.StatusInternalServerError,
}

// codeByStatus переводит ошибки самого fiber (нет маршрута, неверное тело) в коды API
var codeByStatus = map[int]string{
	fiber.StatusBadRequest:       models.ErrorCodeValidation,
	fiber.StatusUnauthorized:     models.ErrorCodeUnauthorized,
	fiber.StatusForbidden:        models.ErrorCodeForbidden,
	fiber.StatusNotFound:         models.ErrorCodeNotFound,
	fiber.StatusMethodNotAllowed: models.ErrorCodeNotFound,
	fiber.StatusConflict:         models.ErrorCodeInvalidTransition,
}

// ErrorHandler пишет любую ошибку обработчика в формате {"error": {"code", "message"}}
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code, ok := codeByStatus[ferr.Code]
			if !ok {
				code = models.ErrorCodeInternal
			}
			return c.Status(ferr.Code).JSON(errorResponse{Error: errorBody{Code: code, Message: ferr.Message}})
		}

		code := models.ErrorCode(err)
		message := err.Error()
		if code == models.ErrorCodeInternal {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("Request failed")
			message = "internal error"
		}

		return c.Status(statusByCode[code]).JSON(errorResponse{Error: errorBody{Code: code, Message: message}})
	}
}
