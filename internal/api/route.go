package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// BasePath - префикс всех маршрутов API
const BasePath = "/v1/api"

// Route - группа маршрутов одной области
type Route interface {
	Setup(router fiber.Router)
}

// NewFiberServer создает приложение fiber с единым обработчиком ошибок
func NewFiberServer(logger *logrus.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger),
	})
}

// RegisterRoutes подключает все группы маршрутов под BasePath
func RegisterRoutes(app *fiber.App, routes []Route, logger *logrus.Logger) {
	router := app.Group(BasePath)
	for _, route := range routes {
		route.Setup(router)
	}
	logger.WithField("groups", len(routes)).Info("HTTP routes registered")
}
