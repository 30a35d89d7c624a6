package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cra-manager/internal/models"
	"cra-manager/pkg/holidays"
)

// SystemApi - публичные маршруты без авторизации
type SystemApi struct{}

func NewSystemApi() *SystemApi {
	return &SystemApi{}
}

func (api *SystemApi) Setup(router fiber.Router) {
	router.Get("/health", api.Health)
	router.Get("/holidays/:year", api.Holidays)
}

type holidayResponse struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (api *SystemApi) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (api *SystemApi) Holidays(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1583 || year > 9999 {
		return models.Validationf("invalid year %q", c.Params("year"))
	}

	list := holidays.ForYear(year)
	result := make([]holidayResponse, 0, len(list))
	for _, h := range list {
		result = append(result, holidayResponse{Date: models.DateKey(h.Date), Name: h.Name})
	}
	return c.JSON(result)
}
