package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"cra-manager/internal/models"
	"cra-manager/internal/report"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody разбирает JSON-тело и проверяет теги validate
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return models.Validationf("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
			}
			return models.Validationf("%s", strings.Join(fields, ", "))
		}
		return models.Validationf("%s", err.Error())
	}
	return nil
}

func monthParam(c *fiber.Ctx) (time.Time, error) {
	return models.ParseMonth(c.Params("month"))
}

// dateRange читает from/to (YYYY-MM-DD) или preset; по умолчанию текущий месяц
func dateRange(c *fiber.Ctx, now time.Time) (report.DateRange, error) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		preset := c.Query("preset", "this_month")
		return report.Preset(preset, now)
	}
	if from == "" || to == "" {
		return report.DateRange{}, models.Validationf("both from and to are required")
	}

	start, err := models.ParseDate(from)
	if err != nil {
		return report.DateRange{}, err
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return report.DateRange{}, err
	}
	rng := report.DateRange{From: start, To: end}
	if err := rng.Validate(); err != nil {
		return report.DateRange{}, err
	}
	return rng, nil
}

func gridFilter(c *fiber.Ctx) (report.Filter, error) {
	f := report.Filter{
		Consultant: c.Query("consultant"),
		Client:     c.Query("client"),
		Search:     c.Query("search"),
	}
	if s := c.Query("status"); s != "" {
		status, err := models.NormalizeStatus(s)
		if err != nil {
			return report.Filter{}, err
		}
		f.Status = status
	}
	return f, nil
}
