package api

import (
	"github.com/gofiber/fiber/v2"

	"cra-manager/internal/models"
	"cra-manager/internal/repository"
	"cra-manager/internal/service"
	"cra-manager/internal/workflow"
)

type AbsenceApi struct {
	auth     *Authenticator
	absences *service.AbsenceService
}

func NewAbsenceApi(auth *Authenticator, absences *service.AbsenceService) *AbsenceApi {
	return &AbsenceApi{auth: auth, absences: absences}
}

func (api *AbsenceApi) Setup(router fiber.Router) {
	group := router.Group("/absences", api.auth.Require())

	group.Get("/", api.List)
	group.Get("/me", api.ListMine)
	group.Get("/approved/:consultantId", api.ApprovedForMonth)
	group.Post("/", api.Create)
	group.Post("/:id/decision", api.Decide)
	group.Delete("/:id", api.Delete)
}

type createAbsenceRequest struct {
	ConsultantID string `json:"consultant_id"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Type         string `json:"type" validate:"required,max=64"`
	Reason       string `json:"reason" validate:"max=2000"`
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Comment  string `json:"comment" validate:"max=2000"`
}

func (api *AbsenceApi) List(c *fiber.Ctx) error {
	filter := repository.AbsenceFilter{ConsultantID: c.Query("consultant_id")}
	if s := c.Query("status"); s != "" {
		status, err := models.NormalizeAbsenceStatus(s)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	reqs, err := api.absences.List(c.UserContext(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

func (api *AbsenceApi) ListMine(c *fiber.Ctx) error {
	actor := actorFrom(c)
	reqs, err := api.absences.List(c.UserContext(), actor, repository.AbsenceFilter{ConsultantID: actor.ID})
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

func (api *AbsenceApi) ApprovedForMonth(c *fiber.Ctx) error {
	month, err := models.ParseMonth(c.Query("month"))
	if err != nil {
		return err
	}
	reqs, err := api.absences.ApprovedForMonth(c.UserContext(), actorFrom(c), c.Params("consultantId"), month)
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

func (api *AbsenceApi) Create(c *fiber.Ctx) error {
	var req createAbsenceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return err
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return err
	}

	created, err := api.absences.Create(c.UserContext(), actorFrom(c), workflow.AbsenceDraft{
		ConsultantID: req.ConsultantID,
		StartDate:    start,
		EndDate:      end,
		Type:         req.Type,
		Reason:       req.Reason,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (api *AbsenceApi) Decide(c *fiber.Ctx) error {
	var req decisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	decision, err := workflow.ParseDecision(req.Decision)
	if err != nil {
		return err
	}

	decided, err := api.absences.Decide(c.UserContext(), actorFrom(c), c.Params("id"), decision, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(decided)
}

func (api *AbsenceApi) Delete(c *fiber.Ctx) error {
	if err := api.absences.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
