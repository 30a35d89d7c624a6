package api

import (
	"github.com/gofiber/fiber/v2"

	"cra-manager/internal/models"
	"cra-manager/internal/service"
	"cra-manager/internal/workflow"
)

type CRAApi struct {
	auth *Authenticator
	cra  *service.CRAService
}

func NewCRAApi(auth *Authenticator, cra *service.CRAService) *CRAApi {
	return &CRAApi{auth: auth, cra: cra}
}

func (api *CRAApi) Setup(router fiber.Router) {
	router.Get("/link/cra-signature/validate", api.ValidateSignatureLink)

	group := router.Group("/cra", api.auth.Require())

	group.Get("/", api.List)
	group.Get("/month/:month/grid", api.MonthGrid)
	group.Put("/month/:month/days/:date", api.SetDay)
	group.Delete("/month/:month/days", api.Clear)
	group.Post("/month/:month/fill", api.Fill)
	group.Put("/month/:month/comment", api.UpdateNotes)
	group.Get("/:id", api.Get)
	group.Delete("/:id", api.Delete)
	group.Post("/:id/transitions", api.Transition)
}

type signatureLinkResponse struct {
	UserID string           `json:"user_id"`
	CRAID  string           `json:"cra_id"`
	Month  string           `json:"month"`
	Status models.CRAStatus `json:"status"`
}

type transitionRequest struct {
	Action         string `json:"action" validate:"required,oneof=submit validate request_revision request_signature sign"`
	Reason         string `json:"reason" validate:"max=2000"`
	SignatureText  string `json:"signature_text" validate:"max=200"`
	SignatureImage string `json:"signature_image"`
}

type setDayRequest struct {
	// null снимает отметку дня
	Status         *string `json:"status" validate:"omitempty,oneof=worked_1 worked_0_5 off"`
	ConfirmHoliday bool    `json:"confirm_holiday"`
}

type notesRequest struct {
	Comment             *string `json:"comment" validate:"omitempty,max=5000"`
	HideHeader          *bool   `json:"hide_header"`
	HideClientSignature *bool   `json:"hide_client_signature"`
}

func (api *CRAApi) List(c *fiber.Ctx) error {
	scope, err := service.ParseScope(c.Query("scope"))
	if err != nil {
		return err
	}
	reports, err := api.cra.ListReports(c.UserContext(), actorFrom(c), scope, c.Query("consultant_id"))
	if err != nil {
		return err
	}
	return c.JSON(reports)
}

func (api *CRAApi) Get(c *fiber.Ctx) error {
	report, err := api.cra.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (api *CRAApi) Delete(c *fiber.Ctx) error {
	if err := api.cra.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (api *CRAApi) Transition(c *fiber.Ctx) error {
	var req transitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return err
	}

	report, err := api.cra.Transition(c.UserContext(), actorFrom(c), c.Params("id"), action, workflow.TransitionInput{
		Reason:         req.Reason,
		SignatureText:  req.SignatureText,
		SignatureImage: req.SignatureImage,
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (api *CRAApi) MonthGrid(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}
	view, err := api.cra.MonthView(c.UserContext(), actorFrom(c), c.Query("consultant_id"), month)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (api *CRAApi) SetDay(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}
	date, err := models.ParseDate(c.Params("date"))
	if err != nil {
		return err
	}

	var req setDayRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var status *models.DayStatus
	if req.Status != nil {
		s, err := models.ParseDayStatus(*req.Status)
		if err != nil {
			return err
		}
		status = &s
	}

	report, err := api.cra.SetDay(c.UserContext(), actorFrom(c), month, date, status, req.ConfirmHoliday)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (api *CRAApi) Fill(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}
	report, err := api.cra.Fill(c.UserContext(), actorFrom(c), month)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (api *CRAApi) Clear(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}
	report, err := api.cra.Clear(c.UserContext(), actorFrom(c), month)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (api *CRAApi) UpdateNotes(c *fiber.Ctx) error {
	month, err := monthParam(c)
	if err != nil {
		return err
	}
	var req notesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	report, err := api.cra.UpdateNotes(c.UserContext(), actorFrom(c), month, req.Comment, workflow.PrintOptions{
		HideHeader:          req.HideHeader,
		HideClientSignature: req.HideClientSignature,
	})
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// ValidateSignatureLink проверяет ссылку на подпись из уведомления; маршрут публичный
func (api *CRAApi) ValidateSignatureLink(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return models.Validationf("token is required")
	}
	consultantID, reportID, err := api.auth.ParseSignatureToken(token)
	if err != nil {
		return err
	}
	rep, err := api.cra.SignatureTarget(c.UserContext(), consultantID, reportID)
	if err != nil {
		return err
	}
	return c.JSON(signatureLinkResponse{
		UserID: rep.ConsultantID,
		CRAID:  rep.ID,
		Month:  models.MonthKey(rep.Month),
		Status: rep.Status,
	})
}
