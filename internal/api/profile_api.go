package api

import (
	"github.com/gofiber/fiber/v2"

	"cra-manager/internal/service"
)

type ProfileApi struct {
	auth     *Authenticator
	profiles *service.ProfileService
	actions  *service.ActionLogService
}

func NewProfileApi(auth *Authenticator, profiles *service.ProfileService, actions *service.ActionLogService) *ProfileApi {
	return &ProfileApi{auth: auth, profiles: profiles, actions: actions}
}

func (api *ProfileApi) Setup(router fiber.Router) {
	auth := api.auth.Require()

	router.Get("/profiles/me", auth, api.Me)
	router.Put("/profiles/me/telegram", auth, api.LinkTelegram)
	router.Get("/profiles", auth, api.Roster)
	router.Get("/clients", auth, api.Clients)
	router.Get("/action-log", auth, api.ActionLog)
}

type linkTelegramRequest struct {
	ChatID int64 `json:"chat_id" validate:"required"`
}

func (api *ProfileApi) Me(c *fiber.Ctx) error {
	profile, err := api.profiles.GetProfile(c.UserContext(), actorFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (api *ProfileApi) LinkTelegram(c *fiber.Ctx) error {
	var req linkTelegramRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := api.profiles.LinkTelegram(c.UserContext(), actorFrom(c), req.ChatID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (api *ProfileApi) Roster(c *fiber.Ctx) error {
	profiles, err := api.profiles.Roster(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(profiles)
}

func (api *ProfileApi) Clients(c *fiber.Ctx) error {
	clients, err := api.profiles.Clients(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(clients)
}

func (api *ProfileApi) ActionLog(c *fiber.Ctx) error {
	logs, err := api.actions.ListRecent(c.UserContext(), actorFrom(c), c.QueryInt("limit", service.DefaultActionLogLimit))
	if err != nil {
		return err
	}
	return c.JSON(logs)
}
