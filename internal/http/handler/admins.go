package handler

import (
	"github.com/gofiber/fiber/v2"

	"docfiling/internal/model"
	"docfiling/internal/service"
)

// Me returns the caller as resolved from the user header.
//
//	@Summary	Current user
//	@Tags		admins
//	@Produce	json
//	@Success	200	{object}	model.Actor
//	@Failure	401	{object}	errorPayload
//	@Router		/api/v1/me [get]
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(actorOf(c))
	}
}

func ListAdmins(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admins, err := svc.List(c.UserContext(), actorOf(c))
		if err != nil {
			return err
		}
		if admins == nil {
			admins = []model.Admin{}
		}
		return c.JSON(admins)
	}
}

func CreateAdmin(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createAdminRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		a, err := svc.Create(c.UserContext(), req.Username, req.FullName, actorOf(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

func DeleteAdmin(svc service.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("username"), actorOf(c)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
