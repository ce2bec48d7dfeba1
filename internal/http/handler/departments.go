package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"docfiling/internal/service"
)

// CreateDepartment registers a department with its initial document types.
//
//	@Summary	Create a department
//	@Tags		departments
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.CreateDepartmentInput	true	"Department"
//	@Success	201		{object}	model.Department
//	@Failure	400		{object}	errorPayload
//	@Failure	403		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Router		/api/v1/departments [post]
func CreateDepartment(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateDepartmentInput
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		dept, err := svc.Create(c.UserContext(), in, actorOf(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(dept)
	}
}

// ListDepartments returns all departments, or only active ones with ?active=true.
func ListDepartments(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		depts, err := svc.List(c.UserContext(), c.QueryBool("active"))
		if err != nil {
			return err
		}
		return c.JSON(depts)
	}
}

func GetDepartment(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		dept, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(dept)
	}
}

func GetDepartmentByName(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "invalid department name")
		}
		dept, err := svc.GetByName(c.UserContext(), name)
		if err != nil {
			return err
		}
		return c.JSON(dept)
	}
}

// UpdateDepartmentStatus sets the active flag of every named department.
//
//	@Summary	Set department status
//	@Tags		departments
//	@Accept		json
//	@Produce	json
//	@Param		body	body		departmentStatusRequest	true	"Names and status"
//	@Success	200		{object}	map[string]int64
//	@Failure	400		{object}	errorPayload
//	@Failure	403		{object}	errorPayload
//	@Router		/api/v1/departments/status [patch]
func UpdateDepartmentStatus(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req departmentStatusRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		n, err := svc.UpdateStatus(c.UserContext(), req.Names, *req.Status, actorOf(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"updated": n})
	}
}

func DeleteDepartment(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, actorOf(c)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListDocumentTypes(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		types, err := svc.DocumentTypes(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(types)
	}
}

func ListAllDocumentTypes(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := svc.AllDocumentTypes(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(types)
	}
}

func AddDocumentType(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in service.DocumentTypeInput
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		dt, err := svc.AddDocumentType(c.UserContext(), id, in, actorOf(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(dt)
	}
}

func DeleteDocumentType(svc service.DepartmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		typeID, ok := validID(c, "typeId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.DeleteDocumentType(c.UserContext(), id, typeID, actorOf(c)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
