package handler

import (
	"context"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"docfiling/internal/importer"
)

// Importer runs the CSV bulk imports.
type Importer interface {
	ImportDepartments(ctx context.Context, departments, documentTypes, generatedIDs importer.Source) (*importer.DepartmentReport, error)
	ImportDocuments(ctx context.Context, src importer.Source) (*importer.DocumentReport, error)
	ImportAdmins(ctx context.Context, src importer.Source) (*importer.AdminReport, error)
}

var _ Importer = (*importer.Importer)(nil)

// formSource opens the named multipart file as an import source.
func formSource(c *fiber.Ctx, field string) (importer.Source, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return importer.Source{}, func() {}, fiber.NewError(fiber.StatusBadRequest, "file "+field+" is required")
	}
	return openSource(fh)
}

func openSource(fh *multipart.FileHeader) (importer.Source, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return importer.Source{}, func() {}, fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}
	return importer.Source{Name: fh.Filename, Reader: f}, func() { f.Close() }, nil
}

// ImportDepartments loads departments, their document types and the current
// reference counters from three CSV files.
//
//	@Summary	Import departments
//	@Tags		imports
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		departments		formData	file	true	"departments.csv"
//	@Param		document_types	formData	file	true	"document_types.csv"
//	@Param		generated_ids	formData	file	true	"generated_ids.csv"
//	@Success	200	{object}	importer.DepartmentReport
//	@Failure	400	{object}	errorPayload
//	@Failure	403	{object}	errorPayload
//	@Router		/api/v1/imports/departments [post]
func ImportDepartments(imp Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var srcs [3]importer.Source
		for i, field := range []string{"departments", "document_types", "generated_ids"} {
			src, closeSrc, err := formSource(c, field)
			if err != nil {
				return err
			}
			defer closeSrc()
			srcs[i] = src
		}
		rep, err := imp.ImportDepartments(c.UserContext(), srcs[0], srcs[1], srcs[2])
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

func ImportDocuments(imp Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, closeSrc, err := formSource(c, "file")
		if err != nil {
			return err
		}
		defer closeSrc()
		rep, err := imp.ImportDocuments(c.UserContext(), src)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

func ImportAdmins(imp Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, closeSrc, err := formSource(c, "file")
		if err != nil {
			return err
		}
		defer closeSrc()
		rep, err := imp.ImportAdmins(c.UserContext(), src)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}
