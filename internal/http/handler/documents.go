package handler

import (
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docfiling/internal/attachment"
	"docfiling/internal/http/middleware"
	"docfiling/internal/model"
	"docfiling/internal/service"
)

// actorOf returns the caller resolved by middleware.Actor. Without one the
// zero actor is returned and services reject it.
func actorOf(c *fiber.Ctx) model.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func validID(c *fiber.Ctx, param string) (string, bool) {
	id := c.Params(param)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// formUpload opens the optional "file" part. The returned close func is never nil.
func formUpload(c *fiber.Ctx) (*attachment.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		// No file part is fine; the attachment is optional.
		return nil, noop, nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*attachment.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &attachment.Upload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
	}, func() { f.Close() }, nil
}

// CreateDocument files a new document from a multipart form with fields
// title, department_id, document_type_id and an optional file.
//
//	@Summary	Create a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		title				formData	string	true	"Title"
//	@Param		department_id		formData	string	true	"Department"
//	@Param		document_type_id	formData	string	true	"Document type"
//	@Param		file				formData	file	false	"Attachment"
//	@Success	201	{object}	model.Document
//	@Failure	400	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Failure	409	{object}	errorPayload
//	@Router		/api/v1/documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.CreateDocumentInput{
			Title:          c.FormValue("title"),
			DepartmentID:   c.FormValue("department_id"),
			DocumentTypeID: c.FormValue("document_type_id"),
		}
		upload, closeUpload, err := formUpload(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer closeUpload()
		in.Upload = upload

		doc, err := svc.Create(c.UserContext(), in, actorOf(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListAllDocuments returns every document, newest first.
func ListAllDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(docs)
	}
}

func queryInt(c *fiber.Ctx, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// SearchDocuments pages through documents.
//
//	@Summary	Search documents
//	@Tags		documents
//	@Produce	json
//	@Param		search				query	string	false	"Text or YYYY-MM-DD"
//	@Param		status				query	string	false	"Not Filed, Filed or Suspended"
//	@Param		department_id		query	string	false	"Department"
//	@Param		document_type_id	query	string	false	"Document type"
//	@Param		sort_by				query	string	false	"Sort field"
//	@Param		order				query	string	false	"asc, desc, 1 or -1"
//	@Param		page				query	int		false	"Page, from 1"
//	@Param		limit				query	int		false	"Page size, 1-100"
//	@Success	200	{object}	service.DocumentPage
//	@Failure	400	{object}	errorPayload
//	@Router		/api/v1/documents [get]
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, ok := queryInt(c, "page")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		limit, ok := queryInt(c, "limit")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		res, err := svc.Search(c.UserContext(), service.SearchParams{
			Search:         c.Query("search"),
			Status:         c.Query("status"),
			DepartmentID:   c.Query("department_id"),
			DocumentTypeID: c.Query("document_type_id"),
			SortBy:         c.Query("sort_by"),
			Order:          c.Query("order"),
			Page:           page,
			Limit:          limit,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

func FindDocumentsByTitle(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		title, err := url.PathUnescape(c.Params("title"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TITLE", "invalid title")
		}
		docs, err := svc.FindByTitle(c.UserContext(), title)
		if err != nil {
			return err
		}
		return c.JSON(docs)
	}
}

func CountDocumentsByStatus(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "departmentId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		counts, err := svc.CountByStatus(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(counts)
	}
}

// patchFromForm reads an update from multipart form values. Absent fields
// stay nil.
func patchFromForm(c *fiber.Ctx) (model.DocumentPatch, error) {
	var p model.DocumentPatch
	str := func(key string) *string {
		if v, ok := formValue(c, key); ok {
			return &v
		}
		return nil
	}
	date := func(key string) (*time.Time, error) {
		v, ok := formValue(c, key)
		if !ok {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be an RFC 3339 timestamp")
		}
		return &t, nil
	}

	p.Title = str("title")
	p.DepartmentID = str("department_id")
	p.DocumentTypeID = str("document_type_id")
	p.CreatedBy = str("created_by")
	p.FiledBy = str("filed_by")
	p.RefNo = str("ref_no")
	if s := str("status"); s != nil {
		st := model.Status(*s)
		p.Status = &st
	}
	var err error
	if p.CreatedDate, err = date("created_date"); err != nil {
		return p, err
	}
	if p.FiledDate, err = date("filed_date"); err != nil {
		return p, err
	}
	return p, nil
}

// formValue reports whether key was sent at all, distinguishing "" from absent.
func formValue(c *fiber.Ctx, key string) (string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", false
	}
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// UpdateDocument applies a partial update. The body is either JSON or a
// multipart form, which may also carry a replacement file.
//
//	@Summary	Update a document
//	@Tags		documents
//	@Accept		json,multipart/form-data
//	@Produce	json
//	@Param		id		path	string				true	"Document id"
//	@Param		body	body	model.DocumentPatch	false	"Changes"
//	@Success	200	{object}	model.Document
//	@Failure	400	{object}	errorPayload
//	@Failure	403	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Router		/api/v1/documents/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var patch model.DocumentPatch
		var upload *attachment.Upload
		if isMultipart(c) {
			p, err := patchFromForm(c)
			if err != nil {
				return err
			}
			patch = p
			u, closeUpload, err := formUpload(c)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer closeUpload()
			upload = u
		} else if err := c.BodyParser(&patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := svc.Update(c.UserContext(), id, patch, actorOf(c), upload)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

func DeleteDocument(svc service.DocumentService) fiber.Handler {
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

func BulkDeleteDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bulkIDsRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		res, err := svc.BulkDelete(c.UserContext(), req.IDs, actorOf(c))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func BulkUpdateDocumentStatus(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bulkStatusRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		res, err := svc.BulkUpdateStatus(c.UserContext(), req.IDs, req.Status, actorOf(c))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// DownloadAttachment streams the document's file.
func DownloadAttachment(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		obj, err := svc.OpenAttachment(c.UserContext(), id, actorOf(c))
		if err != nil {
			return err
		}
		// Attachment derives a type from the extension; the stored one wins.
		c.Attachment(obj.Filename)
		if obj.ContentType != "" {
			c.Set(fiber.HeaderContentType, obj.ContentType)
		}
		size := -1
		if obj.Size > 0 {
			size = int(obj.Size)
		}
		// fasthttp closes the body once it has been written.
		return c.SendStream(obj.Body, size)
	}
}

func AttachmentURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, ttl, err := svc.AttachmentURL(c.UserContext(), id, actorOf(c))
		if err != nil {
			return err
		}
		return c.JSON(attachmentURLResponse{URL: u, ExpiresIn: int64(ttl.Seconds())})
	}
}
