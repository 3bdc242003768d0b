package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperror"
	"docvault/internal/model"
	"docvault/internal/service"
)

type uploadView struct {
	DocumentID int64           `json:"documentId"`
	S3URL      string          `json:"s3Url"`
	Name       string          `json:"name"`
	Category   *model.Category `json:"category"`
}

// updateDocumentRequest leaves omitted fields nil.
type updateDocumentRequest struct {
	Name        *string `json:"name"`
	CategoryID  *int64  `json:"categoryId"`
	Description *string `json:"description"`
}

// UploadDocument stores a multipart upload (fields: file, name, categoryId, description).
// @Summary Upload document
// @Tags documents
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Payload"
// @Param name formData string true "Document name"
// @Param categoryId formData int true "Category ID"
// @Param description formData string false "Description"
// @Success 201 {object} successPayload{data=uploadView}
// @Failure 400 {object} errorPayload
// @Router /documents/upload [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := caller(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return apperror.BadRequest("No file uploaded")
		}
		f, err := fh.Open()
		if err != nil {
			return apperror.BadRequest("Cannot open uploaded file").WithErr(err)
		}
		defer f.Close()

		in := service.UploadInput{
			File:        f,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Name:        c.FormValue("name"),
		}
		if v := strings.TrimSpace(c.FormValue("categoryId")); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return apperror.Validation("", map[string]string{"categoryId": "Category must be a number"})
			}
			in.CategoryID = id
		}
		if form, err := c.MultipartForm(); err == nil {
			if vals, present := form.Value["description"]; present && len(vals) > 0 {
				in.Description = &vals[0]
			}
		}

		doc, err := svc.Upload(c.UserContext(), actor.UserID, in)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusCreated, uploadView{
			DocumentID: doc.ID,
			S3URL:      doc.StorageURL,
			Name:       doc.Name,
			Category:   doc.Category,
		}, "Document uploaded successfully")
	}
}

// ListDocuments returns one page of the caller's documents.
// @Summary List documents
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param category query int false "Category ID"
// @Param search query string false "Case-insensitive name substring"
// @Success 200 {object} service.DocumentPage
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := caller(c)
		if err != nil {
			return err
		}

		q := service.ListQuery{Search: c.Query("search")}
		details := map[string]string{}
		if q.Page, err = queryInt(c, "page"); err != nil {
			details["page"] = "page must be a number"
		}
		if q.Limit, err = queryInt(c, "limit"); err != nil {
			details["limit"] = "limit must be a number"
		}
		if v := c.Query("category"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				details["category"] = "category must be a number"
			} else {
				q.CategoryID = &id
			}
		}
		if len(details) > 0 {
			return apperror.Validation("", details)
		}

		page, err := svc.List(c.UserContext(), actor.UserID, q)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"data":       page.Data,
			"pagination": page.Pagination,
		})
	}
}

// queryInt returns 0 when key is absent.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// GetDocument returns one document owned by the caller.
// @Summary Get document
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} successPayload{data=model.Document}
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := caller(c)
		if err != nil {
			return err
		}
		id, err := pathID(c)
		if err != nil {
			return err
		}
		doc, err := svc.Get(c.UserContext(), actor.UserID, id)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, doc, "")
	}
}

// UpdateDocument changes name, category or description.
// @Summary Update document
// @Tags documents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param body body updateDocumentRequest true "Fields to change"
// @Success 200 {object} successPayload{data=model.Document}
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := caller(c)
		if err != nil {
			return err
		}
		id, err := pathID(c)
		if err != nil {
			return err
		}
		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return apperror.BadRequest("Invalid request body").WithErr(err)
		}
		doc, err := svc.Update(c.UserContext(), actor.UserID, id, service.DocumentUpdate{
			Name:        req.Name,
			CategoryID:  req.CategoryID,
			Description: req.Description,
		})
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, doc, "Document updated successfully")
	}
}

// DeleteDocument removes a document and its payload.
// @Summary Delete document
// @Tags documents
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} successPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := caller(c)
		if err != nil {
			return err
		}
		id, err := pathID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), actor.UserID, id); err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, nil, "Document deleted successfully")
	}
}

// DownloadDocument returns a presigned download link.
// @Summary Download link
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} successPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := caller(c)
		if err != nil {
			return err
		}
		id, err := pathID(c)
		if err != nil {
			return err
		}
		u, err := svc.DownloadURL(c.UserContext(), actor.UserID, id)
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, fiber.Map{"downloadUrl": u}, "")
	}
}
