package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"studydocs/internal/http/middleware"
	"studydocs/internal/service"
)

// ListDocuments lists every document with limit & offset.
//
// @Summary   List all documents
// @Tags      documents
// @Produce   json
// @Param     limit  query int false "page size" default(10)
// @Param     offset query int false "page offset" default(0)
// @Success   200 {object} service.DocumentListResult
// @Failure   400 {object} errorPayload
// @Failure   403 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), middleware.CallerFromCtx(c), limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// ListMyDocuments lists the calling student's documents.
//
// @Summary   List my documents
// @Tags      documents
// @Produce   json
// @Success   200 {array} model.Document
// @Failure   403 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/my-documents [get]
func ListMyDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.ListMine(c.UserContext(), middleware.CallerFromCtx(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(docs)
	}
}

// ListStudentDocuments lists the documents of one student.
//
// @Summary   List a student's documents
// @Tags      documents
// @Produce   json
// @Param     studentId path string true "student profile id"
// @Success   200 {array} model.Document
// @Failure   403 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/student/{studentId} [get]
func ListStudentDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.ListByOwner(c.UserContext(), middleware.CallerFromCtx(c), c.Params("studentId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(docs)
	}
}

// UploadDocument accepts multipart/form-data with the file under "file". Admins and advisors name
// the student in "studentId"; "type" optionally overrides the media kind.
//
// @Summary   Upload a document
// @Tags      documents
// @Accept    multipart/form-data
// @Produce   json
// @Param     file      formData file   true  "document"
// @Param     studentId formData string false "target student (admin/advisor)"
// @Param     type      formData string false "media kind, defaults to the file extension"
// @Success   201 {object} model.Document
// @Failure   400 {object} errorPayload
// @Failure   403 {object} errorPayload
// @Failure   413 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/upload [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), middleware.CallerFromCtx(c), service.UploadInput{
			Reader:        f,
			Filename:      fh.Filename,
			ContentType:   fh.Header.Get(fiber.HeaderContentType),
			Size:          fh.Size,
			MediaKind:     c.FormValue("type"),
			OwnerOverride: c.FormValue("studentId"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns document metadata by ID.
//
// @Summary   Get document metadata
// @Tags      documents
// @Produce   json
// @Param     id path string true "document id"
// @Success   200 {object} model.Document
// @Failure   403 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docSvc.Get(c.UserContext(), middleware.CallerFromCtx(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the content as an attachment.
//
// @Summary   Download a document
// @Tags      documents
// @Produce   octet-stream
// @Param     id path string true "document id"
// @Success   200 {file} file
// @Success   302 "redirect to a signed URL when the object store is degraded"
// @Failure   403 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/{id}/download [get]
func DownloadDocument(delivery service.DeliveryService) fiber.Handler {
	return deliverDocument(delivery, service.Attachment)
}

// ViewDocument streams the content for display in the browser.
//
// @Summary   View a document inline
// @Tags      documents
// @Produce   octet-stream
// @Param     id path string true "document id"
// @Success   200 {file} file
// @Success   302 "redirect to a signed URL when the object store is degraded"
// @Failure   403 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/{id}/view [get]
func ViewDocument(delivery service.DeliveryService) fiber.Handler {
	return deliverDocument(delivery, service.Inline)
}

func deliverDocument(delivery service.DeliveryService, disposition service.Disposition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := delivery.Deliver(c.UserContext(), middleware.CallerFromCtx(c), c.Params("id"), disposition)
		if err != nil {
			return respondError(c, err)
		}
		return sendDelivery(c, d)
	}
}

// sendDelivery redirects or streams. fasthttp closes the body once it has been written.
func sendDelivery(c *fiber.Ctx, d *service.Delivery) error {
	if d.Redirect() {
		return c.Redirect(d.RedirectURL, fiber.StatusFound)
	}
	c.Set(fiber.HeaderContentType, d.ContentType)
	c.Set(fiber.HeaderContentDisposition, d.ContentDisposition)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	size := int(d.Size)
	if d.Size < 0 {
		size = -1
	}
	return c.SendStream(d.Body, size)
}

// DeleteDocument removes a document by ID.
//
// @Summary   Delete a document
// @Tags      documents
// @Param     id path string true "document id"
// @Success   204
// @Failure   403 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := docSvc.Delete(c.UserContext(), middleware.CallerFromCtx(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
