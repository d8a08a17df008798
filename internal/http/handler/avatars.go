package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"studydocs/internal/http/middleware"
	"studydocs/internal/service"
)

type avatarResponse struct {
	StudentID string `json:"student_id"`
	AvatarURL string `json:"avatar_url"`
	UpdatedAt string `json:"updated_at"`
}

// UploadAvatar replaces a student's profile picture (multipart field "avatar").
//
// @Summary   Upload a profile picture
// @Tags      avatars
// @Accept    multipart/form-data
// @Produce   json
// @Param     avatar    formData file   true  "image (jpg, png, gif)"
// @Param     studentId formData string false "target student (admin/advisor)"
// @Success   200 {object} avatarResponse
// @Failure   400 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /avatars/upload [post]
func UploadAvatar(avatarSvc service.AvatarService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("avatar")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "avatar is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		profile, err := avatarSvc.ReplaceAvatar(c.UserContext(), middleware.CallerFromCtx(c), service.UploadInput{
			Reader:        f,
			Filename:      fh.Filename,
			ContentType:   fh.Header.Get(fiber.HeaderContentType),
			Size:          fh.Size,
			OwnerOverride: c.FormValue("studentId"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(avatarResponse{
			StudentID: profile.ID,
			AvatarURL: "/avatars/student/" + profile.ID,
			UpdatedAt: profile.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// GetStudentAvatar serves a student's profile picture inline.
//
// @Summary   Get a student's profile picture
// @Tags      avatars
// @Produce   image/png,image/jpeg,image/gif
// @Param     studentId path string true "student profile id"
// @Success   200 {file} file
// @Failure   404 {object} errorPayload
// @Security  BearerAuth
// @Router    /avatars/student/{studentId} [get]
func GetStudentAvatar(delivery service.DeliveryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := delivery.DeliverAvatar(c.UserContext(), middleware.CallerFromCtx(c), c.Params("studentId"))
		if err != nil {
			return respondError(c, err)
		}
		return sendDelivery(c, d)
	}
}
