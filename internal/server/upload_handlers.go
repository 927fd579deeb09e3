package server

import (
	"errors"
	"io"

	"wanderlust/internal/cloudinary"
	"wanderlust/internal/featureflags"
	"wanderlust/internal/models"
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/upload?type=listing|profile
// @Summary Upload an image
// @Description Re-encodes the image as WebP and stores it with the image host
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Param type query string false "listing or profile"
// @Success 200 {object} models.Response{data=service.UploadedImage}
// @Failure 400 {object} models.Response
// @Router /upload [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No image file provided"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	// Read one byte past the limit so oversize files are reported as such.
	content, err := io.ReadAll(io.LimitReader(src, s.uploadService.MaxUploadBytes()+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.uploadService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      identity(c).UserID,
		Kind:        c.Query("type"),
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Image uploaded successfully", uploaded)
}

func presence(v string) string {
	if v == "" {
		return "Missing"
	}
	return "Present"
}

// UploadConfig handles GET /api/upload/config. Secrets are reported only as
// present or missing.
func (s *Server) UploadConfig(c *fiber.Ctx) error {
	return models.RespondWithData(c, fiber.StatusOK, "Cloudinary configuration loaded", fiber.Map{
		"cloud_name":    s.config.CloudinaryCloudName,
		"api_key":       presence(s.config.CloudinaryAPIKey),
		"api_secret":    presence(s.config.CloudinaryAPISecret),
		"max_upload_mb": s.uploadService.MaxUploadBytes() / (1024 * 1024),
	})
}

// CloudinarySignature handles GET /api/cloudinary-signature?type=listing|profile
// and returns what a browser needs to upload directly to the image host.
func (s *Server) CloudinarySignature(c *fiber.Ctx) error {
	id := identity(c)
	if !s.featureFlags.Enabled(featureflags.SignedUploads, id.UserID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Route not found"})
	}

	signed, err := s.signer.SignUpload(id.UserID, service.NormalizeUploadKind(c.Query("type")))
	if err != nil {
		if errors.Is(err, cloudinary.ErrNotConfigured) {
			return respondError(c, models.NewConfigError("Cloudinary configuration missing"))
		}
		return respondError(c, models.NewInternalError(err))
	}
	return models.RespondWithData(c, fiber.StatusOK, "Signature generated successfully", signed)
}
