package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wanderlust/internal/cloudinary"
	"wanderlust/internal/config"
	"wanderlust/internal/middleware"
	"wanderlust/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadMaxSizeMB = 5
	WebPQuality            = 80

	ListingMaxWidth  = 800
	ListingMaxHeight = 500
	ProfileSize      = 300

	// Decoded rasters are bounded independently of the compressed size.
	MaxImageSide   = 10000
	MaxImagePixels = 40_000_000
)

const (
	UploadKindListing = "listing"
	UploadKindProfile = "profile"
)

// ImageHost stores encoded images and returns their public location.
type ImageHost interface {
	Configured() bool
	Upload(ctx context.Context, req cloudinary.UploadRequest) (*cloudinary.UploadResult, error)
}

type UploadImageInput struct {
	UserID      uint
	Kind        string
	Filename    string
	ContentType string
	Content     []byte
}

// UploadedImage is the response for a completed upload.
type UploadedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type UploadService struct {
	host               ImageHost
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewUploadService(host ImageHost, cfg *config.Config) *UploadService {
	maxBytes := int64(DefaultUploadMaxSizeMB) * 1024 * 1024
	if cfg != nil {
		maxBytes = cfg.UploadMaxBytes()
	}
	return &UploadService{
		host:               host,
		maxUploadSizeBytes: maxBytes,
		now:                time.Now,
	}
}

// MaxUploadBytes is the largest accepted upload.
func (s *UploadService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

func withinPixelBudget(width, height int) bool {
	if width <= 0 || height <= 0 || width > MaxImageSide || height > MaxImageSide {
		return false
	}
	return int64(width)*int64(height) <= MaxImagePixels
}

// NormalizeUploadKind maps a request's ?type= value to an upload kind.
func NormalizeUploadKind(kind string) string {
	if strings.EqualFold(strings.TrimSpace(kind), UploadKindProfile) {
		return UploadKindProfile
	}
	return UploadKindListing
}

// Upload validates, re-encodes and forwards an image to the image host.
func (s *UploadService) Upload(ctx context.Context, in UploadImageInput) (img *UploadedImage, err error) {
	kind := NormalizeUploadKind(in.Kind)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		middleware.ImageUploads.WithLabelValues(kind, outcome).Inc()
	}()

	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No image file provided")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !hasAllowedImageExtension(in.Filename) {
		return nil, models.NewValidationError("Only image files are allowed!")
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !withinPixelBudget(header.Width, header.Height) {
		return nil, models.NewValidationError(fmt.Sprintf("Image dimensions too large (max %dx%d, %d pixels)", MaxImageSide, MaxImageSide, MaxImagePixels))
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	if s.host == nil || !s.host.Configured() {
		return nil, models.NewConfigError("Image uploads are not configured")
	}

	var out image.Image
	if kind == UploadKindProfile {
		out = fillSquare(decoded, ProfileSize)
	} else {
		out = resizeToFit(decoded, ListingMaxWidth, ListingMaxHeight)
	}
	encoded, err := encodeWebP(out, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	publicID := strconv.FormatUint(uint64(in.UserID), 10) + "_" + strconv.FormatInt(s.now().UnixMilli(), 10)
	res, err := s.host.Upload(ctx, cloudinary.UploadRequest{
		Data:     encoded,
		Filename: publicID + ".webp",
		Folder:   cloudinary.FolderFor(kind),
		PublicID: publicID,
	})
	if err != nil {
		return nil, models.NewUpstreamError("Failed to upload image", err)
	}

	b := out.Bounds()
	return &UploadedImage{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// fillSquare center-crops src to a square and scales it to size x size.
func fillSquare(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	cropped := cropToRect(src, x, y, side, side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Over, nil)
	return dst
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hasAllowedImageExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
