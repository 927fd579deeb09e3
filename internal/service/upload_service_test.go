package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"strings"
	"testing"
	"time"

	"wanderlust/internal/cloudinary"
	"wanderlust/internal/config"
	"wanderlust/internal/models"
	"wanderlust/internal/testutil"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeWebPSize(t *testing.T, data []byte) image.Point {
	t.Helper()
	img, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Size()
}

func TestUploadService_ListingImageIsLimited(t *testing.T) {
	host := &testutil.ImageHostStub{}
	svc := NewUploadService(host, &config.Config{UploadMaxSizeMB: 5})
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }

	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:      42,
		Kind:        "listing",
		Filename:    "house.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 1600, 800),
	})
	require.NoError(t, err)
	assert.Equal(t, "wanderlust/listings/42_1700000000123", img.PublicID)
	assert.True(t, strings.HasPrefix(img.URL, "https://"))
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 400, img.Height)

	require.Len(t, host.Uploads, 1)
	up := host.Uploads[0]
	assert.Equal(t, cloudinary.ListingsFolder, up.Folder)
	assert.Equal(t, "42_1700000000123", up.PublicID)
	assert.Equal(t, image.Pt(800, 400), decodeWebPSize(t, up.Data))
}

func TestUploadService_ProfileImageIsFilled(t *testing.T) {
	host := &testutil.ImageHostStub{}
	svc := NewUploadService(host, nil)

	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:   7,
		Kind:     "PROFILE",
		Filename: "me.png",
		Content:  testutil.TinyPNG(t, 640, 480),
	})
	require.NoError(t, err)
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 300, img.Height)
	require.Len(t, host.Uploads, 1)
	assert.Equal(t, cloudinary.ProfilesFolder, host.Uploads[0].Folder)
	assert.Equal(t, image.Pt(300, 300), decodeWebPSize(t, host.Uploads[0].Data))
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG without
// touching the pixel data, so only the header claims a large raster.
func withPNGSize(t *testing.T, src []byte, width, height uint32) []byte {
	t.Helper()
	require.Greater(t, len(src), 33)
	require.Equal(t, "IHDR", string(src[12:16]))

	out := append([]byte(nil), src...)
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

const tooLarge = "Image dimensions too large (max 10000x10000, 40000000 pixels)"

func TestUploadService_Rejections(t *testing.T) {
	png := testutil.TinyPNG(t, 10, 10)
	svc := NewUploadService(&testutil.ImageHostStub{}, &config.Config{UploadMaxSizeMB: 1})

	tests := []struct {
		name    string
		in      UploadImageInput
		code    string
		message string
	}{
		{"Empty", UploadImageInput{Filename: "a.png"}, models.CodeValidation, "No image file provided"},
		{"Too Large", UploadImageInput{Filename: "a.png", Content: make([]byte, 2*1024*1024)}, models.CodeValidation, "File too large (max 1MB)"},
		{"Bad Extension", UploadImageInput{Filename: "a.pdf", Content: png}, models.CodeValidation, "Only image files are allowed!"},
		{"Not An Image", UploadImageInput{Filename: "a.png", Content: []byte("hello world")}, models.CodeValidation, "Invalid image type"},
		{"Type Mismatch", UploadImageInput{Filename: "a.png", ContentType: "image/jpeg", Content: png}, models.CodeValidation, "Image content type mismatch"},
		{"Huge Raster", UploadImageInput{Filename: "a.png", Content: withPNGSize(t, png, 12000, 12000)}, models.CodeValidation, tooLarge},
		{"Too Wide", UploadImageInput{Filename: "a.png", Content: withPNGSize(t, png, 20000, 1)}, models.CodeValidation, tooLarge},
		{"Over Pixel Budget", UploadImageInput{Filename: "a.png", Content: withPNGSize(t, png, 8000, 8000)}, models.CodeValidation, tooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.in)
			requireCode(t, err, tt.code)
			assert.Equal(t, tt.message, err.(*models.AppError).Message)
		})
	}
}

func TestUploadService_HostFailures(t *testing.T) {
	png := testutil.TinyPNG(t, 10, 10)

	_, err := NewUploadService(&testutil.ImageHostStub{Disabled: true}, nil).
		Upload(context.Background(), UploadImageInput{Filename: "a.png", Content: png})
	requireCode(t, err, models.CodeConfig)

	_, err = NewUploadService(&testutil.ImageHostStub{Err: errors.New("503 from host")}, nil).
		Upload(context.Background(), UploadImageInput{Filename: "a.png", Content: png})
	requireCode(t, err, models.CodeUpstream)
}

func TestNormalizeUploadKind(t *testing.T) {
	assert.Equal(t, UploadKindProfile, NormalizeUploadKind(" profile "))
	assert.Equal(t, UploadKindListing, NormalizeUploadKind(""))
	assert.Equal(t, UploadKindListing, NormalizeUploadKind("avatar"))
}
