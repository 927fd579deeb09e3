package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"wanderlust/internal/config"
	"wanderlust/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) upload(path, token, filename, contentType string, content []byte) (*http.Response, envelope) {
	h.t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if content != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(h.t, err)
		_, err = part.Write(content)
		require.NoError(h.t, err)
	} else {
		require.NoError(h.t, w.WriteField("note", "no file"))
	}
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return h.send(req)
}

func TestUploadImage(t *testing.T) {
	h := newHarness(t)
	userID, token := h.signup("up@b.com", "Up")

	resp, env := h.upload("/api/upload?type=listing", token, "cabin.png", "image/png", testutil.TinyPNG(t, 40, 30))
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	assert.Equal(t, "Image uploaded successfully", env.Message)

	var uploaded struct {
		URL      string `json:"url"`
		PublicID string `json:"public_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	assert.Contains(t, uploaded.URL, "https://res.cloudinary.test/image/upload/wanderlust/listings/")
	require.Len(t, h.host.Uploads, 1)
	assert.Equal(t, "wanderlust/listings", h.host.Uploads[0].Folder)
	assert.Contains(t, h.host.Uploads[0].PublicID, itoa(userID)+"_")

	resp, _ = h.upload("/api/upload?type=profile", token, "me.png", "image/png", testutil.TinyPNG(t, 10, 10))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, h.host.Uploads, 2)
	assert.Equal(t, "wanderlust/profiles", h.host.Uploads[1].Folder)
}

func TestUploadImage_Rejections(t *testing.T) {
	h := newHarness(t)
	_, token := h.signup("reject@b.com", "Reject")

	resp, env := h.upload("/api/upload", token, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No image file provided", env.Message)

	resp, env = h.upload("/api/upload", token, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only image files are allowed!", env.Message)

	resp, _ = h.upload("/api/upload", token, "fake.png", "image/png", []byte("definitely not a png"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, h.host.Uploads)
}

func TestUploadConfig(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.CloudinaryAPISecret = "" })
	_, token := h.signup("cfg@b.com", "Cfg")

	resp, env := h.do(http.MethodGet, "/api/upload/config", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "demo", data["cloud_name"])
	assert.Equal(t, "Present", data["api_key"])
	assert.Equal(t, "Missing", data["api_secret"])
	assert.NotContains(t, string(env.Data), "key-123")
}

func TestCloudinarySignature(t *testing.T) {
	t.Run("signed", func(t *testing.T) {
		h := newHarness(t)
		userID, token := h.signup("sig@b.com", "Sig")

		resp, env := h.do(http.MethodGet, "/api/cloudinary-signature?type=profile", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
		assert.Equal(t, "Signature generated successfully", env.Message)

		var signed struct {
			Timestamp int64  `json:"timestamp"`
			Signature string `json:"signature"`
			Folder    string `json:"folder"`
			PublicID  string `json:"public_id"`
			APIKey    string `json:"api_key"`
			CloudName string `json:"cloud_name"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &signed))
		assert.Equal(t, "wanderlust/profiles", signed.Folder)
		assert.Equal(t, "key-123", signed.APIKey)
		assert.Equal(t, "demo", signed.CloudName)
		assert.Len(t, signed.Signature, 40)
		assert.Contains(t, signed.PublicID, itoa(userID)+"_")
		assert.Positive(t, signed.Timestamp)
	})

	t.Run("missing credentials", func(t *testing.T) {
		h := newHarness(t, func(cfg *config.Config) { cfg.CloudinaryAPISecret = "" })
		_, token := h.signup("nosig@b.com", "NoSig")

		resp, env := h.do(http.MethodGet, "/api/cloudinary-signature", nil, token)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Cloudinary configuration missing", env.Message)
	})

	t.Run("flag off", func(t *testing.T) {
		h := newHarness(t, func(cfg *config.Config) { cfg.FeatureFlags = "signed_uploads=off" })
		_, token := h.signup("flag@b.com", "Flag")

		resp, _ := h.do(http.MethodGet, "/api/cloudinary-signature", nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("requires auth", func(t *testing.T) {
		h := newHarness(t)
		resp, _ := h.do(http.MethodGet, "/api/cloudinary-signature", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
