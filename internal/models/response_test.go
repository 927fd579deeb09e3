package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnprocessableError("missing"), http.StatusUnprocessableEntity},
		{NewUnauthorizedError("who"), http.StatusUnauthorized},
		{NewForbiddenError("no"), http.StatusForbidden},
		{NewNotFoundError("Listing"), http.StatusNotFound},
		{NewConflictError("dup"), http.StatusConflict},
		{NewConfigError("secret"), http.StatusInternalServerError},
		{NewUpstreamError("host", errors.New("timeout")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewNotFoundError("Review")), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func respond(t *testing.T, err error) (int, Response) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return RespondWithAppError(c, err) })

	resp, testErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, testErr)
	defer func() { _ = resp.Body.Close() }()

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRespondWithAppError_HidesInternalCauses(t *testing.T) {
	status, body := respond(t, NewInternalError(errors.New("pq: password authentication failed")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Nil(t, body.Data)
	assert.Equal(t, "Internal server error", body.Error)

	status, body = respond(t, errors.New("raw driver error"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "driver")
}

func TestRespondWithAppError_UpstreamExposesCause(t *testing.T) {
	status, body := respond(t, NewUpstreamError("Failed to upload image", errors.New("cloudinary: 502")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to upload image", body.Message)
	assert.Equal(t, "cloudinary: 502", body.Error)
}

func TestRespondWithData(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithData(c, fiber.StatusCreated, "Successfully added", fiber.Map{"_id": 7})
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, raw["success"])
	assert.Equal(t, "Successfully added", raw["message"])
	assert.NotContains(t, raw, "error")
	assert.NotContains(t, raw, "code")
}
