package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"wanderlust/internal/middleware"
	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 response and returns errResponseWritten.
// The message is derived from the parameter name ("id" -> "Invalid ID",
// "reviewId" -> "Invalid review ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// identity returns the authenticated caller. Routes using it are always
// behind the authentication middleware.
func identity(c *fiber.Ctx) middleware.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// respondError writes err with the status derived from its code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithAppError(c, err)
}

// parseBody decodes the request body into out, writing a 400 on failure.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// flexibleInt accepts a whole JSON number or a numeric string such as "1200".
type flexibleInt struct {
	set   bool
	value int64
}

func (p *flexibleInt) UnmarshalJSON(data []byte) error {
	p.set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		p.set = false
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		p.value = v
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected a number, got %s", raw)
	}
	// 2^63 is exactly representable; anything at or past it overflows int64.
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("expected a whole number, got %s", raw)
	}
	p.value = int64(f)
	return nil
}

func (p flexibleInt) ptr() *int64 {
	if !p.set {
		return nil
	}
	v := p.value
	return &v
}

// flexibleTags accepts a JSON array of strings or a comma separated string.
type flexibleTags struct {
	set    bool
	values []string
}

func (t *flexibleTags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	t.set = true
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &t.values)
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	t.values = strings.Split(joined, ",")
	return nil
}

// flexibleImage accepts either a bare URL string or {"url", "filename"}.
type flexibleImage struct {
	set      bool
	URL      string
	Filename string
}

func (img *flexibleImage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	img.set = true
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			URL      string `json:"url"`
			Filename string `json:"filename"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		img.URL, img.Filename = obj.URL, obj.Filename
		return nil
	}
	return json.Unmarshal(data, &img.URL)
}
