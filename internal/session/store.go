package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	CookieName = "sessionId"
	userIDKey  = "userId"
)

// Manager tracks which user a browser session belongs to.
type Manager struct {
	store *session.Store
}

// NewManager builds the cookie session store. A nil storage keeps sessions in memory.
func NewManager(storage fiber.Storage, ttl time.Duration, secure bool) *Manager {
	cfg := session.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: "Lax",
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return &Manager{store: session.New(cfg)}
}

// Login binds the request's session to userID and rotates its id.
func (m *Manager) Login(c *fiber.Ctx, userID uint) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(userIDKey, userID)
	return sess.Save()
}

// UserID returns the user bound to the request's session, if any.
func (m *Manager) UserID(c *fiber.Ctx) (uint, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Get(userIDKey).(uint)
	return id, ok && id != 0
}

// Logout destroys the request's session.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
