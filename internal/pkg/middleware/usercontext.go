package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ClipFox/internal/pkg/session"
	"github.com/ManuelReschke/ClipFox/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context for every request from the
// shared session cookie. Requests without a session stay anonymous and may
// still authenticate later via API key.
func UserContextMiddleware(c *fiber.Ctx) error {
	anonymous := usercontext.UserContext{IsLoggedIn: false, IsAdmin: false}

	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	userID, ok := sessionUserID(sess.Get(usercontext.KeyUserID))
	if !ok {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)
	usercontext.Set(c, usercontext.UserContext{
		UserID:     userID,
		Username:   session.GetSessionValue(c, usercontext.KeyUsername),
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
		AuthMethod: usercontext.AuthMethodSession,
	})
	return c.Next()
}

// sessionUserID accepts the numeric encodings a session store may hand back.
func sessionUserID(v interface{}) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id > 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	case uint64:
		return uint(id), id > 0
	default:
		return 0, false
	}
}
