package usercontext

// Shared Locals/session keys used across controllers and middlewares. The
// session keys are written by the account service that issues sessions.
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
	KeyAuthMethod    = "auth_method"
)

// Authentication methods recorded in UserContext.AuthMethod.
const (
	AuthMethodSession = "session"
	AuthMethodAPIKey  = "api_key"
)
