package controllers

import (
	"net"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
)

// clientIP resolves the caller's address behind Cloudflare or a reverse
// proxy. The first X-Forwarded-For entry is the original client. Header
// values that are not an IP address are skipped, so the result always fits
// the 45 character ip_address column.
func clientIP(c *fiber.Ctx) string {
	candidates := []string{c.Get("CF-Connecting-IP")}
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	candidates = append(candidates, c.Get("X-Real-IP"), c.IP())

	for _, raw := range candidates {
		if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
			// IPv4-mapped IPv6 (::ffff:192.168.1.1) is stored as IPv4
			return ip.String()
		}
	}
	return ""
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	// drop at most one partial sequence left by the cut
	for i := 0; i < utf8.UTFMax-1 && len(s) > 0; i++ {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

// jsonError writes the error response shape shared by all API handlers.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}
