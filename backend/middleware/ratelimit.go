package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wonkyeggs/eggtrack/backend/utils"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimit is a fixed-window per-IP limiter for the auth endpoint, where a
// misbehaving client would otherwise burn the Discord token quota.
func RateLimit(max int, window time.Duration) fiber.Handler {
	var mu sync.Mutex
	windows := make(map[string]*rateWindow)

	return func(c *fiber.Ctx) error {
		now := time.Now()

		mu.Lock()
		w, ok := windows[c.IP()]
		if !ok || now.After(w.resetAt) {
			w = &rateWindow{resetAt: now.Add(window)}
			windows[c.IP()] = w
		}
		w.count++
		count := w.count

		// Drop stale windows opportunistically so the map stays small.
		if len(windows) > 1024 {
			for ip, win := range windows {
				if now.After(win.resetAt) {
					delete(windows, ip)
				}
			}
		}
		mu.Unlock()

		if count > max {
			return utils.SendError(c, fiber.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, slow down", nil)
		}
		return c.Next()
	}
}
