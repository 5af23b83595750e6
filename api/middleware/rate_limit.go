package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/memberclub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/memberclub-backend/pkg/redis"
)

type windowCounter interface {
	FixedWindow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error)
}

// RateLimitPolicy is a per-member fixed window.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a policy; a zero limit or window disables it.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, limit: limit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) scope(memberID string) string {
	return p.name + ":" + memberID
}

// MemberRateLimit throttles cart mutations per member. Requests without a
// principal pass through, and counter failures are logged and let through.
func MemberRateLimit(policy RateLimitPolicy, counter windowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			memberID := MemberIDFromContext(ctx)
			if memberID == "" {
				next.ServeHTTP(w, r)
				return
			}

			win, err := counter.FixedWindow(ctx, policy.scope(memberID), int64(policy.limit), policy.window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "policy", policy.name), "rate limit unavailable: "+err.Error())
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(policy.limit)-win.Count, 0), 10))
			if win.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"policy":   policy.name,
					"attempts": win.Count,
					"limit":    policy.limit,
				}), "rate limit exceeded")
			}
			w.Header().Set("Retry-After", retryAfterSeconds(win.ResetIn, policy.window))
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many cart changes, slow down"))
		})
	}
}

func retryAfterSeconds(resetIn, window time.Duration) string {
	if resetIn <= 0 {
		resetIn = window
	}
	return strconv.Itoa(max(int(math.Ceil(resetIn.Seconds())), 1))
}
