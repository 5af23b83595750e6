package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/memberclub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/memberclub-backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	addItemReplayTTL  = 24 * time.Hour
	checkoutReplayTTL = 7 * 24 * time.Hour
	// Upper bound for a claimed key whose request never finished.
	inFlightTTL = 30 * time.Second
)

const (
	replayInFlight = "in_flight"
	replayDone     = "done"
)

type idempotentRoute struct {
	method string
	path   string
	ttl    time.Duration
}

var idempotentRoutes = []idempotentRoute{
	{method: http.MethodPost, path: "/api/v1/cart/items", ttl: addItemReplayTTL},
	{method: http.MethodPost, path: "/api/v1/checkout", ttl: checkoutReplayTTL},
}

// replayEntry is what lives under an idempotency key. An in-flight entry only
// carries the fingerprint; a done entry carries the response to replay.
type replayEntry struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency guards add-to-cart and checkout. The key is claimed before the
// handler runs so concurrent duplicates are rejected instead of executed twice.
// Retryable outcomes release the claim so the client can retry with the same key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := lookupIdempotentRoute(r.Method, requestPath(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyHeader+" header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fp := fingerprint(r.Method, route.path, body)
			key := store.IdempotencyKey(memberScope(r, route), clientKey)

			claimed, err := claim(ctx, store, key, fp)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayExisting(ctx, store, logg, w, key, fp)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if retryableStatus(status) {
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "release idempotency key", err)
				}
				return
			}

			done := replayEntry{
				State:       replayDone,
				Fingerprint: fp,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
			}
			if err := finalize(ctx, store, key, done, route.ttl); err != nil {
				logError(ctx, logg, "persist idempotency response", err)
			}
		})
	}
}

// retryableStatus covers server errors, 409 from lock contention and 429 from
// the rate limiter. Key reuse 409s are written before the claim and never get here.
func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError ||
		status == http.StatusConflict ||
		status == http.StatusTooManyRequests
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, fp string) (bool, error) {
	payload, err := json.Marshal(replayEntry{State: replayInFlight, Fingerprint: fp})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(payload), inFlightTTL)
}

// finalize swaps the in-flight claim for the response. A claim that already
// expired is not resurrected.
func finalize(ctx context.Context, store pkgredis.IdempotencyStore, key string, entry replayEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	stored, err := store.SetXX(ctx, key, string(payload), ttl)
	if err != nil {
		return err
	}
	if !stored {
		return errors.New("idempotency claim expired before the response was stored")
	}
	return nil
}

func replayExisting(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, w http.ResponseWriter, key, fp string) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// The claim expired or was released between SetNX and Get.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this key is still being processed"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency key"))
		return
	}

	var entry replayEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency entry"))
		return
	}

	switch {
	case entry.Fingerprint != fp:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case entry.State != replayDone:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this key is still being processed"))
	default:
		entry.writeTo(w)
	}
}

func (e replayEntry) writeTo(w http.ResponseWriter) {
	if e.ContentType != "" {
		w.Header().Set("Content-Type", e.ContentType)
	}
	w.Header().Set("Idempotent-Replay", "true")
	w.WriteHeader(e.Status)
	if body, err := base64.StdEncoding.DecodeString(e.Body); err == nil {
		_, _ = w.Write(body)
	}
}

func fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func memberScope(r *http.Request, route idempotentRoute) string {
	return strings.Join([]string{MemberIDFromContext(r.Context()), route.method, route.path}, "|")
}

// requestPath prefers the chi pattern; mounted routers only expose a wildcard
// prefix before the inner router runs.
func requestPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return strings.TrimSuffix(r.URL.Path, "/")
}

func lookupIdempotentRoute(method, path string) (idempotentRoute, bool) {
	for _, route := range idempotentRoutes {
		if route.method == method && route.path == path {
			return route, true
		}
	}
	return idempotentRoute{}, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
