package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-schedule-api/internal/config"
)

// bodyRecorder tees the response body into buf, keeping at most limit bytes
// (no limit when limit <= 0). written counts every byte sent to the client.
type bodyRecorder struct {
	http.ResponseWriter
	status  int
	buf     bytes.Buffer
	written int64
	limit   int64
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	keep := b
	if r.limit > 0 {
		room := r.limit - int64(r.buf.Len())
		if room < 0 {
			room = 0
		}
		if int64(len(keep)) > room {
			keep = keep[:room]
		}
	}
	r.buf.Write(keep)
	r.written += int64(len(b))
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) truncated() bool {
	return r.limit > 0 && r.written > r.limit
}

// cacheKeyFrom hashes the parts of the request selected by the key strategy
// under cfg.Prefix, so purge can match every entry with prefix:*.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	u := c.Request().URL
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", u.Path}
	case "method_route":
		parts = []string{"method", c.Request().Method, "route", u.Path}
	case "method_route_query":
		parts = []string{"method", c.Request().Method, "route", u.Path, "q", u.RawQuery}
	default: // route_query
		parts = []string{"route", u.Path, "q", u.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// storeScript writes KEYS[2] only while the namespace generation in KEYS[1]
// still equals ARGV[1], the value read before the handler ran.
var storeScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// generationKey lives outside prefix:* so purge never resets it.
func generationKey(prefix string) string {
	return prefix + "-gen"
}

func readGeneration(ctx context.Context, rdb *redis.Client, prefix string) (string, error) {
	gen, err := rdb.Get(ctx, generationKey(prefix)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// cachedResponse is the value stored per key.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	var cr cachedResponse
	if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
		return 0, nil, nil, false
	}
	if cr.Header == nil {
		cr.Header = make(http.Header)
	}
	return cr.Status, cr.Header, cr.Body, true
}

// NewRedisCache caches successful reads and purges the whole namespace after
// a successful write, so a listing never outlives the record it shows.
// Headers and body are stored so clients see identical formatting on a hit.
// A read that overlaps a write is served but not stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				if err := next(c); err != nil {
					return err
				}
				if c.Response().Status == http.StatusOK {
					if err := purge(c.Request().Context(), rdb, cfg.Prefix); err != nil {
						zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("cache purge failed")
					}
				}
				return nil
			}

			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					return replay(c, status, hdr, body)
				}
			}

			gen, err := readGeneration(ctx, rdb, cfg.Prefix)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("cache generation unavailable")
				return next(c)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.truncated() {
				return nil
			}
			payload, err := encodePayload(rec.status, c.Response().Header().Clone(), rec.buf.Bytes())
			if err != nil {
				return nil
			}
			keys := []string{generationKey(cfg.Prefix), key}
			if err := storeScript.Run(context.WithoutCancel(ctx), rdb, keys, gen, payload, ttl.Milliseconds()).Err(); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("cache store failed")
			}
			return nil
		}
	}
}

// perRequestHeader reports headers that are set fresh on every response
// and never replayed from the cache.
func perRequestHeader(k string) bool {
	switch http.CanonicalHeaderKey(k) {
	case "Content-Length", "X-Cache", "X-Request-Id",
		"X-Ratelimit-Limit", "X-Ratelimit-Remaining", "X-Ratelimit-Key":
		return true
	}
	return false
}

// replay writes a stored response.
func replay(c echo.Context, status int, hdr http.Header, body []byte) error {
	out := c.Response().Header()
	for k, vals := range hdr {
		if perRequestHeader(k) {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	out.Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	_, err := c.Response().Write(body)
	return err
}

// purge bumps the namespace generation, then deletes every key under prefix.
func purge(ctx context.Context, rdb *redis.Client, prefix string) error {
	if err := rdb.Incr(ctx, generationKey(prefix)).Err(); err != nil {
		return err
	}
	iter := rdb.Scan(ctx, 0, prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}
