package middlewares

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/rate"
)

// KeyFunc deriva una key de rate limit del request. "" = no aplica a este
// request y no cuenta.
type KeyFunc func(r *http.Request) string

// ByClientIP usa la IP resuelta por WithClientIP.
func ByClientIP(r *http.Request) string { return "ip:" + clientIP(r) }

// ByJSONField usa un campo string del body JSON, pasado por normalize. El
// body se vuelve a dejar intacto para el handler.
func ByJSONField(field string, normalize func(string) string) KeyFunc {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes+1))
		rest := r.Body
		r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), rest), Closer: rest}
		if err != nil || len(raw) > maxKeyBodyBytes {
			return ""
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) != nil {
			return ""
		}
		var v string
		if json.Unmarshal(fields[field], &v) != nil {
			return ""
		}
		if v = normalize(v); v == "" {
			return ""
		}
		return field + ":" + v
	}
}

const maxKeyBodyBytes = 1 << 20

type readCloser struct {
	io.Reader
	io.Closer
}

// WithRateLimit cuenta un hit por cada key y rechaza si cualquiera se pasó;
// sin keys limita por IP del cliente. bucket distingue endpoints que comparten
// limiter. Si el limiter falla el request pasa.
func WithRateLimit(l rate.Limiter, bucket string, keys ...KeyFunc) Middleware {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if len(keys) == 0 {
		keys = []KeyFunc{ByClientIP}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := allowAll(r, l, bucket, keys)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter failed, allowing request",
					logger.Component("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
			}
			if !res.Allowed {
				secs := int(res.RetryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logger.From(r.Context()).Info("rate limited",
					logger.Component("rate"), logger.String("bucket", bucket))
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}

// allowAll consulta cada key y devuelve el resultado más restrictivo.
func allowAll(r *http.Request, l rate.Limiter, bucket string, keys []KeyFunc) (rate.Result, error) {
	var out rate.Result
	first := true
	for _, key := range keys {
		k := key(r)
		if k == "" {
			continue
		}
		res, err := l.Allow(r.Context(), bucket+":"+k)
		if err != nil {
			return rate.Result{}, err
		}
		switch {
		case first:
			out = res
		case !res.Allowed && (out.Allowed || res.RetryAfter > out.RetryAfter):
			out = res
		case out.Allowed && res.Allowed && res.Remaining < out.Remaining:
			out = res
		}
		first = false
	}
	if first {
		out.Allowed = true
	}
	return out, nil
}
