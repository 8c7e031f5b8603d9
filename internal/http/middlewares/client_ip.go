package middlewares

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const ctxClientIPKey ctxKey = "client_ip"

// TrustedProxies es la lista de redes cuyos X-Forwarded-For se aceptan.
// Vacía = el header se ignora y vale solo RemoteAddr.
type TrustedProxies struct {
	nets []netip.Prefix
}

// ParseTrustedProxies acepta IPs sueltas o CIDRs.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var tp TrustedProxies
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return TrustedProxies{}, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			tp.nets = append(tp.nets, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return TrustedProxies{}, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		tp.nets = append(tp.nets, netip.PrefixFrom(a, a.BitLen()))
	}
	return tp, nil
}

func (tp TrustedProxies) trusts(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, n := range tp.nets {
		if n.Contains(a) {
			return true
		}
	}
	return false
}

// Resolve devuelve la IP del cliente. X-Forwarded-For se recorre de derecha a
// izquierda solo mientras el salto anterior sea un proxy confiable; la
// primera dirección no confiable es el cliente.
func (tp TrustedProxies) Resolve(r *http.Request) string {
	peer := remoteHost(r)
	if len(tp.nets) == 0 || !tp.trusts(peer) {
		return peer
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			// basura en el header: nos quedamos con el último salto válido
			break
		}
		client = hop
		if !tp.trusts(hop) {
			break
		}
	}
	return client
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithClientIP resuelve la IP del cliente una vez por request. Rate limit y
// logging la leen del contexto.
func WithClientIP(tp TrustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxClientIPKey, tp.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP lee la IP resuelta por WithClientIP; sin ese middleware vale
// RemoteAddr.
func clientIP(r *http.Request) string {
	if v, _ := r.Context().Value(ctxClientIPKey).(string); v != "" {
		return v
	}
	return remoteHost(r)
}
