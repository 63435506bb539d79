package auth

import (
	"net/http"
	"strings"
)

// publicPrefixes 无需令牌即可访问的路径前缀
var publicPrefixes = []string{
	"/auth/",
	"/health",
	"/metrics",
	"/api/payment/webhook",
}

func isPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Middleware 返回 Bearer 令牌鉴权中间件。
// 校验通过后把 AuthUser 注入请求上下文供下游处理器使用。
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			claims, err := ParseToken(cfg, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			user := &AuthUser{
				ID:    claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}
