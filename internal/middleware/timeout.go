package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout cancela o context da request após timeoutSec segundos. As queries
// pgx respeitam ctx, então uma request lenta devolve a conexão ao pool em vez
// de segurá-la. Zero ou negativo desliga o limite.
func Timeout(timeoutSec int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeoutSec <= 0 {
			return next
		}
		d := time.Duration(timeoutSec) * time.Second
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
