package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PedroLucas003/backendsorriaodonto/internal/auth"
	"github.com/PedroLucas003/backendsorriaodonto/internal/cache"
	"github.com/PedroLucas003/backendsorriaodonto/internal/config"
	"github.com/PedroLucas003/backendsorriaodonto/internal/crypto"
	"github.com/PedroLucas003/backendsorriaodonto/internal/repo"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	Pool         *pgxpool.Pool
	Cfg          *config.Config
	Cache        *cache.TTL
	hashPassword func(string) (string, error)
}

func (h *Handler) SetHashPassword(fn func(string) (string, error)) { h.hashPassword = fn }

type LoginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Login autentica por (CPF, senha). O CPF é normalizado para a forma
// canônica antes da busca; a resposta de falha é sempre a mesma,
// exista ou não a conta.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return
	}
	req.Password = strings.TrimSpace(req.Password)
	cpf := crypto.FormatCPF(req.CPF)
	if cpf == "" || req.Password == "" {
		genericLoginError(w)
		return
	}
	p, err := repo.PatientByCPF(r.Context(), h.Pool, cpf)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			genericLoginError(w)
			return
		}
		writeInternal(w, r)
		return
	}
	if !auth.CheckPassword(p.PasswordHash, req.Password) {
		genericLoginError(w)
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, p.ID.String(), p.Role, h.Cfg.TokenTTL)
	if err != nil {
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(h.Cfg.TokenTTL),
		User: UserInfo{
			ID:       p.ID.String(),
			FullName: p.FullName,
			Email:    p.Email,
			Role:     p.Role,
		},
	})
}

type RefreshRequest struct {
	Token string `json:"token"`
}

// Refresh aceita um token expirado porém com assinatura válida e emite um
// novo com TTL cheio. Assinatura inválida ou token malformado continuam
// rejeitados.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return
	}
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
			raw = strings.TrimSpace(ah[7:])
		}
	}
	if raw == "" {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "token required")
		return
	}
	claims, err := auth.ParseJWTAllowExpired(h.Cfg.JWTSecret, raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, claims.UserID, claims.Role, h.Cfg.TokenTTL)
	if err != nil {
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     tok,
		"expiresAt": time.Now().Add(h.Cfg.TokenTTL),
	})
}
