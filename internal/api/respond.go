package api

import (
	"encoding/json"
	"net/http"

	"github.com/PedroLucas003/backendsorriaodonto/internal/middleware"
)

// Códigos estáveis de erro retornados em toda resposta de falha. Datas
// inválidas são reportadas como VALIDATION_FAILED com o campo ofensor.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateKey       = "DUPLICATE_KEY"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL"
)

type errorBody struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Field     string            `json:"field,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeFieldErrors enumera os campos ofensores de uma validação.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]errorBody{"error": {
		Code:    CodeValidationFailed,
		Message: "validation failed",
		Fields:  fields,
	}})
}

func writeDuplicateKey(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusConflict, map[string]errorBody{"error": {
		Code:    CodeDuplicateKey,
		Message: "cpf or email already registered",
		Field:   field,
	}})
}

// genericLoginError nunca distingue "não encontrado" de "senha errada".
func genericLoginError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid cpf or password")
}

// writeInternal devolve o envelope 500 com o request id para correlação no
// log; o detalhe do erro fica só no servidor.
func writeInternal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, map[string]errorBody{"error": {
		Code:      CodeInternal,
		Message:   "internal error",
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}})
}
