package api

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrInvalidPhone  = errors.New("invalid phone")
	ErrInvalidDate   = errors.New("invalid date")
	ErrValueRequired = errors.New("value required")
	ErrValueInvalid  = errors.New("value is not a number")
)

// emailRegex valida formato de e-mail (uma @ e domínio com ponto).
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// weightRegex: número com até duas casas decimais (ex.: 70.5).
var weightRegex = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// phoneRegex aceita entrada com ou sem máscara: (NN) NNNNN-NNNN, NN NNNN NNNN etc.
var phoneRegex = regexp.MustCompile(`^\(?\d{2}\)?[\s-]?\d{4,5}[\s-]?\d{4}$`)

// PaymentMethods é o conjunto fechado de modalidades de pagamento.
var PaymentMethods = map[string]bool{
	"Cash":        true,
	"Credit Card": true,
	"Debit Card":  true,
	"PIX":         true,
	"Insurance":   true,
	"Bank Slip":   true,
}

// HabitFrequencies: frequência de fumo/álcool. Vazio significa "não informado".
var HabitFrequencies = map[string]bool{
	"":             true,
	"Never":        true,
	"Rarely":       true,
	"Occasionally": true,
	"Frequently":   true,
	"Daily":        true,
}

var Roles = map[string]bool{
	"user":      true,
	"admin":     true,
	"clinician": true,
}

func ValidateEmailRegex(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizePhone valida e converte para a forma canônica
// (NN) NNNNN-NNNN ou (NN) NNNN-NNNN.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	digits := onlyDigits(phone)
	switch len(digits) {
	case 10:
		return "(" + digits[0:2] + ") " + digits[2:6] + "-" + digits[6:10], nil
	case 11:
		return "(" + digits[0:2] + ") " + digits[2:7] + "-" + digits[7:11], nil
	}
	return "", ErrInvalidPhone
}

func ValidWeight(w string) bool {
	return w == "" || weightRegex.MatchString(w)
}

// ParseDate aceita somente YYYY-MM-DD. Nunca coage datas inválidas para "agora".
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDate
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", ErrInvalidDate
	}
	return s, nil
}

// ParseMoney normaliza um valor monetário vindo do JSON: número ou string em
// formato pt-BR ("1.234,56") ou en-US ("1234.56"). Ausência, string vazia ou
// resultado não numérico é falha de validação, nunca zero silencioso.
func ParseMoney(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ErrValueRequired
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ErrValueInvalid
	}
	return parseMoneyString(s)
}

func parseMoneyString(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, ErrValueRequired
	}
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// O separador mais à direita é o decimal; o outro é de milhar.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if strings.Count(s, ",") > 1 {
			return 0, ErrValueInvalid
		}
		s = strings.Replace(s, ",", ".", 1)
	case hasDot:
		// Vários pontos só podem ser separadores de milhar.
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrValueInvalid
	}
	return num, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
