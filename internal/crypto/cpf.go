package crypto

import "regexp"

var onlyDigits = regexp.MustCompile(`[^0-9]`)

// NormalizeCPF remove tudo que não for dígito (11 dígitos).
func NormalizeCPF(cpf string) string {
	return onlyDigits.ReplaceAllString(cpf, "")
}

// FormatCPF converte 11 dígitos para a forma canônica NNN.NNN.NNN-NN.
// Entrada já pontuada é renormalizada antes. Retorna "" se não houver 11 dígitos.
func FormatCPF(cpf string) string {
	d := NormalizeCPF(cpf)
	if len(d) != 11 {
		return ""
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// ValidCPF aceita a forma pontuada ou 11 dígitos.
func ValidCPF(cpf string) bool {
	return FormatCPF(cpf) != ""
}
