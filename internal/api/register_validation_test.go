package api

import (
	"encoding/json"
	"testing"
)

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		FullName:            "Paciente de Teste",
		Email:               "Paciente@Teste.Local",
		CPF:                 "12345678909",
		Phone:               "81999990000",
		Address:             "Rua das Flores, 10",
		BirthDate:           "1990-01-01",
		Password:            "senha123",
		ConfirmPassword:     "senha123",
		DiseaseDetails:      "nenhuma",
		CurrentMedications:  "nenhuma",
		AnesthesiaAllergies: "nenhuma",
		SurgicalHistory:     "nenhum",
		ProcedureName:       "Limpeza",
		ToothFace:           "geral",
		Professional:        "Dra. Teste",
		ProcedureDate:       "2024-01-10",
		PaymentMethod:       "PIX",
		Value:               json.RawMessage(`"1.234,56"`),
	}
}

func TestValidateRegisterDefaultsAndNormalization(t *testing.T) {
	h := &Handler{}
	req := validRegisterRequest()
	p, fields := h.validateRegister(&req)
	if len(fields) != 0 {
		t.Fatalf("unexpected field errors: %v", fields)
	}
	if p.CPF != "123.456.789-09" {
		t.Fatalf("cpf not canonical: %q", p.CPF)
	}
	if p.Email != "paciente@teste.local" {
		t.Fatalf("email not lowercased: %q", p.Email)
	}
	if p.Phone != "(81) 99999-0000" {
		t.Fatalf("phone not normalized: %q", p.Phone)
	}
	if p.Image != "default-profile.jpg" {
		t.Fatalf("image default not applied: %q", p.Image)
	}
	if p.Role != "user" {
		t.Fatalf("role default not applied: %q", p.Role)
	}
	if p.Value != 1234.56 {
		t.Fatalf("value not parsed: %v", p.Value)
	}
}

func TestValidateRegisterAccumulatesErrors(t *testing.T) {
	h := &Handler{}
	req := validRegisterRequest()
	req.Email = "not-an-email"
	req.CPF = "123"
	req.PaymentMethod = "Cheque"
	req.Value = nil
	_, fields := h.validateRegister(&req)
	for _, want := range []string{"email", "cpf", "paymentMethod", "value"} {
		if fields[want] == "" {
			t.Fatalf("expected error for %q, got %v", want, fields)
		}
	}
}

func TestValidateRegisterProcedureBeforeBirth(t *testing.T) {
	h := &Handler{}
	req := validRegisterRequest()
	req.ProcedureDate = "1980-01-01"
	_, fields := h.validateRegister(&req)
	if fields["procedureDate"] == "" {
		t.Fatalf("procedure before birth must fail, got %v", fields)
	}
}

func TestValidateRegisterPasswordMismatch(t *testing.T) {
	h := &Handler{}
	req := validRegisterRequest()
	req.ConfirmPassword = "outra"
	_, fields := h.validateRegister(&req)
	if fields["confirmPassword"] == "" {
		t.Fatalf("expected confirmPassword error, got %v", fields)
	}
	req = validRegisterRequest()
	req.Password, req.ConfirmPassword = "curta", "curta"
	_, fields = h.validateRegister(&req)
	if fields["password"] == "" {
		t.Fatalf("expected short password error, got %v", fields)
	}
}
