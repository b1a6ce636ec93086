package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/PedroLucas003/backendsorriaodonto/internal/auth"
	"github.com/PedroLucas003/backendsorriaodonto/internal/crypto"
	"github.com/PedroLucas003/backendsorriaodonto/internal/pdf"
	"github.com/PedroLucas003/backendsorriaodonto/internal/repo"
)

type ClinicalRecordRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// ClinicalRecordView é o prontuário: projeção agregada somente-leitura de
// dados pessoais, ficha de saúde, hábitos, exames e a linha do tempo de
// procedimentos.
type ClinicalRecordView struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	CPF       string `json:"cpf"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	BirthDate string `json:"birthDate"`
	Image     string `json:"image,omitempty"`

	DiseaseDetails      string `json:"diseaseDetails"`
	CurrentMedications  string `json:"currentMedications"`
	AnesthesiaAllergies string `json:"anesthesiaAllergies"`
	MedicationAllergy   string `json:"medicationAllergy,omitempty"`
	SurgicalHistory     string `json:"surgicalHistory"`
	DentalHistory       string `json:"dentalHistory,omitempty"`
	PostBleeding        string `json:"postBleeding,omitempty"`
	Breathing           string `json:"breathing,omitempty"`
	Weight              string `json:"weight,omitempty"`

	Habits struct {
		SmokingFrequency string `json:"smokingFrequency"`
		AlcoholFrequency string `json:"alcoholFrequency"`
	} `json:"habits"`

	Exams struct {
		BloodExam   string `json:"bloodExam"`
		Coagulation string `json:"coagulation"`
		Healing     string `json:"healing"`
	} `json:"exams"`

	Procedures []repo.TimelineItem `json:"procedures"`
}

func toClinicalRecordView(p *repo.Patient) ClinicalRecordView {
	v := ClinicalRecordView{
		FullName:            p.FullName,
		Email:               p.Email,
		CPF:                 p.CPF,
		Phone:               p.Phone,
		Address:             p.Address,
		BirthDate:           p.BirthDate,
		Image:               p.Image,
		DiseaseDetails:      p.DiseaseDetails,
		CurrentMedications:  p.CurrentMedications,
		AnesthesiaAllergies: p.AnesthesiaAllergies,
		MedicationAllergy:   p.MedicationAllergy,
		SurgicalHistory:     p.SurgicalHistory,
		DentalHistory:       p.DentalHistory,
		PostBleeding:        p.PostBleeding,
		Breathing:           p.Breathing,
		Weight:              p.Weight,
		Procedures:          repo.Timeline(p),
	}
	v.Habits.SmokingFrequency = p.SmokingFrequency
	v.Habits.AlcoholFrequency = p.AlcoholFrequency
	v.Exams.BloodExam = p.BloodExam
	v.Exams.Coagulation = p.Coagulation
	v.Exams.Healing = p.Healing
	return v
}

// authenticatePatient re-valida (cpf, senha) para os acessos de quiosque ao
// prontuário. Não confia em bearer token: o caminho é autoautenticado.
// Toda falha responde de forma idêntica.
func (h *Handler) authenticatePatient(w http.ResponseWriter, r *http.Request) *repo.Patient {
	var req ClinicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return nil
	}
	req.Password = strings.TrimSpace(req.Password)
	cpf := crypto.FormatCPF(req.CPF)
	if cpf == "" || req.Password == "" {
		genericLoginError(w)
		return nil
	}
	p, err := repo.PatientByCPF(r.Context(), h.Pool, cpf)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			genericLoginError(w)
			return nil
		}
		writeInternal(w, r)
		return nil
	}
	if !auth.CheckPassword(p.PasswordHash, req.Password) {
		genericLoginError(w)
		return nil
	}
	return p
}

// GetClinicalRecord devolve o prontuário do paciente autenticado por
// (cpf, senha).
func (h *Handler) GetClinicalRecord(w http.ResponseWriter, r *http.Request) {
	p := h.authenticatePatient(w, r)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, toClinicalRecordView(p))
}

// GetClinicalRecordPDF gera o prontuário em PDF para impressão no balcão,
// com QR code apontando para o app.
func (h *Handler) GetClinicalRecordPDF(w http.ResponseWriter, r *http.Request) {
	p := h.authenticatePatient(w, r)
	if p == nil {
		return
	}
	view := toClinicalRecordView(p)
	doc := pdf.ClinicalRecord{
		FullName:            view.FullName,
		CPF:                 view.CPF,
		Email:               view.Email,
		Phone:               view.Phone,
		Address:             view.Address,
		BirthDate:           view.BirthDate,
		DiseaseDetails:      view.DiseaseDetails,
		CurrentMedications:  view.CurrentMedications,
		AnesthesiaAllergies: view.AnesthesiaAllergies,
		SurgicalHistory:     view.SurgicalHistory,
		DentalHistory:       view.DentalHistory,
		SmokingFrequency:    view.Habits.SmokingFrequency,
		AlcoholFrequency:    view.Habits.AlcoholFrequency,
		BloodExam:           view.Exams.BloodExam,
		Coagulation:         view.Exams.Coagulation,
		Healing:             view.Exams.Healing,
		VerificationURL:     h.Cfg.AppPublicURL,
	}
	for _, item := range view.Procedures {
		doc.Procedures = append(doc.Procedures, pdf.ProcedureLine{
			Date:          item.ProcedureDate,
			Procedure:     item.Procedure,
			ToothFace:     item.ToothFace,
			Professional:  item.Professional,
			PaymentMethod: item.PaymentMethod,
			Value:         item.Value,
			IsPrincipal:   item.IsPrincipal,
		})
	}
	out, err := pdf.BuildClinicalRecordPDF(doc)
	if err != nil {
		writeInternal(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="prontuario.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
