package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PedroLucas003/backendsorriaodonto/internal/auth"
	"github.com/PedroLucas003/backendsorriaodonto/internal/crypto"
	"github.com/PedroLucas003/backendsorriaodonto/internal/repo"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

const patientListCachePrefix = "patients:"

type RegisterRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	CPF             string `json:"cpf"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	BirthDate       string `json:"birthDate"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Image           string `json:"image"`
	Role            string `json:"role"`

	DiseaseDetails      string `json:"diseaseDetails"`
	CurrentMedications  string `json:"currentMedications"`
	AnesthesiaAllergies string `json:"anesthesiaAllergies"`
	MedicationAllergy   string `json:"medicationAllergy"`
	SurgicalHistory     string `json:"surgicalHistory"`
	DentalHistory       string `json:"dentalHistory"`
	BloodExam           string `json:"bloodExam"`
	Coagulation         string `json:"coagulation"`
	Healing             string `json:"healing"`
	PostBleeding        string `json:"postBleeding"`
	Breathing           string `json:"breathing"`
	Weight              string `json:"weight"`

	SmokingFrequency string `json:"smokingFrequency"`
	AlcoholFrequency string `json:"alcoholFrequency"`

	ProcedureName string          `json:"procedure"`
	ToothFace     string          `json:"toothFace"`
	Professional  string          `json:"professional"`
	ProcedureDate string          `json:"procedureDate"`
	PaymentMethod string          `json:"paymentMethod"`
	Value         json.RawMessage `json:"value"`
}

// PatientResponse é a projeção de leitura do paciente. O hash de senha é
// write-only e nunca aparece aqui.
type PatientResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	CPF       string `json:"cpf"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	BirthDate string `json:"birthDate"`
	Image     string `json:"image,omitempty"`
	Role      string `json:"role"`

	DiseaseDetails      string `json:"diseaseDetails"`
	CurrentMedications  string `json:"currentMedications"`
	AnesthesiaAllergies string `json:"anesthesiaAllergies"`
	MedicationAllergy   string `json:"medicationAllergy,omitempty"`
	SurgicalHistory     string `json:"surgicalHistory"`
	DentalHistory       string `json:"dentalHistory,omitempty"`
	BloodExam           string `json:"bloodExam,omitempty"`
	Coagulation         string `json:"coagulation,omitempty"`
	Healing             string `json:"healing,omitempty"`
	PostBleeding        string `json:"postBleeding,omitempty"`
	Breathing           string `json:"breathing,omitempty"`
	Weight              string `json:"weight,omitempty"`

	Habits struct {
		SmokingFrequency string `json:"smokingFrequency"`
		AlcoholFrequency string `json:"alcoholFrequency"`
	} `json:"habits"`

	Procedure     string  `json:"procedure"`
	ToothFace     string  `json:"toothFace"`
	Professional  string  `json:"professional"`
	ProcedureDate string  `json:"procedureDate"`
	PaymentMethod string  `json:"paymentMethod"`
	Value         float64 `json:"value"`

	History   []repo.ProcedureEntry `json:"procedureHistory"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func toPatientResponse(p *repo.Patient) PatientResponse {
	resp := PatientResponse{
		ID:                  p.ID.String(),
		FullName:            p.FullName,
		Email:               p.Email,
		CPF:                 p.CPF,
		Phone:               p.Phone,
		Address:             p.Address,
		BirthDate:           p.BirthDate,
		Image:               p.Image,
		Role:                p.Role,
		DiseaseDetails:      p.DiseaseDetails,
		CurrentMedications:  p.CurrentMedications,
		AnesthesiaAllergies: p.AnesthesiaAllergies,
		MedicationAllergy:   p.MedicationAllergy,
		SurgicalHistory:     p.SurgicalHistory,
		DentalHistory:       p.DentalHistory,
		BloodExam:           p.BloodExam,
		Coagulation:         p.Coagulation,
		Healing:             p.Healing,
		PostBleeding:        p.PostBleeding,
		Breathing:           p.Breathing,
		Weight:              p.Weight,
		Procedure:           p.ProcedureName,
		ToothFace:           p.ToothFace,
		Professional:        p.Professional,
		ProcedureDate:       p.ProcedureDate,
		PaymentMethod:       p.PaymentMethod,
		Value:               p.Value,
		History:             p.History,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if resp.History == nil {
		resp.History = []repo.ProcedureEntry{}
	}
	resp.Habits.SmokingFrequency = p.SmokingFrequency
	resp.Habits.AlcoholFrequency = p.AlcoholFrequency
	return resp
}

// validateRegister valida todos os campos do cadastro e devolve o agregado
// pronto para persistir. Os erros são acumulados por campo, não curto-circuitados.
func (h *Handler) validateRegister(req *RegisterRequest) (*repo.Patient, map[string]string) {
	fields := map[string]string{}
	p := &repo.Patient{}

	p.FullName = strings.TrimSpace(req.FullName)
	if p.FullName == "" {
		fields["fullName"] = "full name is required"
	}

	p.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := ValidateEmailRegex(p.Email); err != nil {
		fields["email"] = "valid email is required"
	}

	if !crypto.ValidCPF(req.CPF) {
		fields["cpf"] = "use NNN.NNN.NNN-NN or 11 digits"
	} else {
		p.CPF = crypto.FormatCPF(req.CPF)
	}

	if phone, err := NormalizePhone(req.Phone); err != nil {
		fields["phone"] = "valid phone is required, e.g. (81) 99999-0000"
	} else {
		p.Phone = phone
	}

	p.Address = strings.TrimSpace(req.Address)
	if p.Address == "" {
		fields["address"] = "address is required"
	}

	if birth, err := ParseDate(req.BirthDate); err != nil {
		fields["birthDate"] = "use YYYY-MM-DD"
	} else if birth >= time.Now().Format("2006-01-02") {
		fields["birthDate"] = "birth date must be in the past"
	} else {
		p.BirthDate = birth
	}

	if len(req.Password) < 6 {
		fields["password"] = "password must have at least 6 characters"
	} else if req.Password != req.ConfirmPassword {
		fields["confirmPassword"] = "passwords do not match"
	}

	p.Image = strings.TrimSpace(req.Image)
	if p.Image == "" {
		p.Image = "default-profile.jpg"
	}

	p.Role = strings.TrimSpace(req.Role)
	if p.Role == "" {
		p.Role = auth.RoleUser
	} else if !Roles[p.Role] {
		fields["role"] = "role must be user, admin or clinician"
	}

	p.DiseaseDetails = strings.TrimSpace(req.DiseaseDetails)
	if p.DiseaseDetails == "" {
		fields["diseaseDetails"] = "disease details are required"
	}
	p.CurrentMedications = strings.TrimSpace(req.CurrentMedications)
	if p.CurrentMedications == "" {
		fields["currentMedications"] = "current medications are required"
	}
	p.AnesthesiaAllergies = strings.TrimSpace(req.AnesthesiaAllergies)
	if p.AnesthesiaAllergies == "" {
		fields["anesthesiaAllergies"] = "anesthesia allergies are required"
	}
	p.SurgicalHistory = strings.TrimSpace(req.SurgicalHistory)
	if p.SurgicalHistory == "" {
		fields["surgicalHistory"] = "surgical history is required"
	}
	p.MedicationAllergy = strings.TrimSpace(req.MedicationAllergy)
	p.DentalHistory = strings.TrimSpace(req.DentalHistory)
	p.BloodExam = strings.TrimSpace(req.BloodExam)
	p.Coagulation = strings.TrimSpace(req.Coagulation)
	p.Healing = strings.TrimSpace(req.Healing)
	p.PostBleeding = strings.TrimSpace(req.PostBleeding)
	p.Breathing = strings.TrimSpace(req.Breathing)

	p.Weight = strings.TrimSpace(req.Weight)
	if !ValidWeight(p.Weight) {
		fields["weight"] = "weight must be a number like 70.5"
	}

	p.SmokingFrequency = strings.TrimSpace(req.SmokingFrequency)
	if !HabitFrequencies[p.SmokingFrequency] {
		fields["smokingFrequency"] = "invalid smoking frequency"
	}
	p.AlcoholFrequency = strings.TrimSpace(req.AlcoholFrequency)
	if !HabitFrequencies[p.AlcoholFrequency] {
		fields["alcoholFrequency"] = "invalid alcohol frequency"
	}

	p.ProcedureName = strings.TrimSpace(req.ProcedureName)
	if p.ProcedureName == "" {
		fields["procedure"] = "procedure is required"
	}
	p.ToothFace = strings.TrimSpace(req.ToothFace)
	if p.ToothFace == "" {
		fields["toothFace"] = "tooth/face is required"
	}
	p.Professional = strings.TrimSpace(req.Professional)
	if p.Professional == "" {
		fields["professional"] = "professional is required"
	}
	p.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if !PaymentMethods[p.PaymentMethod] {
		fields["paymentMethod"] = "invalid payment method"
	}
	if procDate, err := ParseDate(req.ProcedureDate); err != nil {
		fields["procedureDate"] = "use YYYY-MM-DD"
	} else {
		p.ProcedureDate = procDate
	}
	checkDateInvariant(p, fields)

	value, err := ParseMoney(req.Value)
	switch {
	case errors.Is(err, ErrValueRequired):
		fields["value"] = "value required"
	case err != nil:
		fields["value"] = "value is not a number"
	case value < 0:
		fields["value"] = "value cannot be negative"
	default:
		p.Value = value
	}

	return p, fields
}

// RegisterPatient cria o agregado completo. A unicidade de cpf/email é do
// índice do banco: um conflito na escrita vira DUPLICATE_KEY, não crash.
func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return
	}
	p, fields := h.validateRegister(&req)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	hash, err := h.hashPassword(req.Password)
	if err != nil {
		writeInternal(w, r)
		return
	}
	p.PasswordHash = hash
	id, err := repo.CreatePatient(r.Context(), h.Pool, p)
	if err != nil {
		var dup *repo.DuplicateKeyError
		if errors.As(err, &dup) {
			writeDuplicateKey(w, dup.Field)
			return
		}
		writeInternal(w, r)
		return
	}
	created, err := repo.PatientByID(r.Context(), h.Pool, id)
	if err != nil {
		writeInternal(w, r)
		return
	}
	h.Cache.DeletePrefix(patientListCachePrefix)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "patient registered",
		"patient": toPatientResponse(created),
	})
}

// checkDateInvariant garante procedureDate >= birthDate para o procedimento
// principal e para cada entrada do histórico. Revalidado sempre que qualquer
// uma das datas do agregado é alterada: mover o nascimento para depois de um
// procedimento registrado quebraria o histórico.
func checkDateInvariant(p *repo.Patient, fields map[string]string) {
	if p.BirthDate == "" {
		return
	}
	if p.ProcedureDate != "" && p.ProcedureDate < p.BirthDate {
		fields["procedureDate"] = "procedure date cannot be before birth date"
	}
	for i := range p.History {
		if p.History[i].ProcedureDate != "" && p.History[i].ProcedureDate < p.BirthDate {
			fields["birthDate"] = "birth date cannot be after a recorded procedure"
			return
		}
	}
}

func parseLimitOffset(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// ListPatients retorna por criação mais recente primeiro. A resposta é
// cacheada por pouco tempo e invalidada em qualquer mutação de paciente.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r)
	cacheKey := fmt.Sprintf("%slist:%d:%d", patientListCachePrefix, limit, offset)
	if cached := h.Cache.Get(cacheKey); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(cached)
		return
	}
	total, err := repo.CountPatients(r.Context(), h.Pool)
	if err != nil {
		writeInternal(w, r)
		return
	}
	list, err := repo.ListPatients(r.Context(), h.Pool, limit, offset)
	if err != nil {
		writeInternal(w, r)
		return
	}
	out := make([]PatientResponse, len(list))
	for i := range list {
		out[i] = toPatientResponse(&list[i])
	}
	body, err := json.Marshal(map[string]interface{}{
		"patients": out,
		"limit":    limit,
		"offset":   offset,
		"total":    total,
	})
	if err != nil {
		writeInternal(w, r)
		return
	}
	h.Cache.Set(cacheKey, body)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid patient id")
		return
	}
	// Pacientes comuns só leem o próprio registro; staff lê qualquer um.
	if auth.RoleFrom(r.Context()) == auth.RoleUser && auth.UserIDFrom(r.Context()) != patientID.String() {
		writeError(w, http.StatusForbidden, CodeUnauthorized, "cannot read another patient's record")
		return
	}
	p, err := repo.PatientByID(r.Context(), h.Pool, patientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return
		}
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

// UpdatePatientRequest: todo campo é um ponteiro; só o que vier presente é
// aplicado. Isso separa "campo omitido" de "campo limpo".
type UpdatePatientRequest struct {
	FullName        *string `json:"fullName"`
	Email           *string `json:"email"`
	CPF             *string `json:"cpf"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	BirthDate       *string `json:"birthDate"`
	Password        *string `json:"password"`
	Image           *string `json:"image"`
	Role            *string `json:"role"`

	DiseaseDetails      *string `json:"diseaseDetails"`
	CurrentMedications  *string `json:"currentMedications"`
	AnesthesiaAllergies *string `json:"anesthesiaAllergies"`
	MedicationAllergy   *string `json:"medicationAllergy"`
	SurgicalHistory     *string `json:"surgicalHistory"`
	DentalHistory       *string `json:"dentalHistory"`
	BloodExam           *string `json:"bloodExam"`
	Coagulation         *string `json:"coagulation"`
	Healing             *string `json:"healing"`
	PostBleeding        *string `json:"postBleeding"`
	Breathing           *string `json:"breathing"`
	Weight              *string `json:"weight"`

	SmokingFrequency *string `json:"smokingFrequency"`
	AlcoholFrequency *string `json:"alcoholFrequency"`

	ProcedureName *string         `json:"procedure"`
	ToothFace     *string         `json:"toothFace"`
	Professional  *string         `json:"professional"`
	ProcedureDate *string         `json:"procedureDate"`
	PaymentMethod *string         `json:"paymentMethod"`
	Value         json.RawMessage `json:"value"`
}

// UpdatePatient aplica os campos presentes sobre o registro existente.
// Quando qualquer uma das duas datas é tocada, o invariante
// procedureDate >= birthDate é revalidado usando o valor armazenado da outra.
// Escritas concorrentes no mesmo paciente são last-write-wins.
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid patient id")
		return
	}
	p, err := repo.PatientByID(r.Context(), h.Pool, patientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return
		}
		writeInternal(w, r)
		return
	}
	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return
	}

	fields := map[string]string{}
	if req.FullName != nil {
		if v := strings.TrimSpace(*req.FullName); v == "" {
			fields["fullName"] = "full name cannot be empty"
		} else {
			p.FullName = v
		}
	}
	if req.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Email))
		if ValidateEmailRegex(v) != nil {
			fields["email"] = "valid email is required"
		} else {
			p.Email = v
		}
	}
	if req.CPF != nil {
		if !crypto.ValidCPF(*req.CPF) {
			fields["cpf"] = "use NNN.NNN.NNN-NN or 11 digits"
		} else {
			p.CPF = crypto.FormatCPF(*req.CPF)
		}
	}
	if req.Phone != nil {
		if v, err := NormalizePhone(*req.Phone); err != nil {
			fields["phone"] = "valid phone is required"
		} else {
			p.Phone = v
		}
	}
	if req.Address != nil {
		if v := strings.TrimSpace(*req.Address); v == "" {
			fields["address"] = "address cannot be empty"
		} else {
			p.Address = v
		}
	}
	dateTouched := false
	if req.BirthDate != nil {
		if v, err := ParseDate(*req.BirthDate); err != nil {
			fields["birthDate"] = "use YYYY-MM-DD"
		} else if v >= time.Now().Format("2006-01-02") {
			fields["birthDate"] = "birth date must be in the past"
		} else {
			p.BirthDate = v
			dateTouched = true
		}
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			fields["password"] = "password must have at least 6 characters"
		} else {
			hash, err := h.hashPassword(*req.Password)
			if err != nil {
				writeInternal(w, r)
				return
			}
			p.PasswordHash = hash
		}
	}
	if req.Image != nil {
		p.Image = strings.TrimSpace(*req.Image)
	}
	if req.Role != nil && *req.Role != p.Role {
		switch {
		case !Roles[*req.Role]:
			fields["role"] = "role must be user, admin or clinician"
		case !auth.IsAdmin(r.Context()):
			fields["role"] = "only admins can change roles"
		default:
			p.Role = *req.Role
		}
	}
	if req.DiseaseDetails != nil {
		p.DiseaseDetails = strings.TrimSpace(*req.DiseaseDetails)
	}
	if req.CurrentMedications != nil {
		p.CurrentMedications = strings.TrimSpace(*req.CurrentMedications)
	}
	if req.AnesthesiaAllergies != nil {
		p.AnesthesiaAllergies = strings.TrimSpace(*req.AnesthesiaAllergies)
	}
	if req.MedicationAllergy != nil {
		p.MedicationAllergy = strings.TrimSpace(*req.MedicationAllergy)
	}
	if req.SurgicalHistory != nil {
		p.SurgicalHistory = strings.TrimSpace(*req.SurgicalHistory)
	}
	if req.DentalHistory != nil {
		p.DentalHistory = strings.TrimSpace(*req.DentalHistory)
	}
	if req.BloodExam != nil {
		p.BloodExam = strings.TrimSpace(*req.BloodExam)
	}
	if req.Coagulation != nil {
		p.Coagulation = strings.TrimSpace(*req.Coagulation)
	}
	if req.Healing != nil {
		p.Healing = strings.TrimSpace(*req.Healing)
	}
	if req.PostBleeding != nil {
		p.PostBleeding = strings.TrimSpace(*req.PostBleeding)
	}
	if req.Breathing != nil {
		p.Breathing = strings.TrimSpace(*req.Breathing)
	}
	if req.Weight != nil {
		v := strings.TrimSpace(*req.Weight)
		if !ValidWeight(v) {
			fields["weight"] = "weight must be a number like 70.5"
		} else {
			p.Weight = v
		}
	}
	if req.SmokingFrequency != nil {
		if !HabitFrequencies[*req.SmokingFrequency] {
			fields["smokingFrequency"] = "invalid smoking frequency"
		} else {
			p.SmokingFrequency = *req.SmokingFrequency
		}
	}
	if req.AlcoholFrequency != nil {
		if !HabitFrequencies[*req.AlcoholFrequency] {
			fields["alcoholFrequency"] = "invalid alcohol frequency"
		} else {
			p.AlcoholFrequency = *req.AlcoholFrequency
		}
	}
	if req.ProcedureName != nil {
		if v := strings.TrimSpace(*req.ProcedureName); v == "" {
			fields["procedure"] = "procedure cannot be empty"
		} else {
			p.ProcedureName = v
		}
	}
	if req.ToothFace != nil {
		p.ToothFace = strings.TrimSpace(*req.ToothFace)
	}
	if req.Professional != nil {
		p.Professional = strings.TrimSpace(*req.Professional)
	}
	if req.PaymentMethod != nil {
		if !PaymentMethods[*req.PaymentMethod] {
			fields["paymentMethod"] = "invalid payment method"
		} else {
			p.PaymentMethod = *req.PaymentMethod
		}
	}
	if req.ProcedureDate != nil {
		if v, err := ParseDate(*req.ProcedureDate); err != nil {
			fields["procedureDate"] = "use YYYY-MM-DD"
		} else {
			p.ProcedureDate = v
			dateTouched = true
		}
	}
	if len(req.Value) > 0 {
		value, err := ParseMoney(req.Value)
		switch {
		case err != nil:
			fields["value"] = "value is not a number"
		case value < 0:
			fields["value"] = "value cannot be negative"
		default:
			p.Value = value
		}
	}
	if dateTouched {
		checkDateInvariant(p, fields)
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	if err := repo.UpdatePatient(r.Context(), h.Pool, p); err != nil {
		var dup *repo.DuplicateKeyError
		switch {
		case errors.As(err, &dup):
			writeDuplicateKey(w, dup.Field)
		case errors.Is(err, repo.ErrNotFound):
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
		default:
			writeInternal(w, r)
		}
		return
	}
	h.Cache.DeletePrefix(patientListCachePrefix)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "patient updated",
		"patient": toPatientResponse(p),
	})
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid patient id")
		return
	}
	if err := repo.DeletePatient(r.Context(), h.Pool, patientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return
		}
		writeInternal(w, r)
		return
	}
	h.Cache.DeletePrefix(patientListCachePrefix)
	writeJSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
}
