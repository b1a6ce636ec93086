package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PedroLucas003/backendsorriaodonto/internal/repo"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ProcedureRequest struct {
	Procedure     string          `json:"procedure"`
	ToothFace     string          `json:"toothFace"`
	Professional  string          `json:"professional"`
	PaymentMethod string          `json:"paymentMethod"`
	ProcedureDate string          `json:"procedureDate"`
	Value         json.RawMessage `json:"value"`
}

// validateProcedure valida os campos de uma entrada do histórico contra a
// data de nascimento do paciente. A data do procedimento pode ser igual à de
// nascimento (armazenamento date-only), nunca anterior.
func validateProcedure(req *ProcedureRequest, birthDate string) (repo.ProcedureEntry, map[string]string) {
	fields := map[string]string{}
	var e repo.ProcedureEntry

	e.Procedure = strings.TrimSpace(req.Procedure)
	if e.Procedure == "" {
		fields["procedure"] = "procedure is required"
	}
	e.ToothFace = strings.TrimSpace(req.ToothFace)
	if e.ToothFace == "" {
		fields["toothFace"] = "tooth/face is required"
	}
	e.Professional = strings.TrimSpace(req.Professional)
	if e.Professional == "" {
		fields["professional"] = "professional is required"
	}
	e.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if !PaymentMethods[e.PaymentMethod] {
		fields["paymentMethod"] = "invalid payment method"
	}

	if date, err := ParseDate(req.ProcedureDate); err != nil {
		fields["procedureDate"] = "use YYYY-MM-DD"
	} else if birthDate != "" && date < birthDate {
		fields["procedureDate"] = "procedure date cannot be before birth date"
	} else {
		e.ProcedureDate = date
	}

	value, err := ParseMoney(req.Value)
	switch {
	case errors.Is(err, ErrValueRequired):
		fields["value"] = "value required"
	case err != nil:
		fields["value"] = "value is not a number"
	case value < 0:
		fields["value"] = "value cannot be negative"
	default:
		e.Value = value
	}

	return e, fields
}

func (h *Handler) loadPatient(w http.ResponseWriter, r *http.Request) *repo.Patient {
	patientID, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid patient id")
		return nil
	}
	p, err := repo.PatientByID(r.Context(), h.Pool, patientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return nil
		}
		writeInternal(w, r)
		return nil
	}
	return p
}

// ListProcedures é a linha do tempo canônica: principal + histórico,
// mais recente primeiro.
func (h *Handler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	p := h.loadPatient(w, r)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"procedures": repo.Timeline(p),
	})
}

// AppendProcedure acrescenta uma entrada ao histórico. Id e timestamp de
// criação são atribuídos aqui e imutáveis dali em diante.
func (h *Handler) AppendProcedure(w http.ResponseWriter, r *http.Request) {
	p := h.loadPatient(w, r)
	if p == nil {
		return
	}
	var req ProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return
	}
	entry, fields := validateProcedure(&req, p.BirthDate)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	if err := repo.AppendProcedure(r.Context(), h.Pool, p.ID, entry); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return
		}
		writeInternal(w, r)
		return
	}
	h.Cache.DeletePrefix(patientListCachePrefix)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "procedure added",
		"procedure": entry,
	})
}

// UpdateProcedureRequest: substituição in-place dos campos presentes; o id
// da entrada não é afetado.
type UpdateProcedureRequest struct {
	Procedure     *string         `json:"procedure"`
	ToothFace     *string         `json:"toothFace"`
	Professional  *string         `json:"professional"`
	PaymentMethod *string         `json:"paymentMethod"`
	ProcedureDate *string         `json:"procedureDate"`
	Value         json.RawMessage `json:"value"`
}

func (h *Handler) UpdateProcedure(w http.ResponseWriter, r *http.Request) {
	p := h.loadPatient(w, r)
	if p == nil {
		return
	}
	entryID, err := uuid.Parse(mux.Vars(r)["entryId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid entry id")
		return
	}
	idx := repo.HistoryEntryIndex(p.History, entryID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, CodeNotFound, "procedure entry not found")
		return
	}
	var req UpdateProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid body")
		return
	}

	entry := p.History[idx]
	fields := map[string]string{}
	if req.Procedure != nil {
		if v := strings.TrimSpace(*req.Procedure); v == "" {
			fields["procedure"] = "procedure cannot be empty"
		} else {
			entry.Procedure = v
		}
	}
	if req.ToothFace != nil {
		if v := strings.TrimSpace(*req.ToothFace); v == "" {
			fields["toothFace"] = "tooth/face cannot be empty"
		} else {
			entry.ToothFace = v
		}
	}
	if req.Professional != nil {
		if v := strings.TrimSpace(*req.Professional); v == "" {
			fields["professional"] = "professional cannot be empty"
		} else {
			entry.Professional = v
		}
	}
	if req.PaymentMethod != nil {
		if !PaymentMethods[*req.PaymentMethod] {
			fields["paymentMethod"] = "invalid payment method"
		} else {
			entry.PaymentMethod = *req.PaymentMethod
		}
	}
	if req.ProcedureDate != nil {
		if date, err := ParseDate(*req.ProcedureDate); err != nil {
			fields["procedureDate"] = "use YYYY-MM-DD"
		} else if p.BirthDate != "" && date < p.BirthDate {
			fields["procedureDate"] = "procedure date cannot be before birth date"
		} else {
			entry.ProcedureDate = date
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
			entry.Value = value
		}
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	p.History[idx] = entry
	if err := repo.SaveHistory(r.Context(), h.Pool, p.ID, p.History); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return
		}
		writeInternal(w, r)
		return
	}
	h.Cache.DeletePrefix(patientListCachePrefix)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "procedure updated",
		"procedure": entry,
	})
}

// RemoveProcedure remove exatamente a entrada endereçada; as demais não mudam.
func (h *Handler) RemoveProcedure(w http.ResponseWriter, r *http.Request) {
	p := h.loadPatient(w, r)
	if p == nil {
		return
	}
	entryID, err := uuid.Parse(mux.Vars(r)["entryId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid entry id")
		return
	}
	idx := repo.HistoryEntryIndex(p.History, entryID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, CodeNotFound, "procedure entry not found")
		return
	}
	p.History = append(p.History[:idx], p.History[idx+1:]...)
	if err := repo.SaveHistory(r.Context(), h.Pool, p.ID, p.History); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "patient not found")
			return
		}
		writeInternal(w, r)
		return
	}
	h.Cache.DeletePrefix(patientListCachePrefix)
	writeJSON(w, http.StatusOK, map[string]string{"message": "procedure removed"})
}
