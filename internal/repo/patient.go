package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// DuplicateKeyError indica violação de índice único (email ou cpf).
// Concorrência entre check e insert é resolvida pelo índice do banco,
// nunca por pré-checagem (a violação é um erro normal, não um crash).
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return "duplicate key: " + e.Field
}

// Patient é a raiz do agregado: dados pessoais, ficha de saúde, procedimento
// principal e histórico de procedimentos embutido (sempre lido inline).
type Patient struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	CPF          string // forma canônica NNN.NNN.NNN-NN
	Phone        string
	Address      string
	BirthDate    string // YYYY-MM-DD
	PasswordHash string // write-only: nunca serializado em resposta
	Image        string
	Role         string

	DiseaseDetails      string
	CurrentMedications  string
	AnesthesiaAllergies string
	MedicationAllergy   string
	SurgicalHistory     string
	DentalHistory       string
	BloodExam           string
	Coagulation         string
	Healing             string
	PostBleeding        string
	Breathing           string
	Weight              string

	SmokingFrequency string
	AlcoholFrequency string

	// Procedimento principal (evento cobrável preso direto ao paciente).
	ProcedureName string
	ToothFace     string
	Professional  string
	ProcedureDate string // YYYY-MM-DD
	PaymentMethod string
	Value         float64

	History []ProcedureEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

const patientColumns = `
	id, full_name, email, cpf, phone, address, birth_date::text, password_hash,
	image, role, disease_details, current_medications, anesthesia_allergies,
	medication_allergy, surgical_history, dental_history, blood_exam,
	coagulation, healing, post_bleeding, breathing, weight,
	smoking_frequency, alcohol_frequency, procedure_name, tooth_face,
	professional, procedure_date::text, payment_method, value,
	procedure_history, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var history []byte
	err := row.Scan(
		&p.ID, &p.FullName, &p.Email, &p.CPF, &p.Phone, &p.Address, &p.BirthDate, &p.PasswordHash,
		&p.Image, &p.Role, &p.DiseaseDetails, &p.CurrentMedications, &p.AnesthesiaAllergies,
		&p.MedicationAllergy, &p.SurgicalHistory, &p.DentalHistory, &p.BloodExam,
		&p.Coagulation, &p.Healing, &p.PostBleeding, &p.Breathing, &p.Weight,
		&p.SmokingFrequency, &p.AlcoholFrequency, &p.ProcedureName, &p.ToothFace,
		&p.Professional, &p.ProcedureDate, &p.PaymentMethod, &p.Value,
		&history, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.History); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func CreatePatient(ctx context.Context, pool *pgxpool.Pool, p *Patient) (uuid.UUID, error) {
	historyJSON, err := json.Marshal(emptyIfNil(p.History))
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = pool.QueryRow(ctx, `
		INSERT INTO patients (
			full_name, email, cpf, phone, address, birth_date, password_hash,
			image, role, disease_details, current_medications, anesthesia_allergies,
			medication_allergy, surgical_history, dental_history, blood_exam,
			coagulation, healing, post_bleeding, breathing, weight,
			smoking_frequency, alcohol_frequency, procedure_name, tooth_face,
			professional, procedure_date, payment_method, value, procedure_history
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30
		) RETURNING id
	`,
		p.FullName, p.Email, p.CPF, p.Phone, p.Address, p.BirthDate, p.PasswordHash,
		p.Image, p.Role, p.DiseaseDetails, p.CurrentMedications, p.AnesthesiaAllergies,
		p.MedicationAllergy, p.SurgicalHistory, p.DentalHistory, p.BloodExam,
		p.Coagulation, p.Healing, p.PostBleeding, p.Breathing, p.Weight,
		p.SmokingFrequency, p.AlcoholFrequency, p.ProcedureName, p.ToothFace,
		p.Professional, p.ProcedureDate, p.PaymentMethod, p.Value, historyJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, translateDuplicate(err)
	}
	return id, nil
}

func PatientByID(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*Patient, error) {
	return scanPatient(pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
}

// PatientByCPF busca pela forma canônica pontuada; a normalização do input é
// responsabilidade do chamador.
func PatientByCPF(ctx context.Context, pool *pgxpool.Pool, cpf string) (*Patient, error) {
	return scanPatient(pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE cpf = $1`, cpf))
}

// ListPatients retorna pacientes por criação mais recente primeiro.
// Se limit for 0, não aplica limite.
func ListPatients(ctx context.Context, pool *pgxpool.Pool, limit, offset int) ([]Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func CountPatients(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n)
	return n, err
}

// UpdatePatient grava o agregado inteiro (o handler já fez o merge dos campos
// fornecidos sobre os valores existentes). Last-write-wins por documento.
func UpdatePatient(ctx context.Context, pool *pgxpool.Pool, p *Patient) error {
	historyJSON, err := json.Marshal(emptyIfNil(p.History))
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, `
		UPDATE patients SET
			full_name = $1, email = $2, cpf = $3, phone = $4, address = $5,
			birth_date = $6, password_hash = $7, image = $8, role = $9,
			disease_details = $10, current_medications = $11, anesthesia_allergies = $12,
			medication_allergy = $13, surgical_history = $14, dental_history = $15,
			blood_exam = $16, coagulation = $17, healing = $18, post_bleeding = $19,
			breathing = $20, weight = $21, smoking_frequency = $22, alcohol_frequency = $23,
			procedure_name = $24, tooth_face = $25, professional = $26,
			procedure_date = $27, payment_method = $28, value = $29,
			procedure_history = $30, updated_at = now()
		WHERE id = $31
	`,
		p.FullName, p.Email, p.CPF, p.Phone, p.Address,
		p.BirthDate, p.PasswordHash, p.Image, p.Role,
		p.DiseaseDetails, p.CurrentMedications, p.AnesthesiaAllergies,
		p.MedicationAllergy, p.SurgicalHistory, p.DentalHistory,
		p.BloodExam, p.Coagulation, p.Healing, p.PostBleeding,
		p.Breathing, p.Weight, p.SmokingFrequency, p.AlcoholFrequency,
		p.ProcedureName, p.ToothFace, p.Professional,
		p.ProcedureDate, p.PaymentMethod, p.Value,
		historyJSON, p.ID,
	)
	if err != nil {
		return translateDuplicate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePatient remove o documento (hard delete, sem tombstone).
func DeletePatient(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) error {
	tag, err := pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func translateDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := "cpf"
		if strings.Contains(pgErr.ConstraintName, "email") {
			field = "email"
		}
		return &DuplicateKeyError{Field: field}
	}
	return err
}

func emptyIfNil(h []ProcedureEntry) []ProcedureEntry {
	if h == nil {
		return []ProcedureEntry{}
	}
	return h
}
