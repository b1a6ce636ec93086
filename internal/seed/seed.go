package seed

import (
	"context"
	"log"
	"os"

	"github.com/PedroLucas003/backendsorriaodonto/internal/auth"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run cria a conta administrativa inicial quando o banco está vazio, para
// que um deploy novo consiga logar e cadastrar pacientes.
func Run(ctx context.Context, db *gorm.DB) error {
	var n int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM patients WHERE role = 'admin'").Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	id := uuid.New()
	err = db.WithContext(ctx).Exec(`
		INSERT INTO patients (
			id, full_name, email, cpf, phone, address, birth_date, password_hash,
			role, disease_details, current_medications, anesthesia_allergies,
			surgical_history, procedure_name, tooth_face, professional,
			procedure_date, payment_method, value
		) VALUES (
			?, 'Administrador', 'admin@sorriaodonto.local', '000.000.000-00',
			'(81) 99999-0000', 'Recife - PE', '1990-01-01', ?,
			'admin', 'n/a', 'n/a', 'n/a', 'n/a', 'Avaliacao inicial', 'geral',
			'Administrador', '2020-01-01', 'Cash', 0
		)
	`, id, hash).Error
	if err != nil {
		return err
	}
	log.Printf("[seed] admin account created (cpf 000.000.000-00)")
	return nil
}
