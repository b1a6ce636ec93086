package repo

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcedureEntry é um item do histórico embutido no paciente. O id é
// atribuído no append e imutável; é o endereço para update/remove.
type ProcedureEntry struct {
	ID            uuid.UUID `json:"id"`
	Procedure     string    `json:"procedure"`
	ToothFace     string    `json:"toothFace"`
	Professional  string    `json:"professional"`
	PaymentMethod string    `json:"paymentMethod"`
	Value         float64   `json:"value"`
	ProcedureDate string    `json:"procedureDate"` // YYYY-MM-DD
	CreatedAt     time.Time `json:"createdAt"`
}

// AppendProcedure acrescenta a entrada ao array JSONB em um único UPDATE
// (append atômico por documento; ordem de inserção preservada).
func AppendProcedure(ctx context.Context, pool *pgxpool.Pool, patientID uuid.UUID, e ProcedureEntry) error {
	entryJSON, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, `
		UPDATE patients
		SET procedure_history = procedure_history || $2::jsonb, updated_at = now()
		WHERE id = $1
	`, patientID, entryJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveHistory substitui o array inteiro (usado por update/remove de entradas,
// após o handler recarregar e alterar a lista em memória).
func SaveHistory(ctx context.Context, pool *pgxpool.Pool, patientID uuid.UUID, history []ProcedureEntry) error {
	historyJSON, err := json.Marshal(emptyIfNil(history))
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, `
		UPDATE patients SET procedure_history = $2, updated_at = now() WHERE id = $1
	`, patientID, historyJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HistoryEntryIndex localiza a entrada pelo id. Retorna o índice ou -1.
func HistoryEntryIndex(history []ProcedureEntry, entryID uuid.UUID) int {
	for i := range history {
		if history[i].ID == entryID {
			return i
		}
	}
	return -1
}

// TimelineItem é uma linha da visão mesclada "linha do tempo de
// procedimentos": o procedimento principal do paciente mais o histórico.
type TimelineItem struct {
	ID            *uuid.UUID `json:"id,omitempty"` // nil para o principal
	Procedure     string     `json:"procedure"`
	ToothFace     string     `json:"toothFace"`
	Professional  string     `json:"professional"`
	PaymentMethod string     `json:"paymentMethod"`
	Value         float64    `json:"value"`
	ProcedureDate string     `json:"procedureDate"`
	IsPrincipal   bool       `json:"isPrincipal"`
}

// Timeline mescla o procedimento principal com o histórico e ordena por data
// do procedimento decrescente (mais recente primeiro). Datas YYYY-MM-DD
// ordenam lexicograficamente.
func Timeline(p *Patient) []TimelineItem {
	items := make([]TimelineItem, 0, len(p.History)+1)
	items = append(items, TimelineItem{
		Procedure:     p.ProcedureName,
		ToothFace:     p.ToothFace,
		Professional:  p.Professional,
		PaymentMethod: p.PaymentMethod,
		Value:         p.Value,
		ProcedureDate: p.ProcedureDate,
		IsPrincipal:   true,
	})
	for i := range p.History {
		e := p.History[i]
		id := e.ID
		items = append(items, TimelineItem{
			ID:            &id,
			Procedure:     e.Procedure,
			ToothFace:     e.ToothFace,
			Professional:  e.Professional,
			PaymentMethod: e.PaymentMethod,
			Value:         e.Value,
			ProcedureDate: e.ProcedureDate,
			IsPrincipal:   false,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ProcedureDate > items[j].ProcedureDate
	})
	return items
}
