package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"examprep-quiz/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads the sections of the question bank from Postgres, one row
// per section with the questions stored as JSONB.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Section, error) {
	rows, err := l.pool.Query(ctx, `SELECT title, questions FROM quiz_sections ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		var (
			title string
			raw   []byte
		)
		if err := rows.Scan(&title, &raw); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		section := domain.Section{Title: title}
		if err := json.Unmarshal(raw, &section.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal section %q: %w", title, err)
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	if len(sections) == 0 {
		return nil, domain.ErrBankEmpty
	}
	return sections, nil
}
