package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"examprep-quiz/internal/domain"
	"github.com/uptrace/bun"
)

// SeedBank replaces the stored bank with sections, preserving their order.
func SeedBank(ctx context.Context, db *bun.DB, sections []domain.Section) error {
	if err := domain.ValidateBank(sections); err != nil {
		return err
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_sections`); err != nil {
			return fmt.Errorf("clear sections: %w", err)
		}
		for i, section := range sections {
			data, err := json.Marshal(section.Questions)
			if err != nil {
				return fmt.Errorf("marshal section %q: %w", section.Title, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quiz_sections (position, title, questions) VALUES (?, ?, ?::jsonb)`,
				i, section.Title, string(data)); err != nil {
				return fmt.Errorf("insert section %q: %w", section.Title, err)
			}
		}
		return nil
	})
}
