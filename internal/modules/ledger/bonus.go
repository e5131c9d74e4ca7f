// README: Client bonus balance operations. The balance is the only payment
// instrument the core settles itself.
package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"

	"chauffeur/internal/apperr"
	"chauffeur/internal/types"
)

// DebitBonus withdraws bonus credit from a client inside the caller's
// transaction. The guard lives in the WHERE clause so a concurrent debit can
// never drive the balance negative.
func (s *Store) DebitBonus(ctx context.Context, tx pgx.Tx, clientID types.ID, amount int64) error {
	if amount <= 0 {
		return apperr.New(apperr.CodeInvalidRequest, "bonus amount must be positive")
	}
	tag, err := tx.Exec(ctx, `
		UPDATE clients SET bonus_balance = bonus_balance - $1, updated_at = NOW()
		WHERE id = $2 AND bonus_balance >= $1`,
		amount, string(clientID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return apperr.New(apperr.CodeInvalidRequest, "insufficient bonus balance")
	}
	return nil
}

// CreditBonus accrues bonus credit, creating the balance row if needed.
func (s *Store) CreditBonus(ctx context.Context, tx pgx.Tx, clientID types.ID, amount int64) error {
	if amount <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO clients (id, bonus_balance) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET bonus_balance = clients.bonus_balance + $2, updated_at = NOW()`,
		string(clientID), amount,
	)
	return err
}

func (s *Store) BonusBalance(ctx context.Context, clientID types.ID) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE((SELECT bonus_balance FROM clients WHERE id = $1), 0)`,
		string(clientID),
	).Scan(&balance)
	return balance, err
}
