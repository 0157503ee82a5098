package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecosmart/common"
	"ecosmart/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

var (
	// ErrInvalidAmount is returned on a non-positive credit amount.
	ErrInvalidAmount = errors.New("coin amount must be positive")
	// ErrWalletNotFound is returned when the user has no wallet yet.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInsufficientBalance is returned when a redeem costs more than the
	// current balance.
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	// ErrUnknownBenefit is returned for a benefit id outside the catalog.
	ErrUnknownBenefit = errors.New("unknown benefit")
)

// Service owns per-user wallets and the append-only eco-coin ledger.
// The wallet row is a cache; the ledger is the source of truth, and every
// mutation applies the balance delta and the ledger append in one
// transaction so the two never drift apart.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// EnsureSchema creates the wallet tables if they don't exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	tables := []string{`
		CREATE TABLE IF NOT EXISTS wallets (
			user_id VARCHAR(255) NOT NULL,
			balance INT NOT NULL DEFAULT 0,
			total_earned INT NOT NULL DEFAULT 0,
			total_spent INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id)
		)`, `
		CREATE TABLE IF NOT EXISTS eco_coin_transactions (
			id VARCHAR(36) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			type ENUM('earn', 'spend') NOT NULL,
			amount INT NOT NULL,
			description VARCHAR(512) NOT NULL,
			benefit_id VARCHAR(64),
			benefit_name VARCHAR(255),
			validity_days INT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX idx_user_created (user_id, created_at)
		)`,
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to ensure wallet schema: %w", err)
		}
	}
	return nil
}

// GetWallet returns the user's wallet or ErrWalletNotFound.
func (s *Service) GetWallet(ctx context.Context, userID string) (*models.DigitalWallet, error) {
	w := &models.DigitalWallet{}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, balance, total_earned, total_spent, created_at, updated_at
		FROM wallets
		WHERE user_id = ?`, userID).
		Scan(&w.UserID, &w.Balance, &w.TotalEarned, &w.TotalSpent, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet for %s: %w", userID, err)
	}
	return w, nil
}

// Credit adds coins to the user's wallet, creating it with a zero balance
// first when absent, and appends the matching earn entry to the ledger.
// Returns the updated wallet.
func (s *Service) Credit(ctx context.Context, userID string, amount int, description string) (*models.DigitalWallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin credit tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO wallets (user_id) VALUES (?)`, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet for %s: %w", userID, err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + ?, total_earned = total_earned + ?
		WHERE user_id = ?`, amount, amount, userID)
	if err := common.ValidateResult(res, err, true); err != nil {
		return nil, fmt.Errorf("failed to credit %d coins to %s: %w", amount, userID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO eco_coin_transactions (id, user_id, type, amount, description)
		VALUES (?, ?, 'earn', ?, ?)`,
		uuid.NewString(), userID, amount, description); err != nil {
		return nil, fmt.Errorf("failed to append earn entry for %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit for %s: %w", userID, err)
	}

	log.Infof("Credited %d coins to %s: %s", amount, userID, description)
	return s.GetWallet(ctx, userID)
}

// Redeem spends benefit.CoinsRequired from the user's wallet and appends
// the spend entry carrying the benefit snapshot. The balance check and the
// debit are a single conditional UPDATE, so two concurrent redeems against
// a shrinking balance can never drive it negative.
func (s *Service) Redeem(ctx context.Context, userID string, benefit models.Benefit) (*models.EcoCoinTransaction, error) {
	cost := benefit.CoinsRequired
	if cost <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin redeem tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - ?, total_spent = total_spent + ?
		WHERE user_id = ? AND balance >= ?`, cost, cost, userID, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to debit %d coins from %s: %w", cost, userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get status of debit for %s: %w", userID, err)
	}
	if rows == 0 {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM wallets WHERE user_id = ?`, userID).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to check wallet for %s: %w", userID, err)
		}
		if n == 0 {
			return nil, ErrWalletNotFound
		}
		return nil, ErrInsufficientBalance
	}

	txn := &models.EcoCoinTransaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         "spend",
		Amount:       cost,
		Description:  fmt.Sprintf("Redeemed benefit: %s", benefit.Name),
		BenefitID:    benefit.ID,
		BenefitName:  benefit.Name,
		ValidityDays: benefit.ValidityDays,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO eco_coin_transactions (id, user_id, type, amount, description, benefit_id, benefit_name, validity_days)
		VALUES (?, ?, 'spend', ?, ?, ?, ?, ?)`,
		txn.ID, userID, cost, txn.Description, benefit.ID, benefit.Name, benefit.ValidityDays); err != nil {
		return nil, fmt.Errorf("failed to append spend entry for %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redeem for %s: %w", userID, err)
	}

	log.Infof("User %s redeemed %q for %d coins", userID, benefit.Name, cost)
	return txn, nil
}

// Transactions returns all ledger entries for the user, newest first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]models.EcoCoinTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount, description, benefit_id, benefit_name, validity_days, created_at
		FROM eco_coin_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions for %s: %w", userID, err)
	}
	defer rows.Close()

	txns := []models.EcoCoinTransaction{}
	for rows.Next() {
		var (
			t            models.EcoCoinTransaction
			benefitID    sql.NullString
			benefitName  sql.NullString
			validityDays sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description,
			&benefitID, &benefitName, &validityDays, &t.CreatedAt); err != nil {
			log.Errorf("Cannot scan a transaction row: %v", err)
			continue
		}
		t.BenefitID = benefitID.String
		t.BenefitName = benefitName.String
		t.ValidityDays = int(validityDays.Int64)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
