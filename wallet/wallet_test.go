package wallet

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ecosmart/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestCredit(t *testing.T) {
	it(func() {
		now := time.Now()
		testCases := []struct {
			name        string
			userID      string
			amount      int
			description string

			execExpected bool
			wantBalance  int
			wantErr      error
		}{
			{
				name:        "Credit coins",
				userID:      "user-1",
				amount:      15,
				description: "Eco-coins for High severity waste report",

				execExpected: true,
				wantBalance:  15,
			}, {
				name:   "Zero amount rejected",
				userID: "user-1",
				amount: 0,

				wantErr: ErrInvalidAmount,
			}, {
				name:   "Negative amount rejected",
				userID: "user-1",
				amount: -5,

				wantErr: ErrInvalidAmount,
			},
		}

		s := NewService(db)
		for _, testCase := range testCases {
			if testCase.execExpected {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT IGNORE INTO wallets \\(user_id\\) VALUES \\((.+)\\)").
					WithArgs(testCase.userID).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("UPDATE wallets SET balance = balance \\+ (.+), total_earned = total_earned \\+ (.+) WHERE user_id = (.+)").
					WithArgs(testCase.amount, testCase.amount, testCase.userID).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO eco_coin_transactions \\(id, user_id, type, amount, description\\) VALUES \\((.+), (.+), 'earn', (.+), (.+)\\)").
					WithArgs(sqlmock.AnyArg(), testCase.userID, testCase.amount, testCase.description).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
				mock.ExpectQuery("SELECT user_id, balance, total_earned, total_spent, created_at, updated_at FROM wallets WHERE user_id = (.+)").
					WithArgs(testCase.userID).
					WillReturnRows(sqlmock.NewRows(
						[]string{"user_id", "balance", "total_earned", "total_spent", "created_at", "updated_at"}).
						AddRow(testCase.userID, testCase.wantBalance, testCase.wantBalance, 0, now, now))
			}

			w, err := s.Credit(context.Background(), testCase.userID, testCase.amount, testCase.description)
			if !errors.Is(err, testCase.wantErr) {
				t.Errorf("%s, Credit(): expected error: %v, got error: %v", testCase.name, testCase.wantErr, err)
				continue
			}
			if testCase.wantErr == nil && w.Balance != testCase.wantBalance {
				t.Errorf("%s, Credit(): expected balance %d, got %d", testCase.name, testCase.wantBalance, w.Balance)
			}
		}
	})
}

func TestRedeem(t *testing.T) {
	it(func() {
		benefit := models.Benefit{
			ID:            "med_1",
			Name:          "15% off on Health Check-up",
			CoinsRequired: 500,
			ValidityDays:  30,
		}
		testCases := []struct {
			name   string
			userID string

			debitRows    int64
			walletExists bool

			wantErr error
		}{
			{
				name:      "Successful redeem",
				userID:    "user-1",
				debitRows: 1,
			}, {
				name:         "Insufficient balance",
				userID:       "user-2",
				debitRows:    0,
				walletExists: true,

				wantErr: ErrInsufficientBalance,
			}, {
				name:   "No wallet",
				userID: "user-3",

				wantErr: ErrWalletNotFound,
			},
		}

		s := NewService(db)
		for _, testCase := range testCases {
			mock.ExpectBegin()
			mock.ExpectExec("UPDATE wallets SET balance = balance - (.+), total_spent = total_spent \\+ (.+) WHERE user_id = (.+) AND balance >= (.+)").
				WithArgs(benefit.CoinsRequired, benefit.CoinsRequired, testCase.userID, benefit.CoinsRequired).
				WillReturnResult(sqlmock.NewResult(0, testCase.debitRows))
			if testCase.debitRows == 0 {
				existing := 0
				if testCase.walletExists {
					existing = 1
				}
				mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM wallets WHERE user_id = (.+)").
					WithArgs(testCase.userID).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(existing))
				mock.ExpectRollback()
			} else {
				mock.ExpectExec("INSERT INTO eco_coin_transactions \\(id, user_id, type, amount, description, benefit_id, benefit_name, validity_days\\) VALUES \\((.+), (.+), 'spend', (.+), (.+), (.+), (.+), (.+)\\)").
					WithArgs(sqlmock.AnyArg(), testCase.userID, benefit.CoinsRequired, sqlmock.AnyArg(), benefit.ID, benefit.Name, benefit.ValidityDays).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			}

			txn, err := s.Redeem(context.Background(), testCase.userID, benefit)
			if !errors.Is(err, testCase.wantErr) {
				t.Errorf("%s, Redeem(): expected error: %v, got error: %v", testCase.name, testCase.wantErr, err)
				continue
			}
			if testCase.wantErr != nil {
				continue
			}
			if txn.Type != "spend" || txn.Amount != benefit.CoinsRequired {
				t.Errorf("%s, Redeem(): expected spend of %d, got %s of %d",
					testCase.name, benefit.CoinsRequired, txn.Type, txn.Amount)
			}
			if txn.BenefitID != benefit.ID || txn.ValidityDays != benefit.ValidityDays {
				t.Errorf("%s, Redeem(): benefit snapshot not carried: %+v", testCase.name, txn)
			}
		}
	})
}

func TestTransactions(t *testing.T) {
	it(func() {
		now := time.Now()
		earlier := now.Add(-time.Hour)

		mock.ExpectQuery("SELECT id, user_id, type, amount, description, benefit_id, benefit_name, validity_days, created_at FROM eco_coin_transactions WHERE user_id = (.+) ORDER BY created_at DESC").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "user_id", "type", "amount", "description", "benefit_id", "benefit_name", "validity_days", "created_at"}).
				AddRow("t2", "user-1", "spend", 500, "Redeemed benefit: 15% off on Health Check-up", "med_1", "15% off on Health Check-up", 30, now).
				AddRow("t1", "user-1", "earn", 15, "Eco-coins for High severity waste report", nil, nil, nil, earlier))

		s := NewService(db)
		txns, err := s.Transactions(context.Background(), "user-1")
		if err != nil {
			t.Errorf("Transactions(): unexpected error: %v", err)
		}
		if len(txns) != 2 {
			t.Fatalf("Transactions(): expected 2 entries, got %d", len(txns))
		}
		if txns[0].ID != "t2" || txns[1].ID != "t1" {
			t.Errorf("Transactions(): expected newest first, got %s then %s", txns[0].ID, txns[1].ID)
		}
		if txns[1].BenefitID != "" || txns[1].ValidityDays != 0 {
			t.Errorf("Transactions(): earn entry should have no benefit snapshot: %+v", txns[1])
		}
	})
}

func TestBenefitByID(t *testing.T) {
	b, err := BenefitByID("med_3")
	if err != nil {
		t.Errorf("BenefitByID(med_3): unexpected error: %v", err)
	}
	if b.CoinsRequired != 600 {
		t.Errorf("BenefitByID(med_3): expected 600 coins, got %d", b.CoinsRequired)
	}
	if _, err := BenefitByID("med_99"); !errors.Is(err, ErrUnknownBenefit) {
		t.Errorf("BenefitByID(med_99): expected ErrUnknownBenefit, got %v", err)
	}
}
