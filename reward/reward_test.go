package reward

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"ecosmart/classifier"
	"ecosmart/config"
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

type fakeClassifier struct {
	verdict *classifier.Verdict
	err     error
}

func (f *fakeClassifier) Validate(ctx context.Context, req classifier.Request) (*classifier.Verdict, error) {
	return f.verdict, f.err
}

type fakeBadges struct {
	stats  *models.UserBadgeStats
	badges []models.Badge
	err    error

	recorded int
}

func (f *fakeBadges) RecordReport(ctx context.Context, userID string) (*models.UserBadgeStats, []models.Badge, error) {
	f.recorded++
	return f.stats, f.badges, f.err
}

type fakeWallet struct {
	err error

	creditedAmount int
}

func (f *fakeWallet) Credit(ctx context.Context, userID string, amount int, description string) (*models.DigitalWallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.creditedAmount = amount
	return &models.DigitalWallet{UserID: userID, Balance: amount}, nil
}

type fakeCities struct {
	userCity string

	countedCity     string
	engagementDelta float64
}

func (f *fakeCities) IncrementReportCount(ctx context.Context, city string, resolved bool) error {
	f.countedCity = city
	return nil
}

func (f *fakeCities) AdjustEngagement(ctx context.Context, city string, delta float64) error {
	f.engagementDelta = delta
	return nil
}

func (f *fakeCities) UserCity(ctx context.Context, userID string) (string, error) {
	return f.userCity, nil
}

func testConfig() *config.Config {
	return &config.Config{
		BaseCoinsPerReport: 10,
		MediumMultiplier:   1.0,
		HighMultiplier:     1.5,
		CriticalMultiplier: 2.0,
	}
}

func TestCoinsFor(t *testing.T) {
	testCases := []struct {
		severity models.Severity
		want     int
	}{
		{models.SeverityMedium, 10},
		{models.SeverityHigh, 15},
		{models.SeverityCritical, 20},
		{models.SeverityLow, 0},
		{models.SeverityClean, 0},
	}
	o := NewOrchestrator(nil, testConfig(), nil, nil, nil, nil, nil, nil)
	for _, testCase := range testCases {
		if got := o.CoinsFor(testCase.severity); got != testCase.want {
			t.Errorf("CoinsFor(%s): expected %d, got %d", testCase.severity, testCase.want, got)
		}
	}
}

func nextTierStub(totalReports int) (models.BadgeLevel, int) {
	if totalReports < 10 {
		return models.LevelBronze, 10 - totalReports
	}
	return "", 0
}

func TestProcess(t *testing.T) {
	it(func() {
		testCases := []struct {
			name     string
			severity string

			wantStored bool
			wantCoins  int
			wantDelta  float64
		}{
			{
				name:       "Critical report rewards double coins",
				severity:   "Critical",
				wantStored: true,
				wantCoins:  20,
				wantDelta:  2.0,
			}, {
				name:       "High report",
				severity:   "High",
				wantStored: true,
				wantCoins:  15,
				wantDelta:  1.0,
			}, {
				name:       "Medium report",
				severity:   "Medium",
				wantStored: true,
				wantCoins:  10,
				wantDelta:  0.5,
			}, {
				name:     "Low severity is not stored",
				severity: "Low",
			}, {
				name:     "Clean area is not stored",
				severity: "Clean",
			},
		}

		for _, testCase := range testCases {
			cl := &fakeClassifier{verdict: &classifier.Verdict{
				IsValid:         true,
				ConfidenceScore: 0.9,
				Severity:        testCase.severity,
			}}
			badges := &fakeBadges{stats: &models.UserBadgeStats{UserID: "user-1", TotalReports: 3}}
			wallet := &fakeWallet{}
			cities := &fakeCities{}
			o := NewOrchestrator(db, testConfig(), cl, badges, wallet, cities, nil, nextTierStub)

			if testCase.wantStored {
				mock.ExpectExec("INSERT INTO waste_reports \\(id, user_id, description, location, city, severity, confidence, is_valid, analysis\\) VALUES \\((.+)\\) ON DUPLICATE KEY UPDATE analysis = VALUES\\(analysis\\)").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT IGNORE INTO report_rewards \\(report_id, user_id, coins\\) VALUES \\((.+), (.+), (.+)\\)").
					WithArgs(sqlmock.AnyArg(), "user-1", testCase.wantCoins).
					WillReturnResult(sqlmock.NewResult(1, 1))
			}

			result, err := o.Process(context.Background(), Submission{
				UserID:      "user-1",
				ImageBase64: "aGk=",
				Location:    "47.1,8.2",
				City:        "Oslo",
			})
			if err != nil {
				t.Errorf("%s, Process(): unexpected error: %v", testCase.name, err)
				continue
			}
			if result.Stored != testCase.wantStored {
				t.Errorf("%s, Process(): expected stored=%v, got %v", testCase.name, testCase.wantStored, result.Stored)
			}
			if result.CoinsEarned != testCase.wantCoins {
				t.Errorf("%s, Process(): expected %d coins, got %d", testCase.name, testCase.wantCoins, result.CoinsEarned)
			}
			if !testCase.wantStored {
				if badges.recorded != 0 || wallet.creditedAmount != 0 {
					t.Errorf("%s, Process(): reward steps ran for a gated report", testCase.name)
				}
				continue
			}
			if len(result.PartialFailures) != 0 {
				t.Errorf("%s, Process(): unexpected partial failures: %v", testCase.name, result.PartialFailures)
			}
			if result.TotalReports != 3 || result.NextBadge != models.LevelBronze || result.ReportsNeeded != 7 {
				t.Errorf("%s, Process(): unexpected progression: %d reports, next %q in %d",
					testCase.name, result.TotalReports, result.NextBadge, result.ReportsNeeded)
			}
			if cities.countedCity != "Oslo" {
				t.Errorf("%s, Process(): expected city Oslo counted, got %q", testCase.name, cities.countedCity)
			}
			if cities.engagementDelta != testCase.wantDelta {
				t.Errorf("%s, Process(): expected engagement delta %v, got %v",
					testCase.name, testCase.wantDelta, cities.engagementDelta)
			}
		}
	})
}

func TestProcessRetryIsIdempotent(t *testing.T) {
	it(func() {
		cl := &fakeClassifier{verdict: &classifier.Verdict{IsValid: true, Severity: "High"}}
		badges := &fakeBadges{stats: &models.UserBadgeStats{UserID: "user-1", TotalReports: 1}}
		wallet := &fakeWallet{}
		cities := &fakeCities{}
		o := NewOrchestrator(db, testConfig(), cl, badges, wallet, cities, nil, nextTierStub)

		mock.ExpectExec("INSERT INTO waste_reports (.+) ON DUPLICATE KEY UPDATE analysis = VALUES\\(analysis\\)").
			WillReturnResult(sqlmock.NewResult(1, 2))
		// Zero rows affected: this report id was already rewarded.
		mock.ExpectExec("INSERT IGNORE INTO report_rewards (.+)").
			WithArgs("report-1", "user-1", 15).
			WillReturnResult(sqlmock.NewResult(0, 0))

		result, err := o.Process(context.Background(), Submission{
			ReportID:    "report-1",
			UserID:      "user-1",
			ImageBase64: "aGk=",
			Location:    "47.1,8.2",
			City:        "Oslo",
		})
		if err != nil {
			t.Errorf("Process(): unexpected error: %v", err)
			return
		}
		if !result.Stored || result.ReportID != "report-1" {
			t.Errorf("Process(): expected report-1 stored, got stored=%v id=%q", result.Stored, result.ReportID)
		}
		if result.CoinsEarned != 0 || badges.recorded != 0 || wallet.creditedAmount != 0 || cities.countedCity != "" {
			t.Errorf("Process(): reward steps ran again on retry")
		}
	})
}

func TestProcessClassifierFailure(t *testing.T) {
	it(func() {
		cl := &fakeClassifier{err: classifier.ErrUnavailable}
		o := NewOrchestrator(db, testConfig(), cl, &fakeBadges{}, &fakeWallet{}, &fakeCities{}, nil, nextTierStub)

		_, err := o.Process(context.Background(), Submission{UserID: "user-1", ImageBase64: "aGk="})
		if !errors.Is(err, classifier.ErrUnavailable) {
			t.Errorf("Process(): expected error: %v, got error: %v", classifier.ErrUnavailable, err)
		}
	})
}

func TestProcessPartialFailure(t *testing.T) {
	it(func() {
		cl := &fakeClassifier{verdict: &classifier.Verdict{IsValid: true, Severity: "Medium"}}
		badges := &fakeBadges{err: errors.New("badge store down")}
		wallet := &fakeWallet{}
		cities := &fakeCities{}
		o := NewOrchestrator(db, testConfig(), cl, badges, wallet, cities, nil, nextTierStub)

		mock.ExpectExec("INSERT INTO waste_reports (.+)").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT IGNORE INTO report_rewards (.+)").
			WillReturnResult(sqlmock.NewResult(1, 1))

		result, err := o.Process(context.Background(), Submission{
			UserID:      "user-1",
			ImageBase64: "aGk=",
			Location:    "47.1,8.2",
			City:        "Oslo",
		})
		if err != nil {
			t.Errorf("Process(): unexpected error: %v", err)
			return
		}
		if !result.Stored {
			t.Errorf("Process(): expected the report stored despite the badge failure")
		}
		if len(result.PartialFailures) != 1 {
			t.Errorf("Process(): expected 1 partial failure, got %v", result.PartialFailures)
		}
		// The remaining steps still run.
		if result.CoinsEarned != 10 {
			t.Errorf("Process(): expected 10 coins, got %d", result.CoinsEarned)
		}
		if cities.countedCity != "Oslo" {
			t.Errorf("Process(): expected city Oslo counted, got %q", cities.countedCity)
		}
	})
}

func TestProcessFallsBackToUserCity(t *testing.T) {
	it(func() {
		cl := &fakeClassifier{verdict: &classifier.Verdict{IsValid: true, Severity: "Medium"}}
		cities := &fakeCities{userCity: "Bergen"}
		o := NewOrchestrator(db, testConfig(), cl,
			&fakeBadges{stats: &models.UserBadgeStats{UserID: "user-1", TotalReports: 1}},
			&fakeWallet{}, cities, nil, nextTierStub)

		mock.ExpectExec("INSERT INTO waste_reports (.+)").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT IGNORE INTO report_rewards (.+)").
			WillReturnResult(sqlmock.NewResult(1, 1))

		_, err := o.Process(context.Background(), Submission{
			UserID:      "user-1",
			ImageBase64: "aGk=",
			Location:    "47.1,8.2",
		})
		if err != nil {
			t.Errorf("Process(): unexpected error: %v", err)
			return
		}
		if cities.countedCity != "Bergen" {
			t.Errorf("Process(): expected the user's city Bergen counted, got %q", cities.countedCity)
		}
	})
}

func TestGetReport(t *testing.T) {
	it(func() {
		o := NewOrchestrator(db, testConfig(), nil, nil, nil, nil, nil, nextTierStub)

		mock.ExpectQuery("SELECT id, user_id, description, location, city, severity, (.+) FROM waste_reports WHERE id = (.+)").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := o.GetReport(context.Background(), "missing")
		if !errors.Is(err, ErrReportNotFound) {
			t.Errorf("GetReport(): expected error: %v, got error: %v", ErrReportNotFound, err)
		}
	})
}
