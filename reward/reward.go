// Package reward sequences the incentive side effects of an accepted
// waste report: report persistence, badge tier progression, eco-coin
// credit and city score updates.
package reward

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ecosmart/classifier"
	"ecosmart/config"
	"ecosmart/models"
	"ecosmart/notification"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrReportNotFound is returned when a report id does not exist.
var ErrReportNotFound = errors.New("report not found")

// BadgeEngine records accepted reports against the user's tier ladder.
type BadgeEngine interface {
	RecordReport(ctx context.Context, userID string) (*models.UserBadgeStats, []models.Badge, error)
}

// WalletLedger credits earned coins.
type WalletLedger interface {
	Credit(ctx context.Context, userID string, amount int, description string) (*models.DigitalWallet, error)
}

// CityEngine updates the reporting city's counters.
type CityEngine interface {
	IncrementReportCount(ctx context.Context, city string, resolved bool) error
	AdjustEngagement(ctx context.Context, city string, delta float64) error
	UserCity(ctx context.Context, userID string) (string, error)
}

// Submission is one citizen report awaiting classification.
type Submission struct {
	// ReportID lets callers retry a submission without double rewarding;
	// generated when empty.
	ReportID    string
	UserID      string
	ImageBase64 string
	Description string
	Location    string
	City        string
	Timestamp   time.Time
}

// Result is the submission outcome returned to the caller.
type Result struct {
	Verdict *classifier.Verdict `json:"validation"`
	Stored  bool                `json:"stored"`

	ReportID      string            `json:"report_id,omitempty"`
	CoinsEarned   int               `json:"coins_earned,omitempty"`
	NewBadges     []models.Badge    `json:"new_badges,omitempty"`
	TotalReports  int               `json:"total_reports,omitempty"`
	NextBadge     models.BadgeLevel `json:"next_badge,omitempty"`
	ReportsNeeded int               `json:"reports_needed,omitempty"`

	// PartialFailures lists reward steps that failed after the report was
	// stored. The report itself is never rolled back; listed steps are
	// reconciled out of band.
	PartialFailures []string `json:"partial_failures,omitempty"`
}

// Orchestrator owns the reports store plus the per-report reward log and
// drives the incentive engines. It mutates none of their entities itself.
type Orchestrator struct {
	db         *sql.DB
	cfg        *config.Config
	classifier classifier.Client
	badges     BadgeEngine
	wallet     WalletLedger
	cities     CityEngine
	notifier   notification.Notifier

	nextTier func(totalReports int) (models.BadgeLevel, int)
}

func NewOrchestrator(db *sql.DB, cfg *config.Config, cl classifier.Client,
	badges BadgeEngine, wallet WalletLedger, cities CityEngine,
	notifier notification.Notifier,
	nextTier func(int) (models.BadgeLevel, int)) *Orchestrator {
	return &Orchestrator{
		db:         db,
		cfg:        cfg,
		classifier: cl,
		badges:     badges,
		wallet:     wallet,
		cities:     cities,
		notifier:   notifier,
		nextTier:   nextTier,
	}
}

// EnsureSchema creates the report tables if they don't exist.
func (o *Orchestrator) EnsureSchema(ctx context.Context) error {
	tables := []string{`
		CREATE TABLE IF NOT EXISTS waste_reports (
			id VARCHAR(36) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			description VARCHAR(1024) NOT NULL DEFAULT '',
			location VARCHAR(512) NOT NULL,
			city VARCHAR(255) NOT NULL DEFAULT '',
			severity ENUM('Medium', 'High', 'Critical') NOT NULL,
			confidence DOUBLE NOT NULL DEFAULT 0,
			is_valid BOOLEAN NOT NULL DEFAULT TRUE,
			analysis MEDIUMTEXT,
			status ENUM('pending', 'in_progress', 'resolved') NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX idx_user (user_id),
			INDEX idx_severity_status (severity, status)
		)`, `
		CREATE TABLE IF NOT EXISTS report_rewards (
			report_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			coins INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (report_id)
		)`,
	}
	for _, table := range tables {
		if _, err := o.db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to ensure report schema: %w", err)
		}
	}
	return nil
}

// Process runs one submission end to end: classify, gate on severity,
// persist, then apply rewards. Reward failures after persistence are
// reported in Result.PartialFailures, never as an error.
func (o *Orchestrator) Process(ctx context.Context, sub Submission) (*Result, error) {
	verdict, err := o.classifier.Validate(ctx, classifier.Request{
		ImageBase64: sub.ImageBase64,
		Description: sub.Description,
		Location:    sub.Location,
		Timestamp:   sub.Timestamp,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Verdict: verdict}
	severity := models.Severity(verdict.Severity)
	if !severity.Qualifies() {
		log.Infof("Report from %s at %q not stored: severity %q", sub.UserID, sub.Location, verdict.Severity)
		return result, nil
	}

	report, err := o.saveReport(ctx, sub, verdict, severity)
	if err != nil {
		return nil, err
	}
	result.Stored = true
	result.ReportID = report.ID

	first, err := o.markRewarded(ctx, report.ID, sub.UserID, o.CoinsFor(severity))
	if err != nil {
		result.PartialFailures = append(result.PartialFailures, fmt.Sprintf("reward bookkeeping: %v", err))
	} else if !first {
		// Retried submission: the report row was refreshed, rewards were
		// already applied the first time around.
		log.Infof("Report %s already rewarded, skipping reward steps", report.ID)
		return result, nil
	} else {
		o.applyRewards(ctx, sub, severity, result)
	}

	if o.notifier != nil {
		go o.notifier.NotifyReport(report)
	}
	return result, nil
}

// applyRewards runs the badge, wallet and city steps. Each is an
// independent side effect; one failing never unwinds the others.
func (o *Orchestrator) applyRewards(ctx context.Context, sub Submission, severity models.Severity, result *Result) {
	stats, newBadges, err := o.badges.RecordReport(ctx, sub.UserID)
	if err != nil {
		log.Errorf("Failed to record report for badges of %s: %v", sub.UserID, err)
		result.PartialFailures = append(result.PartialFailures, fmt.Sprintf("badge progression: %v", err))
	} else {
		result.NewBadges = newBadges
		result.TotalReports = stats.TotalReports
		result.NextBadge, result.ReportsNeeded = o.nextTier(stats.TotalReports)
	}

	coins := o.CoinsFor(severity)
	description := fmt.Sprintf("Eco-coins for %s severity waste report", severity)
	if _, err := o.wallet.Credit(ctx, sub.UserID, coins, description); err != nil {
		log.Errorf("Failed to credit %d coins to %s: %v", coins, sub.UserID, err)
		result.PartialFailures = append(result.PartialFailures, fmt.Sprintf("coin credit: %v", err))
	} else {
		result.CoinsEarned = coins
	}

	city, err := o.reportCity(ctx, sub)
	if err != nil {
		log.Errorf("Failed to resolve city for %s: %v", sub.UserID, err)
		result.PartialFailures = append(result.PartialFailures, fmt.Sprintf("city lookup: %v", err))
		return
	}
	if city == "" {
		return
	}
	if err := o.cities.IncrementReportCount(ctx, city, false); err != nil {
		log.Errorf("Failed to count report for city %s: %v", city, err)
		result.PartialFailures = append(result.PartialFailures, fmt.Sprintf("city report count: %v", err))
	}
	if err := o.cities.AdjustEngagement(ctx, city, severity.EngagementDelta()); err != nil {
		log.Errorf("Failed to adjust engagement for city %s: %v", city, err)
		result.PartialFailures = append(result.PartialFailures, fmt.Sprintf("city engagement: %v", err))
	}
}

// CoinsFor computes round(base x multiplier) for a qualifying severity,
// 0 otherwise.
func (o *Orchestrator) CoinsFor(severity models.Severity) int {
	var mult float64
	switch severity {
	case models.SeverityMedium:
		mult = o.cfg.MediumMultiplier
	case models.SeverityHigh:
		mult = o.cfg.HighMultiplier
	case models.SeverityCritical:
		mult = o.cfg.CriticalMultiplier
	default:
		return 0
	}
	coins := decimal.NewFromInt(int64(o.cfg.BaseCoinsPerReport)).
		Mul(decimal.NewFromFloat(mult)).
		Round(0)
	return int(coins.IntPart())
}

func (o *Orchestrator) saveReport(ctx context.Context, sub Submission, verdict *classifier.Verdict, severity models.Severity) (*models.WasteReport, error) {
	report := &models.WasteReport{
		ID:          sub.ReportID,
		UserID:      sub.UserID,
		Description: sub.Description,
		Location:    sub.Location,
		City:        sub.City,
		Severity:    severity,
		Confidence:  verdict.ConfidenceScore,
		IsValid:     verdict.IsValid,
		Analysis:    verdict.Raw,
		Status:      "pending",
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	_, err := o.db.ExecContext(ctx, `
		INSERT INTO waste_reports (id, user_id, description, location, city, severity, confidence, is_valid, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE analysis = VALUES(analysis)`,
		report.ID, report.UserID, report.Description, report.Location, report.City,
		report.Severity, report.Confidence, report.IsValid, report.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to save report for %s: %w", sub.UserID, err)
	}
	log.Infof("Saved report %s from %s with severity %s", report.ID, report.UserID, report.Severity)
	return report, nil
}

// markRewarded claims the reward application for a report id. Reports
// whether this call was the first to claim it.
func (o *Orchestrator) markRewarded(ctx context.Context, reportID, userID string, coins int) (bool, error) {
	res, err := o.db.ExecContext(ctx, `
		INSERT IGNORE INTO report_rewards (report_id, user_id, coins)
		VALUES (?, ?, ?)`, reportID, userID, coins)
	if err != nil {
		return false, fmt.Errorf("failed to log reward for report %s: %w", reportID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get status of reward log: %w", err)
	}
	return rows == 1, nil
}

func (o *Orchestrator) reportCity(ctx context.Context, sub Submission) (string, error) {
	if sub.City != "" {
		return sub.City, nil
	}
	return o.cities.UserCity(ctx, sub.UserID)
}

// GetReport returns one stored report.
func (o *Orchestrator) GetReport(ctx context.Context, reportID string) (*models.WasteReport, error) {
	r := &models.WasteReport{}
	var analysis sql.NullString
	err := o.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, location, city, severity, confidence, is_valid, analysis, status, created_at, updated_at
		FROM waste_reports
		WHERE id = ?`, reportID).
		Scan(&r.ID, &r.UserID, &r.Description, &r.Location, &r.City, &r.Severity,
			&r.Confidence, &r.IsValid, &analysis, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", reportID, err)
	}
	r.Analysis = analysis.String
	return r, nil
}

// ListReports returns stored reports, newest first, optionally filtered by
// severity and status.
func (o *Orchestrator) ListReports(ctx context.Context, severity, status string, limit int) ([]models.WasteReport, error) {
	query := `
		SELECT id, user_id, description, location, city, severity, confidence, is_valid, analysis, status, created_at, updated_at
		FROM waste_reports`
	conditions := []string{}
	args := []any{}
	if severity != "" {
		conditions = append(conditions, "severity = ?")
		args = append(args, severity)
	}
	if status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, status)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []models.WasteReport{}
	for rows.Next() {
		var (
			r        models.WasteReport
			analysis sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Description, &r.Location, &r.City, &r.Severity,
			&r.Confidence, &r.IsValid, &analysis, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			log.Errorf("Cannot scan a report row: %v", err)
			continue
		}
		r.Analysis = analysis.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
