package badge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ecosmart/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

var (
	// ErrUnknownLevel is returned for a badge level outside the catalog.
	ErrUnknownLevel = errors.New("unknown badge level")
	// ErrBadgeNotFound is returned when an earned badge id does not exist.
	ErrBadgeNotFound = errors.New("badge not found")
)

// tierThresholds is the ordered tier ladder: cumulative report counts at
// which each level is earned.
var tierThresholds = []struct {
	Level     models.BadgeLevel
	Threshold int
}{
	{models.LevelBronze, 10},
	{models.LevelSilver, 25},
	{models.LevelGold, 50},
	{models.LevelPlatinum, 100},
	{models.LevelDiamond, 250},
}

// NextTier returns the next level a user with totalReports has not reached
// yet and how many more reports it takes. Past the top tier it returns
// ("", 0).
func NextTier(totalReports int) (models.BadgeLevel, int) {
	for _, t := range tierThresholds {
		if totalReports < t.Threshold {
			return t.Level, t.Threshold - totalReports
		}
	}
	return "", 0
}

// CurrentTier returns the highest level whose threshold is at or below
// totalReports, or "" when none is reached.
func CurrentTier(totalReports int) models.BadgeLevel {
	current := models.BadgeLevel("")
	for _, t := range tierThresholds {
		if totalReports >= t.Threshold {
			current = t.Level
		}
	}
	return current
}

// ThresholdFor returns the report count required for a level.
func ThresholdFor(level models.BadgeLevel) (int, error) {
	for _, t := range tierThresholds {
		if t.Level == level {
			return t.Threshold, nil
		}
	}
	return 0, ErrUnknownLevel
}

// EcoScore derives the 0-100 profile score shown alongside badges.
func EcoScore(totalReports int) int {
	score := totalReports * 2
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// Service owns the badge catalog, earned badges and per-user report
// counters. Counters only grow, and the unique (user_id, badge_id) key
// guarantees at most one earned instance per tier even when concurrent
// reports cross the same threshold.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// EnsureSchema creates the badge tables if they don't exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	tables := []string{`
		CREATE TABLE IF NOT EXISTS badges (
			id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description VARCHAR(512) NOT NULL,
			level ENUM('bronze', 'silver', 'gold', 'platinum', 'diamond') NOT NULL,
			required_reports INT NOT NULL,
			image_url VARCHAR(255) NOT NULL DEFAULT '',
			rewards TEXT,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_level (level)
		)`, `
		CREATE TABLE IF NOT EXISTS user_badges (
			id VARCHAR(36) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			badge_id VARCHAR(36) NOT NULL,
			badge_name VARCHAR(255) NOT NULL,
			badge_level ENUM('bronze', 'silver', 'gold', 'platinum', 'diamond') NOT NULL,
			earned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			claimed BOOLEAN NOT NULL DEFAULT FALSE,
			claimed_at TIMESTAMP NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_user_badge (user_id, badge_id),
			INDEX idx_user (user_id)
		)`, `
		CREATE TABLE IF NOT EXISTS user_badge_stats (
			user_id VARCHAR(255) NOT NULL,
			total_reports INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id)
		)`,
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to ensure badge schema: %w", err)
		}
	}
	return nil
}

// Seed inserts the default tier catalog when the badges table is empty.
func (s *Service) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM badges`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count badges: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, b := range defaultCatalog {
		rewards, err := json.Marshal(b.Rewards)
		if err != nil {
			return fmt.Errorf("failed to encode rewards for %s: %w", b.Level, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO badges (id, name, description, level, required_reports, image_url, rewards)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), b.Name, b.Description, b.Level, b.RequiredReports, b.ImageURL, rewards); err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", b.Level, err)
		}
	}
	log.Infof("Seeded %d default badges", len(defaultCatalog))
	return nil
}

// RecordReport counts one accepted report for the user, creating the
// counter at 1 when absent, and awards every tier the new total now
// satisfies. Returns the updated stats and the tiers earned by this call.
// Retry de-duplication is keyed on the report id by the caller, so a given
// report reaches this at most once.
func (s *Service) RecordReport(ctx context.Context, userID string) (*models.UserBadgeStats, []models.Badge, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO user_badge_stats (user_id, total_reports) VALUES (?, 1)
		ON DUPLICATE KEY UPDATE total_reports = total_reports + 1`, userID); err != nil {
		return nil, nil, fmt.Errorf("failed to count report for %s: %w", userID, err)
	}

	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	eligible, err := s.badgesUpTo(ctx, stats.TotalReports)
	if err != nil {
		return nil, nil, err
	}

	newlyEarned := []models.Badge{}
	for _, b := range eligible {
		earned, err := s.awardBadge(ctx, userID, b)
		if err != nil {
			return stats, newlyEarned, err
		}
		if earned {
			log.Infof("User %s earned the %s badge at %d reports", userID, b.Level, stats.TotalReports)
			newlyEarned = append(newlyEarned, b)
		}
	}
	return stats, newlyEarned, nil
}

// awardBadge inserts the earned instance unless the user already holds the
// tier. Reports whether a new instance was created.
func (s *Service) awardBadge(ctx context.Context, userID string, b models.Badge) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT IGNORE INTO user_badges (id, user_id, badge_id, badge_name, badge_level)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, b.ID, b.Name, b.Level)
	if err != nil {
		return false, fmt.Errorf("failed to award %s badge to %s: %w", b.Level, userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get status of badge award: %w", err)
	}
	return rows == 1, nil
}

// Stats returns the user's badge counters; absent users get zero stats.
func (s *Service) Stats(ctx context.Context, userID string) (*models.UserBadgeStats, error) {
	stats := &models.UserBadgeStats{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, total_reports, updated_at
		FROM user_badge_stats
		WHERE user_id = ?`, userID).
		Scan(&stats.UserID, &stats.TotalReports, &stats.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read badge stats for %s: %w", userID, err)
	}
	return stats, nil
}

// UserBadges returns all badges the user has earned, newest first, each
// annotated with its catalog reward descriptions.
func (s *Service) UserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ub.id, ub.user_id, ub.badge_id, ub.badge_name, ub.badge_level,
		       ub.earned_at, ub.claimed, ub.claimed_at, b.rewards
		FROM user_badges ub
		LEFT JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = ?
		ORDER BY ub.earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read badges for %s: %w", userID, err)
	}
	defer rows.Close()

	badges := []models.UserBadge{}
	for rows.Next() {
		var (
			ub        models.UserBadge
			claimedAt sql.NullTime
			rewards   sql.NullString
		)
		if err := rows.Scan(&ub.ID, &ub.UserID, &ub.BadgeID, &ub.BadgeName, &ub.BadgeLevel,
			&ub.EarnedAt, &ub.Claimed, &claimedAt, &rewards); err != nil {
			log.Errorf("Cannot scan a user badge row: %v", err)
			continue
		}
		if claimedAt.Valid {
			ub.ClaimedAt = &claimedAt.Time
		}
		if rewards.Valid {
			if err := json.Unmarshal([]byte(rewards.String), &ub.Rewards); err != nil {
				log.Warnf("Bad rewards payload on badge %s: %v", ub.BadgeID, err)
			}
		}
		badges = append(badges, ub)
	}
	return badges, rows.Err()
}

// Catalog returns all tier definitions ordered by required reports.
func (s *Service) Catalog(ctx context.Context) ([]models.Badge, error) {
	return s.badgesUpTo(ctx, -1)
}

// badgesUpTo returns catalog entries with required_reports <= maxReports,
// or the whole catalog when maxReports is negative, ascending by threshold.
func (s *Service) badgesUpTo(ctx context.Context, maxReports int) ([]models.Badge, error) {
	query := `
		SELECT id, name, description, level, required_reports, image_url, rewards
		FROM badges`
	args := []any{}
	if maxReports >= 0 {
		query += ` WHERE required_reports <= ?`
		args = append(args, maxReports)
	}
	query += ` ORDER BY required_reports ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read badge catalog: %w", err)
	}
	defer rows.Close()

	badges := []models.Badge{}
	for rows.Next() {
		var (
			b       models.Badge
			rewards sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Level,
			&b.RequiredReports, &b.ImageURL, &rewards); err != nil {
			log.Errorf("Cannot scan a badge row: %v", err)
			continue
		}
		if rewards.Valid {
			if err := json.Unmarshal([]byte(rewards.String), &b.Rewards); err != nil {
				log.Warnf("Bad rewards payload on badge %s: %v", b.ID, err)
			}
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// AssignBadge force-assigns a tier to a user (administrative path). The
// user's report counter is backfilled up to the tier threshold when lower;
// it is never decreased, and holding the tier already is not an error.
func (s *Service) AssignBadge(ctx context.Context, userID string, level models.BadgeLevel) (*models.UserBadge, error) {
	threshold, err := ThresholdFor(level)
	if err != nil {
		return nil, err
	}

	var b models.Badge
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, description, level, required_reports
		FROM badges
		WHERE level = ?`, level).
		Scan(&b.ID, &b.Name, &b.Description, &b.Level, &b.RequiredReports)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownLevel
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s badge: %w", level, err)
	}

	// Counter first, badge second. Earned tiers must never outrun the
	// report counter, so a failure between the two statements leaves at
	// worst an inflated counter, not an unbacked badge.
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO user_badge_stats (user_id, total_reports) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE total_reports = GREATEST(total_reports, VALUES(total_reports))`,
		userID, threshold); err != nil {
		return nil, fmt.Errorf("failed to backfill report count for %s: %w", userID, err)
	}

	if _, err := s.awardBadge(ctx, userID, b); err != nil {
		return nil, err
	}

	ub := &models.UserBadge{
		UserID:     userID,
		BadgeID:    b.ID,
		BadgeName:  b.Name,
		BadgeLevel: b.Level,
	}
	return ub, nil
}

// ClaimBadge marks an earned badge claimed. Claiming an already claimed
// badge is a no-op.
func (s *Service) ClaimBadge(ctx context.Context, userBadgeID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_badges
		SET claimed = TRUE, claimed_at = NOW()
		WHERE id = ? AND claimed = FALSE`, userBadgeID)
	if err != nil {
		return fmt.Errorf("failed to claim badge %s: %w", userBadgeID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get status of badge claim: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_badges WHERE id = ?`, userBadgeID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check badge %s: %w", userBadgeID, err)
	}
	if n == 0 {
		return ErrBadgeNotFound
	}
	return nil
}
