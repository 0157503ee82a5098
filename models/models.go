package models

import "time"

// Severity is the classifier-assigned dirtiness label for a reported area.
type Severity string

const (
	SeverityClean    Severity = "Clean"
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Qualifies reports whether a verdict at this severity is persisted and
// rewarded. Clean and Low reports are discarded.
func (s Severity) Qualifies() bool {
	switch s {
	case SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// EngagementDelta is the per-report contribution to the reporting city's
// engagement score.
func (s Severity) EngagementDelta() float64 {
	switch s {
	case SeverityCritical:
		return 2.0
	case SeverityHigh:
		return 1.0
	case SeverityMedium:
		return 0.5
	}
	return 0
}

// BadgeLevel is an ordered achievement tier.
type BadgeLevel string

const (
	LevelBronze   BadgeLevel = "bronze"
	LevelSilver   BadgeLevel = "silver"
	LevelGold     BadgeLevel = "gold"
	LevelPlatinum BadgeLevel = "platinum"
	LevelDiamond  BadgeLevel = "diamond"
)

// Badge is a static catalog entry defining one tier.
type Badge struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Level           BadgeLevel `json:"level"`
	RequiredReports int        `json:"required_reports"`
	ImageURL        string     `json:"image_url"`
	Rewards         []string   `json:"rewards"`
}

// UserBadge is one earned tier instance. At most one exists per
// (user, badge) pair.
type UserBadge struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BadgeID    string     `json:"badge_id"`
	BadgeName  string     `json:"badge_name"`
	BadgeLevel BadgeLevel `json:"badge_level"`
	EarnedAt   time.Time  `json:"earned_at"`
	Claimed    bool       `json:"claimed"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	Rewards    []string   `json:"rewards,omitempty"`
}

// UserBadgeStats tracks the cumulative report counter behind tier
// assignment. TotalReports never decreases.
type UserBadgeStats struct {
	UserID       string    `json:"user_id"`
	TotalReports int       `json:"total_reports"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DigitalWallet is the per-user coin balance. Balance always equals
// TotalEarned - TotalSpent and never goes negative.
type DigitalWallet struct {
	UserID      string    `json:"user_id"`
	Balance     int       `json:"balance"`
	TotalEarned int       `json:"total_earned"`
	TotalSpent  int       `json:"total_spent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EcoCoinTransaction is an append-only ledger entry. The wallet balance is
// a cache derived from these.
type EcoCoinTransaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Type         string    `json:"type"` // "earn" or "spend"
	Amount       int       `json:"amount"`
	Description  string    `json:"description"`
	BenefitID    string    `json:"benefit_id,omitempty"`
	BenefitName  string    `json:"benefit_name,omitempty"`
	ValidityDays int       `json:"validity_days,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Benefit is a fixed catalog entry redeemable for coins.
type Benefit struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CoinsRequired int    `json:"coins_required"`
	Description   string `json:"description"`
	ValidityDays  int    `json:"validity_days"`
}

// CityStats aggregates per-city reporting activity. Keyed by the
// lower-cased city name; CityName keeps the original casing for display.
type CityStats struct {
	CityName        string    `json:"city_name"`
	State           string    `json:"state,omitempty"`
	Country         string    `json:"country,omitempty"`
	TotalReports    int       `json:"total_reports"`
	ResolvedReports int       `json:"resolved_reports"`
	PendingReports  int       `json:"pending_reports"`
	TotalUsers      int       `json:"total_users"`
	EngagementScore float64   `json:"engagement_score"`
	ResponseRate    float64   `json:"response_rate"`
	AvgResponseTime float64   `json:"avg_response_time"`
	AuthorityScore  float64   `json:"authority_score"`
	CitizenScore    float64   `json:"citizen_score"`
	TotalScore      float64   `json:"total_score"`
	LastUpdated     time.Time `json:"last_updated"`
}

// RankedCity is a leaderboard row.
type RankedCity struct {
	Rank int `json:"rank"`
	CityStats
}

// PickupRequest is a scheduled waste collection.
type PickupRequest struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	PickupDate  time.Time `json:"pickup_date"`
	Status      string    `json:"status"` // pending, confirmed, completed, cancelled
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WasteReport is a persisted, severity-qualifying report.
type WasteReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	City        string    `json:"city,omitempty"`
	Severity    Severity  `json:"severity"`
	Confidence  float64   `json:"confidence_score"`
	IsValid     bool      `json:"is_valid"`
	Analysis    string    `json:"analysis,omitempty"` // full verdict passthrough, JSON
	Status      string    `json:"status"`             // pending, in_progress, resolved
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
