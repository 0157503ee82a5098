// Package pickup schedules waste collections and tracks their status.
package pickup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecosmart/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

var (
	// ErrPickupNotFound is returned when a pickup id does not exist.
	ErrPickupNotFound = errors.New("pickup not found")
	// ErrInvalidStatus is returned for a status outside the lifecycle.
	ErrInvalidStatus = errors.New("invalid pickup status")
)

// Status lifecycle of a pickup request.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Service owns scheduled pickup requests.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// EnsureSchema creates the pickup table if it doesn't exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pickup_requests (
			id VARCHAR(36) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			description VARCHAR(1024) NOT NULL DEFAULT '',
			location VARCHAR(512) NOT NULL,
			pickup_date TIMESTAMP NOT NULL,
			status ENUM('pending', 'confirmed', 'completed', 'cancelled') NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX idx_user (user_id),
			INDEX idx_date (pickup_date)
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure pickup schema: %w", err)
	}
	return nil
}

// Schedule stores a new pickup request as pending and returns it with its
// generated id.
func (s *Service) Schedule(ctx context.Context, p *models.PickupRequest) (*models.PickupRequest, error) {
	p.ID = uuid.NewString()
	p.Status = StatusPending

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO pickup_requests (id, user_id, description, location, pickup_date)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Description, p.Location, p.PickupDate); err != nil {
		return nil, fmt.Errorf("failed to schedule pickup for %s: %w", p.UserID, err)
	}
	log.Infof("Scheduled pickup %s for %s at %q", p.ID, p.UserID, p.Location)
	return p, nil
}

// All returns every pickup request, earliest pickup date first.
func (s *Service) All(ctx context.Context) ([]models.PickupRequest, error) {
	return s.list(ctx, pickupQuery+` ORDER BY pickup_date ASC`)
}

// ForUser returns one user's pickup requests, earliest pickup date first.
func (s *Service) ForUser(ctx context.Context, userID string) ([]models.PickupRequest, error) {
	return s.list(ctx, pickupQuery+` WHERE user_id = ? ORDER BY pickup_date ASC`, userID)
}

// Get returns one pickup request or ErrPickupNotFound.
func (s *Service) Get(ctx context.Context, pickupID string) (*models.PickupRequest, error) {
	p := &models.PickupRequest{}
	err := s.db.QueryRowContext(ctx, pickupQuery+` WHERE id = ?`, pickupID).
		Scan(&p.ID, &p.UserID, &p.Description, &p.Location, &p.PickupDate,
			&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPickupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pickup %s: %w", pickupID, err)
	}
	return p, nil
}

// UpdateStatus moves a pickup to a new lifecycle status and returns the
// updated request. Setting the current status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, pickupID, status string) (*models.PickupRequest, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE pickup_requests SET status = ? WHERE id = ?`, status, pickupID); err != nil {
		return nil, fmt.Errorf("failed to update pickup %s: %w", pickupID, err)
	}
	return s.Get(ctx, pickupID)
}

const pickupQuery = `
	SELECT id, user_id, description, location, pickup_date, status, created_at, updated_at
	FROM pickup_requests`

func (s *Service) list(ctx context.Context, query string, args ...any) ([]models.PickupRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pickups: %w", err)
	}
	defer rows.Close()

	pickups := []models.PickupRequest{}
	for rows.Next() {
		var p models.PickupRequest
		if err := rows.Scan(&p.ID, &p.UserID, &p.Description, &p.Location, &p.PickupDate,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			log.Errorf("Cannot scan a pickup row: %v", err)
			continue
		}
		pickups = append(pickups, p)
	}
	return pickups, rows.Err()
}
