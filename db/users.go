// ABOUTME: User database operations
// ABOUTME: Handles wholesale user upserts from full syncs
package db

import (
	"database/sql"
	"time"

	"github.com/pulsemap/pulsemap/models"
)

func SaveUser(db *sql.DB, u *models.User) error {
	now := time.Now()
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	_, err := db.Exec(`
		INSERT INTO users (id, name, email, enabled, is_admin, is_guest, last_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			enabled = excluded.enabled,
			is_admin = excluded.is_admin,
			is_guest = excluded.is_guest,
			last_activity = excluded.last_activity,
			updated_at = excluded.updated_at
	`, u.ID, u.Name, u.Email, u.Enabled, u.IsAdmin, u.IsGuest, u.LastActivity, u.CreatedAt, u.UpdatedAt)

	return err
}

func GetUsers(db *sql.DB) ([]models.User, error) {
	rows, err := db.Query(`
		SELECT id, name, email, enabled, is_admin, is_guest, last_activity, created_at, updated_at
		FROM users
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Enabled, &u.IsAdmin, &u.IsGuest, &u.LastActivity, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func CountUsers(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
