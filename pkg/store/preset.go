package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested preset does not exist.
var ErrNotFound = errors.New("preset not found")

// Preset is a saved plugin state.
type Preset struct {
	ID          string
	PluginLabel string
	Name        string
	Blob        []byte
	CreatedAt   time.Time
}

// Save inserts p. An empty ID is replaced with a new UUID. The label and
// name are required.
func (s *Store) Save(p *Preset) error {
	if p.PluginLabel == "" {
		return errors.New("preset plugin label is required")
	}
	if p.Name == "" {
		return errors.New("preset name is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Blob == nil {
		p.Blob = []byte{}
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO presets (id, plugin_label, name, blob, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.PluginLabel, p.Name, p.Blob, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save preset %q: %w", p.Name, err)
	}

	return nil
}

// Get retrieves a preset by id.
func (s *Store) Get(id string) (*Preset, error) {
	p := &Preset{}

	err := s.db.QueryRow(
		`SELECT id, plugin_label, name, blob, created_at
		 FROM presets WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.PluginLabel, &p.Name, &p.Blob, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// List returns the presets for a plugin label, oldest first. An empty
// label lists every preset.
func (s *Store) List(label string) ([]*Preset, error) {
	query := `SELECT id, plugin_label, name, blob, created_at FROM presets`
	var args []any
	if label != "" {
		query += ` WHERE plugin_label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY created_at, name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p := &Preset{}
		if err := rows.Scan(&p.ID, &p.PluginLabel, &p.Name, &p.Blob, &p.CreatedAt); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}

	return presets, rows.Err()
}

// Delete removes a preset by id.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
