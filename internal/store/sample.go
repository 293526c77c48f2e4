package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/features"
)

// Session is a stored recording summary.
type Session struct {
	ID        string    `json:"id"`
	Label     int       `json:"label"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
}

// Append inserts a recording session and its samples in a single
// transaction, so either every row lands or none does.
func (s *Store) Append(session string, samples []collect.LabeledSample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO recording_sessions (id, label, samples, created_at) VALUES (?, ?, ?, ?)`,
		session, samples[0].Label, len(samples), time.Now()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO labeled_samples (session_id, label, features) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sample := range samples {
		data, err := json.Marshal(sample.Features.Slice())
		if err != nil {
			return fmt.Errorf("encode sample %d: %w", i, err)
		}
		if _, err := stmt.Exec(session, sample.Label, string(data)); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Counts returns the number of stored samples per label.
func (s *Store) Counts() (map[int]int, error) {
	rows, err := s.db.Query(`SELECT label, COUNT(*) FROM labeled_samples GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var label, n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// All returns every stored sample in arrival order.
func (s *Store) All() ([]collect.LabeledSample, error) {
	rows, err := s.db.Query(`SELECT label, features FROM labeled_samples ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []collect.LabeledSample
	for rows.Next() {
		var label int
		var data string
		if err := rows.Scan(&label, &data); err != nil {
			return nil, err
		}

		var values []float64
		if err := json.Unmarshal([]byte(data), &values); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
		v, err := features.FromSlice(values)
		if err != nil {
			return nil, err
		}
		samples = append(samples, collect.LabeledSample{Label: label, Features: v})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Sessions lists stored recording sessions, newest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, label, samples, created_at FROM recording_sessions ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.Samples, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// GetSession retrieves a recording session by its ID.
func (s *Store) GetSession(id string) (*Session, error) {
	sess := &Session{}
	err := s.db.QueryRow(
		`SELECT id, label, samples, created_at FROM recording_sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Label, &sess.Samples, &sess.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sess, nil
}
