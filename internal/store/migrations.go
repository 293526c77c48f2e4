package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Recording sessions - one row per stopped recording
		`CREATE TABLE IF NOT EXISTS recording_sessions (
			id TEXT PRIMARY KEY,
			label INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Labeled samples - one row per recorded frame, features as a JSON array
		`CREATE TABLE IF NOT EXISTS labeled_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES recording_sessions(id),
			label INTEGER NOT NULL,
			features TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_labeled_samples_label ON labeled_samples(label)`,
		`CREATE INDEX IF NOT EXISTS idx_labeled_samples_session_id ON labeled_samples(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
