package trackers

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/samuelfneumann/torcsrl/driver"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		track TEXT,
		training BOOLEAN,
		max_epochs INTEGER,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS episodes (
		run_id TEXT,
		epoch INTEGER,
		ticks INTEGER,
		distance DOUBLE,
		completed_laps INTEGER,
		top_speed DOUBLE,
		end_type TEXT,
		total_reward DOUBLE,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
	CREATE TABLE IF NOT EXISTS epsilon (
		run_id TEXT,
		epoch INTEGER,
		axis TEXT,
		value DOUBLE,
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
`

// SQLite logs every finished episode of a run to a SQLite database.
// Each process is a separate run identified by a random id, so several
// runs can share one database.
type SQLite struct {
	db    *sql.DB
	runID string
	added bool
}

// NewSQLite opens or creates the run log at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("newSQLite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: could not create schema: %w", err)
	}

	return &SQLite{db: db, runID: uuid.NewString()}, nil
}

// RunID returns the id of the run being logged
func (s *SQLite) RunID() string {
	return s.runID
}

// Track inserts a finished episode into the run log
func (s *SQLite) Track(e driver.Episode) {
	if err := s.insert(e); err != nil {
		log.Fatalf("could not log episode: %v", err)
	}
}

func (s *SQLite) insert(e driver.Episode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !s.added {
		_, err = tx.Exec(`INSERT INTO runs (run_id, track, training, max_epochs)
			VALUES (?, ?, ?, ?)`, s.runID, e.Track, e.Training, e.MaxEpochs)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT INTO episodes (run_id, epoch, ticks, distance,
		completed_laps, top_speed, end_type, total_reward)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.runID, e.Epochs, e.Ticks,
		e.DistRaced, e.CompletedLaps, e.TopSpeed, e.End.String(), e.Return)
	if err != nil {
		return err
	}

	for axis, value := range e.Epsilon {
		_, err = tx.Exec(`INSERT INTO epsilon (run_id, epoch, axis, value)
			VALUES (?, ?, ?, ?)`, s.runID, e.Epochs, axis, value)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.added = true
	return nil
}

// Episodes returns the statistics of every episode logged for the run
func (s *SQLite) Episodes() ([]Row, error) {
	rows, err := s.db.Query(`SELECT r.track, e.epoch, e.ticks, e.distance,
		e.completed_laps, r.max_epochs, e.top_speed
		FROM episodes e JOIN runs r ON e.run_id = r.run_id
		WHERE e.run_id = ? ORDER BY e.epoch`, s.runID)
	if err != nil {
		return nil, fmt.Errorf("episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Track, &r.Epoch, &r.Ticks, &r.Distance,
			&r.CompletedLaps, &r.MaxEpochs, &r.TopSpeed); err != nil {
			return nil, fmt.Errorf("episodes: %w", err)
		}
		episodes = append(episodes, r)
	}
	return episodes, rows.Err()
}

// Epsilon returns the exploration rate of an axis logged for each
// epoch of the run
func (s *SQLite) Epsilon(axis string) (map[int]float64, error) {
	rows, err := s.db.Query(`SELECT epoch, value FROM epsilon
		WHERE run_id = ? AND axis = ?`, s.runID, axis)
	if err != nil {
		return nil, fmt.Errorf("epsilon: %w", err)
	}
	defer rows.Close()

	eps := make(map[int]float64)
	for rows.Next() {
		var (
			epoch int
			value float64
		)
		if err := rows.Scan(&epoch, &value); err != nil {
			return nil, fmt.Errorf("epsilon: %w", err)
		}
		eps[epoch] = value
	}
	return eps, rows.Err()
}

// Save closes the run log
func (s *SQLite) Save() {
	if err := s.db.Close(); err != nil {
		log.Fatalf("could not close run log: %v", err)
	}
}
