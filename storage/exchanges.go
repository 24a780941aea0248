package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Exchange is one raw prompt or reply as sent to or received from the model.
type Exchange struct {
	ID        int64
	SessionID string
	Direction string
	Model     string
	Content   string
	CreatedAt time.Time
}

// ExchangeLog is an append-only record of every prompt and reply, kept in
// an sqlite database under the data directory.
type ExchangeLog struct {
	db  *sql.DB
	now func() time.Time
}

func NewExchangeLog(dataDir string) (*ExchangeLog, error) {
	dbPath := filepath.Join(dataDir, "exchanges.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log := &ExchangeLog{db: db, now: time.Now}

	if err := log.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return log, nil
}

func (l *ExchangeLog) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
	`

	if _, err := l.db.Exec(schema); err != nil {
		return err
	}

	if err := l.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// migrateSchema adds columns introduced after the first release.
func (l *ExchangeLog) migrateSchema() error {
	hasModel, err := l.columnExists("exchanges", "model")
	if err != nil {
		return fmt.Errorf("failed to check for model column: %w", err)
	}

	if !hasModel {
		if _, err := l.db.Exec(`ALTER TABLE exchanges ADD COLUMN model TEXT DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add model column: %w", err)
		}
	}

	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (l *ExchangeLog) columnExists(tableName, columnName string) (bool, error) {
	rows, err := l.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid          int
			name         string
			dataType     string
			notNull      int
			defaultValue any
			pk           int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// Record appends one exchange.
func (l *ExchangeLog) Record(sessionID, direction, modelName, content string) error {
	query := `
	INSERT INTO exchanges (session_id, direction, model, content, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	if _, err := l.db.Exec(query, sessionID, direction, modelName, content, l.now().UTC()); err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// Recent returns up to limit of the latest exchanges of a session, oldest
// first.
func (l *ExchangeLog) Recent(sessionID string, limit int) ([]Exchange, error) {
	query := `
	SELECT id, session_id, direction, model, content, created_at
	FROM (
		SELECT * FROM exchanges
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	)
	ORDER BY id ASC
	`

	rows, err := l.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Direction, &e.Model, &e.Content, &e.CreatedAt); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}

	return exchanges, rows.Err()
}

// DeleteSession removes every exchange of a session.
func (l *ExchangeLog) DeleteSession(sessionID string) error {
	_, err := l.db.Exec(`DELETE FROM exchanges WHERE session_id = ?`, sessionID)
	return err
}

func (l *ExchangeLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
