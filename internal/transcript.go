package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const transcriptSchema = `CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	sources TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);`

// Transcript records chat turns in a SQLite database.
type Transcript struct {
	db *sqlx.DB
}

type turnRow struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_id"`
	Question  string    `db:"question"`
	Answer    string    `db:"answer"`
	Sources   string    `db:"sources"`
	CreatedAt time.Time `db:"created_at"`
}

func OpenTranscript(path string) (*Transcript, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	if _, err := db.Exec(transcriptSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init transcript schema: %w", err)
	}

	return &Transcript{db: db}, nil
}

func (t *Transcript) Record(ctx context.Context, sessionID string, turn Turn) error {
	ids := make([]string, len(turn.Sources))
	for i, id := range turn.Sources {
		ids[i] = id.String()
	}

	_, err := t.db.NamedExecContext(ctx,
		`INSERT INTO turns (session_id, question, answer, sources, created_at)
		 VALUES (:session_id, :question, :answer, :sources, :created_at)`,
		turnRow{
			SessionID: sessionID,
			Question:  turn.Question,
			Answer:    turn.Answer,
			Sources:   strings.Join(ids, "\n"),
			CreatedAt: turn.At.UTC(),
		})
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// Turns returns a session's turns in the order they were recorded.
func (t *Transcript) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	var rows []turnRow
	err := t.db.SelectContext(ctx, &rows,
		`SELECT id, session_id, question, answer, sources, created_at
		 FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select turns: %w", err)
	}

	turns := make([]Turn, len(rows))
	for i, r := range rows {
		var sources []FragmentID
		if r.Sources != "" {
			for _, id := range strings.Split(r.Sources, "\n") {
				sources = append(sources, FragmentID(id))
			}
		}
		turns[i] = Turn{
			Question: r.Question,
			Answer:   r.Answer,
			Sources:  sources,
			At:       r.CreatedAt,
		}
	}
	return turns, nil
}

// Sessions lists recorded session ids, oldest first.
func (t *Transcript) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	err := t.db.SelectContext(ctx, &ids,
		`SELECT session_id FROM turns GROUP BY session_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return ids, nil
}

func (t *Transcript) Close() error {
	return t.db.Close()
}
