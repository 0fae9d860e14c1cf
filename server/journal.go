package server

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var journalLog = commonlog.GetLogger("rebound.server.journal")

// ErrOutcomeNotFound indicates the journal has no entry for a chain.
var ErrOutcomeNotFound = errors.New("outcome not found")

// JournalEntry is one recorded slice of a chain.
type JournalEntry struct {
	Function   string
	Response   *CallResponse
	RecordedAt time.Time
}

// Journal records the response of every slice the server runs in SQLite,
// so outcomes survive restarts and store sweeps.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenJournal opens or creates the journal database at path. The path
// ":memory:" gives a private in-memory journal.
func OpenJournal(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS outcomes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		chain TEXT NOT NULL,
		function TEXT NOT NULL,
		state TEXT NOT NULL,
		work INTEGER NOT NULL,
		response BLOB NOT NULL,
		recorded_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS outcomes_chain ON outcomes (chain, seq)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index: %w", err)
	}

	journalLog.Infof("journal open at %s", path)
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record appends the response of one slice of a chain running function.
func (j *Journal) Record(function string, resp *CallResponse) error {
	data, err := cborEncMode.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err = j.db.Exec(
		"INSERT INTO outcomes (chain, function, state, work, response, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
		resp.Chain, function, resp.State, resp.Work, data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// Last returns the latest recorded response of chain.
func (j *Journal) Last(chain string) (*CallResponse, error) {
	var data []byte
	err := j.db.QueryRow(
		"SELECT response FROM outcomes WHERE chain = ? ORDER BY seq DESC LIMIT 1", chain,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOutcomeNotFound
		}
		return nil, fmt.Errorf("querying outcome: %w", err)
	}
	return decodeResponse(data)
}

// History returns every recorded slice of chain, oldest first.
func (j *Journal) History(chain string) ([]JournalEntry, error) {
	rows, err := j.db.Query(
		"SELECT function, response, recorded_at FROM outcomes WHERE chain = ? ORDER BY seq", chain,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var (
			e    JournalEntry
			data []byte
			at   int64
		)
		if err := rows.Scan(&e.Function, &data, &at); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if e.Response, err = decodeResponse(data); err != nil {
			return nil, err
		}
		e.RecordedAt = time.Unix(0, at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// TotalWork sums the recorded work of chain across its slices.
func (j *Journal) TotalWork(chain string) (int64, error) {
	var total sql.NullInt64
	err := j.db.QueryRow("SELECT SUM(work) FROM outcomes WHERE chain = ?", chain).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing work: %w", err)
	}
	return total.Int64, nil
}

func decodeResponse(data []byte) (*CallResponse, error) {
	var resp CallResponse
	if err := cbor.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("server: unmarshal response: %w", err)
	}
	return &resp, nil
}
