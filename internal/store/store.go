// Package store implements the persistence layer (C5): the embedded
// relational schema of spec.md §6, a dedicated persistence goroutine that
// serializes writes inside batched transactions, and synchronous reads
// under a mutex for the caller's goroutine.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"voxelcore/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS players (
	id INTEGER PRIMARY KEY,
	x REAL, y REAL, z REAL, pitch REAL, yaw REAL
);
CREATE TABLE IF NOT EXISTS blocks (
	cx INTEGER, cz INTEGER, bx INTEGER, by INTEGER, bz INTEGER, block INTEGER,
	PRIMARY KEY (cx, cz, bx, by, bz)
);
CREATE INDEX IF NOT EXISTS blocks_cxcz ON blocks(cx, cz);
`

// Player is one row of the players table.
type Player struct {
	ID                  int64
	X, Y, Z, Pitch, Yaw float64
}

// BlockDelta is one row of the blocks table: a persisted edit overlaying
// terrain generation for chunk (CX, CZ).
type BlockDelta struct {
	CX, CZ, BX, BY, BZ int
	Block              int
}

// Store owns the sqlite connection and the background persistence thread.
// Reads (GetPlayer, GetBlocks) run synchronously on the caller's goroutine
// under mu, serializing access to the shared connection per spec.md §4.5.
type Store struct {
	db *sql.DB
	mu sync.Mutex

	normal   chan job
	priority chan job
	done     chan struct{}
}

// Open creates (or reuses) path's sqlite file, applies the schema, and
// starts the persistence goroutine. Open failure is fatal per spec.md §7:
// the error is returned for the caller to act on, never swallowed.
func Open(path string, maxJobs int) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	// Prepare the write statements once here so a prepare failure is
	// reported at init, not only inside the persistence goroutine.
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	_, _, err = prepareStatements(tx)
	tx.Rollback()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: prepare statements: %w", err)
	}

	s := &Store{
		db:       db,
		normal:   make(chan job, maxJobs),
		priority: make(chan job, 2), // QUIT and COMMIT always have a reserved slot.
		done:     make(chan struct{}),
	}
	go s.thread()
	return s, nil
}

// Close enqueues QUIT and waits for the persistence thread to commit and
// exit.
func (s *Store) Close() error {
	s.priority <- job{kind: jobQuit}
	<-s.done
	return s.db.Close()
}

// GetPlayer reads player id, returning (Player{}, false) if absent.
func (s *Store) GetPlayer(id int64) (Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, x, y, z, pitch, yaw FROM players WHERE id = ?`, id)
	var p Player
	if err := row.Scan(&p.ID, &p.X, &p.Y, &p.Z, &p.Pitch, &p.Yaw); err != nil {
		if err == sql.ErrNoRows {
			return Player{}, false, nil
		}
		return Player{}, false, fmt.Errorf("store: get player %d: %w", id, err)
	}
	return p, true, nil
}

// GetBlocks reads every persisted delta for chunk (cx, cz), the overlay
// SET_BLOCKS applies on top of freshly generated terrain.
func (s *Store) GetBlocks(cx, cz int) ([]BlockDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT bx, by, bz, block FROM blocks WHERE cx = ? AND cz = ?`, cx, cz)
	if err != nil {
		return nil, fmt.Errorf("store: get blocks (%d,%d): %w", cx, cz, err)
	}
	defer rows.Close()

	var out []BlockDelta
	for rows.Next() {
		d := BlockDelta{CX: cx, CZ: cz}
		if err := rows.Scan(&d.BX, &d.BY, &d.BZ, &d.Block); err != nil {
			return nil, fmt.Errorf("store: scan block row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PutPlayer enqueues a player upsert. Non-blocking: if the normal queue is
// full the call is dropped and logged, per spec.md §7's telemetry-class
// queue-full policy (no caller currently retries player writes).
func (s *Store) PutPlayer(p Player) {
	s.enqueueNormal(job{kind: jobPutPlayer, player: p})
}

// PutBlock enqueues a block-delta upsert. The caller (voxelworld.SetBlock)
// retries next frame if the queue is full, per spec.md §7's block-edit
// queue-full policy; PutBlock itself just reports whether it was accepted.
func (s *Store) PutBlock(d BlockDelta) bool {
	select {
	case s.normal <- job{kind: jobPutBlock, block: d}:
		return true
	default:
		logging.L().Warn("store: normal queue full, dropping PUT_BLOCK for caller retry")
		return false
	}
}

// Commit enqueues a COMMIT job (always accepted: priority channel has a
// reserved slot).
func (s *Store) Commit() {
	s.priority <- job{kind: jobCommit}
}

func (s *Store) enqueueNormal(j job) {
	select {
	case s.normal <- j:
	default:
		logging.L().Warn("store: normal queue full, dropping job", zap.Int("kind", int(j.kind)))
	}
}

type jobKind int

const (
	jobQuit jobKind = iota
	jobCommit
	jobPutPlayer
	jobPutBlock
)

type job struct {
	kind   jobKind
	player Player
	block  BlockDelta
}

// thread is the dedicated persistence goroutine of spec.md §4.5: it runs
// perpetually inside one open transaction, committing and reopening on
// each COMMIT job, and committing once more before exiting on QUIT.
func (s *Store) thread() {
	defer close(s.done)

	tx, err := s.db.Begin()
	if err != nil {
		logging.L().Error("store: persistence thread could not open initial transaction", zap.Error(err))
		return
	}

	putPlayerStmt, putBlockStmt, err := prepareStatements(tx)
	if err != nil {
		logging.L().Error("store: prepare statements failed, persistence thread exiting", zap.Error(err))
		tx.Rollback()
		return
	}

	for {
		var j job
		select {
		case j = <-s.priority:
		default:
			select {
			case j = <-s.priority:
			case j = <-s.normal:
			}
		}

		switch j.kind {
		case jobQuit:
			if err := tx.Commit(); err != nil {
				logging.L().Error("store: final commit failed", zap.Error(err))
			}
			return

		case jobCommit:
			if err := tx.Commit(); err != nil {
				logging.L().Error("store: commit failed", zap.Error(err))
			}
			tx, err = s.db.Begin()
			if err != nil {
				logging.L().Error("store: reopen transaction failed", zap.Error(err))
				return
			}
			putPlayerStmt, putBlockStmt, err = prepareStatements(tx)
			if err != nil {
				logging.L().Error("store: reprepare statements failed", zap.Error(err))
				return
			}

		case jobPutPlayer:
			p := j.player
			if _, err := putPlayerStmt.Exec(p.ID, p.X, p.Y, p.Z, p.Pitch, p.Yaw); err != nil {
				logging.L().Warn("store: PUT_PLAYER failed, dropping job", zap.Error(err))
			}

		case jobPutBlock:
			d := j.block
			if _, err := putBlockStmt.Exec(d.CX, d.CZ, d.BX, d.BY, d.BZ, d.Block); err != nil {
				logging.L().Warn("store: PUT_BLOCK failed, dropping job", zap.Error(err))
			}
		}
	}
}

func prepareStatements(tx *sql.Tx) (putPlayer, putBlock *sql.Stmt, err error) {
	putPlayer, err = tx.Prepare(`INSERT OR REPLACE INTO players(id,x,y,z,pitch,yaw) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return nil, nil, err
	}
	putBlock, err = tx.Prepare(`INSERT OR REPLACE INTO blocks(cx,cz,bx,by,bz,block) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return nil, nil, err
	}
	return putPlayer, putBlock, nil
}
