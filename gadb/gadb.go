/*
 * gadb.go, part of adsga.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package gadb stores the candidates of a genetic algorithm run in a SQLite file.
//Every candidate has a unique id (confid) assigned by the database, which is never reused.
package gadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	chem "github.com/rmera/adsga"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested candidate doesn't exist.
	ErrNotFound = errors.New("gadb: candidate not found")
	// ErrNotPrepared is returned by Open when the file has no GA schema.
	ErrNotPrepared = errors.New("gadb: database not prepared")
)

// Candidate is a structure tracked through the GA, with its database record.
type Candidate struct {
	Confid      int
	Structure   *chem.Structure
	Origin      string
	Description string
	Relaxed     bool
	RawScore    float64 //meaningful only if Relaxed
	Parents     []int
}

const schema = `
CREATE TABLE candidates (
	confid      INTEGER PRIMARY KEY AUTOINCREMENT,
	origin      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	relaxed     INTEGER NOT NULL DEFAULT 0,
	raw_score   REAL,
	parents     TEXT NOT NULL DEFAULT '[]',
	natoms      INTEGER NOT NULL,
	formula     TEXT NOT NULL,
	structure   BLOB NOT NULL
);
CREATE INDEX candidates_relaxed ON candidates (relaxed, confid);
CREATE TABLE metadata (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// PrepareDB creates a new database file in path, with the schema, the slab (framework)
// and the population size. It fails if the file already exists.
func PrepareDB(ctx context.Context, path string, slab *chem.Structure, popSize int) error {
	if path == "" {
		return errors.New("gadb: database path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("gadb: %s already exists", path)
	}
	blob, err := EncodeStructure(slab)
	if err != nil {
		return fmt.Errorf("gadb: encode slab: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("gadb: open %s: %w", path, err)
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("gadb: create schema: %w", err)
	}
	meta := map[string][]byte{
		"slab":            blob,
		"population_size": []byte(strconv.Itoa(popSize)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("gadb: store %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// DataConnection is an open connection to a prepared database.
type DataConnection struct {
	db   *sql.DB
	path string
}

// Open opens the prepared database in path. It returns ErrNotPrepared if
// the file doesn't exist or lacks the schema.
func Open(ctx context.Context, path string) (*DataConnection, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotPrepared, path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("gadb: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("gadb: open %s: %w", path, err)
	}
	var n int
	err = db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('candidates', 'metadata')`).Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("gadb: open %s: %w", path, err)
	}
	if n != 2 {
		db.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotPrepared, path)
	}
	return &DataConnection{db: db, path: path}, nil
}

// Close closes the connection.
func (D *DataConnection) Close() error {
	return D.db.Close()
}

// Path returns the file of the database.
func (D *DataConnection) Path() string {
	return D.path
}

func (D *DataConnection) meta(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := D.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s in metadata", ErrNotPrepared, key)
	}
	return v, err
}

// Slab returns the framework stored by PrepareDB.
func (D *DataConnection) Slab(ctx context.Context) (*chem.Structure, error) {
	v, err := D.meta(ctx, "slab")
	if err != nil {
		return nil, err
	}
	return DecodeStructure(v)
}

// PopulationSize returns the population size stored by PrepareDB.
func (D *DataConnection) PopulationSize(ctx context.Context) (int, error) {
	v, err := D.meta(ctx, "population_size")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(v))
}

// NumberOfUnrelaxedCandidates returns how many candidates are waiting for relaxation.
func (D *DataConnection) NumberOfUnrelaxedCandidates(ctx context.Context) (int, error) {
	var n int
	err := D.db.QueryRowContext(ctx, `SELECT count(*) FROM candidates WHERE relaxed = 0`).Scan(&n)
	return n, err
}

const columns = `confid, origin, description, relaxed, raw_score, parents, structure`

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*gadbRow, error) {
	r := new(gadbRow)
	var parents string
	err := row.Scan(&r.c.Confid, &r.c.Origin, &r.c.Description, &r.c.Relaxed, &r.score, &parents, &r.blob)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(parents), &r.c.Parents); err != nil {
		return nil, fmt.Errorf("gadb: candidate %d parents: %w", r.c.Confid, err)
	}
	return r, nil
}

type gadbRow struct {
	c     Candidate
	score sql.NullFloat64
	blob  []byte
}

func (r *gadbRow) candidate() (*Candidate, error) {
	S, err := DecodeStructure(r.blob)
	if err != nil {
		return nil, fmt.Errorf("gadb: candidate %d: %w", r.c.Confid, err)
	}
	c := r.c
	c.Structure = S
	if r.score.Valid {
		c.RawScore = r.score.Float64
	}
	return &c, nil
}

// AnUnrelaxedCandidate returns the unrelaxed candidate with the lowest confid,
// or ErrNotFound if there is none.
func (D *DataConnection) AnUnrelaxedCandidate(ctx context.Context) (*Candidate, error) {
	row := D.db.QueryRowContext(ctx, `SELECT `+columns+` FROM candidates WHERE relaxed = 0 ORDER BY confid LIMIT 1`)
	r, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no unrelaxed candidates", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r.candidate()
}

// Get returns the candidate with the given confid.
func (D *DataConnection) Get(ctx context.Context, confid int) (*Candidate, error) {
	row := D.db.QueryRowContext(ctx, `SELECT `+columns+` FROM candidates WHERE confid = ?`, confid)
	r, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: confid %d", ErrNotFound, confid)
	}
	if err != nil {
		return nil, err
	}
	return r.candidate()
}

// AllRelaxedCandidates returns every relaxed candidate, by increasing confid.
func (D *DataConnection) AllRelaxedCandidates(ctx context.Context) ([]*Candidate, error) {
	return D.list(ctx, true)
}

// AllUnrelaxedCandidates returns every candidate waiting for relaxation, by increasing confid.
func (D *DataConnection) AllUnrelaxedCandidates(ctx context.Context) ([]*Candidate, error) {
	return D.list(ctx, false)
}

func (D *DataConnection) list(ctx context.Context, relaxed bool) ([]*Candidate, error) {
	rows, err := D.db.QueryContext(ctx, `SELECT `+columns+` FROM candidates WHERE relaxed = ? ORDER BY confid`, relaxed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*Candidate, 0, 16)
	for rows.Next() {
		r, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		c, err := r.candidate()
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, rows.Err()
}

// AddUnrelaxedCandidate inserts c as a new unrelaxed candidate with the given description,
// and returns the confid assigned by the database. The Confid field of c is set too.
// Origin and Parents are taken from c, the rest of its fields are ignored.
func (D *DataConnection) AddUnrelaxedCandidate(ctx context.Context, c *Candidate, description string) (int, error) {
	if c == nil || c.Structure == nil {
		return 0, errors.New("gadb: nil candidate")
	}
	blob, err := EncodeStructure(c.Structure)
	if err != nil {
		return 0, fmt.Errorf("gadb: encode candidate: %w", err)
	}
	parents := c.Parents
	if parents == nil {
		parents = []int{}
	}
	pj, err := json.Marshal(parents)
	if err != nil {
		return 0, err
	}
	res, err := D.db.ExecContext(ctx,
		`INSERT INTO candidates (origin, description, relaxed, parents, natoms, formula, structure) VALUES (?, ?, 0, ?, ?, ?, ?)`,
		c.Origin, description, string(pj), c.Structure.Len(), c.Structure.Formula(), blob)
	if err != nil {
		return 0, fmt.Errorf("gadb: add candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.Confid = int(id)
	c.Description = description
	c.Relaxed = false
	return c.Confid, nil
}

// Update replaces the structure, origin, raw score and relaxed flag of the candidate
// with the given confid. Description and parents are kept. Returns ErrNotFound if
// there is no such candidate.
func (D *DataConnection) Update(ctx context.Context, confid int, c *Candidate) error {
	if c == nil || c.Structure == nil {
		return errors.New("gadb: nil candidate")
	}
	blob, err := EncodeStructure(c.Structure)
	if err != nil {
		return fmt.Errorf("gadb: encode candidate %d: %w", confid, err)
	}
	var score any
	if c.Relaxed {
		score = c.RawScore
	}
	res, err := D.db.ExecContext(ctx,
		`UPDATE candidates SET origin = ?, relaxed = ?, raw_score = ?, natoms = ?, formula = ?, structure = ? WHERE confid = ?`,
		c.Origin, c.Relaxed, score, c.Structure.Len(), c.Structure.Formula(), blob, confid)
	if err != nil {
		return fmt.Errorf("gadb: update candidate %d: %w", confid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: confid %d", ErrNotFound, confid)
	}
	return nil
}
