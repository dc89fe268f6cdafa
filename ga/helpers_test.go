/*
 * helpers_test.go, part of adsga.
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

package ga

import (
	"context"
	"fmt"
	"sort"
	"testing"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	v3 "github.com/rmera/adsga/v3"
)

// a few framework atoms in a 12 A cubic cell.
func framework(Te *testing.T) *chem.Structure {
	top, _ := chem.NewTopology([]string{"Si", "O", "Si"})
	coords, _ := v3.NewMatrix([]float64{6, 6, 6, 7.6, 6, 6, 9.2, 6, 6})
	cell, _ := v3.NewMatrix([]float64{12, 0, 0, 0, 12, 0, 0, 0, 12})
	S, err := chem.NewStructure(top, coords, cell)
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

func carbonMonoxide(Te *testing.T) *chem.Structure {
	top, _ := chem.NewTopology([]string{"C", "O"})
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, 0, 0, 1.13})
	S, err := chem.NewStructure(top, coords, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

// framework plus one CO at x, with tag 1.
func loaded(Te *testing.T, x float64) *chem.Structure {
	M := carbonMonoxide(Te)
	M.SetTags([]int{1, 1})
	M.Coords.SetVec(0, [3]float64{x, 2, 2})
	M.Coords.SetVec(1, [3]float64{x, 2, 3.13})
	return framework(Te).Append(M)
}

type recorder struct {
	msgs []string
}

func (r *recorder) Printf(format string, v ...any) {
	r.msgs = append(r.msgs, fmt.Sprintf(format, v...))
}

func (r *recorder) count(msg string) int {
	n := 0
	for _, m := range r.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

// memStore is an in-memory CandidateStore and CandidateLister.
type memStore struct {
	cands  map[int]*gadb.Candidate
	next   int
	writes int
	closed int
}

func newMemStore() *memStore {
	return &memStore{cands: make(map[int]*gadb.Candidate), next: 1}
}

func (m *memStore) opener() StoreOpener {
	return func(ctx context.Context, path string) (CandidateStore, error) {
		return m, nil
	}
}

func (m *memStore) sorted(relaxed bool) []*gadb.Candidate {
	ret := make([]*gadb.Candidate, 0, len(m.cands))
	for _, c := range m.cands {
		if c.Relaxed == relaxed {
			ret = append(ret, c)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Confid < ret[j].Confid })
	return ret
}

func (m *memStore) NumberOfUnrelaxedCandidates(ctx context.Context) (int, error) {
	return len(m.sorted(false)), nil
}

func (m *memStore) AnUnrelaxedCandidate(ctx context.Context) (*gadb.Candidate, error) {
	u := m.sorted(false)
	if len(u) == 0 {
		return nil, gadb.ErrNotFound
	}
	c := *u[0]
	c.Structure = u[0].Structure.Copy()
	return &c, nil
}

func (m *memStore) AddUnrelaxedCandidate(ctx context.Context, c *gadb.Candidate, description string) (int, error) {
	m.writes++
	c.Confid = m.next
	c.Description = description
	c.Relaxed = false
	m.cands[c.Confid] = c
	m.next++
	return c.Confid, nil
}

func (m *memStore) Update(ctx context.Context, confid int, c *gadb.Candidate) error {
	old, ok := m.cands[confid]
	if !ok {
		return gadb.ErrNotFound
	}
	m.writes++
	n := *c
	n.Confid = confid
	n.Description = old.Description
	n.Parents = old.Parents
	m.cands[confid] = &n
	return nil
}

func (m *memStore) Close() error {
	m.closed++
	return nil
}

func (m *memStore) AllRelaxedCandidates(ctx context.Context) ([]*gadb.Candidate, error) {
	return m.sorted(true), nil
}

func (m *memStore) AllUnrelaxedCandidates(ctx context.Context) ([]*gadb.Candidate, error) {
	return m.sorted(false), nil
}

func blminFor(Te *testing.T) chem.Blmin {
	bl, err := chem.ClosestDistances([]string{"C", "O", "Si"}, 1.0)
	if err != nil {
		Te.Fatal(err)
	}
	return bl
}
