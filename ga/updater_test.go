/*
 * updater_test.go, part of adsga.
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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	"github.com/rmera/adsga/qm"
)

// fakeCalc returns the energy set for its directory, and the reference structure
// shifted by 0.1 A with the tags erased, as a relaxation would.
type fakeCalc struct {
	energies map[string]float64
	dir      string
	calls    *int
}

func (f *fakeCalc) SetDirectory(dir string) { f.dir = dir }

func (f *fakeCalc) Energy() (float64, error) {
	*f.calls++
	e, ok := f.energies[f.dir]
	if !ok {
		return 0, fmt.Errorf("no OUTCAR in %s", f.dir)
	}
	return e, nil
}

func (f *fakeCalc) OptimizedGeometry(ref *chem.Structure) (*chem.Structure, error) {
	S := ref.Copy()
	all := make([]int, S.Len())
	for i := range all {
		all[i] = i
	}
	chem.Translate(S.Coords, all, [3]float64{0.1, 0, 0})
	S.SetTags(make([]int, S.Len()))
	return S, nil
}

func fakeUpdater(Te *testing.T, store *memStore, energies map[string]float64, calls *int, log Logger) *Updater {
	return &Updater{
		DB:   "unused",
		Open: store.opener(),
		NewCalculator: func() Calculator {
			return &fakeCalc{energies: energies, calls: calls}
		},
		Logger: log,
	}
}

func TestUpdate(Te *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	for i := 0; i < 3; i++ {
		store.AddUnrelaxedCandidate(ctx, &gadb.Candidate{Structure: loaded(Te, float64(i+1)), Origin: OriginUnrelaxedStart}, "random")
	}
	energies := map[string]float64{
		"./Candidates/Can-01": -10.5,
		"./Candidates/Can-02": -12.25,
		"./Candidates/Can-03": -9,
	}
	calls := 0
	rec := new(recorder)
	U := fakeUpdater(Te, store, energies, &calls, rec)
	last, err := U.Update(ctx)
	if err != nil {
		Te.Fatal(err)
	}
	if last != 3 {
		Te.Errorf("expected last confid 3, got %d", last)
	}
	for id, dir := range map[int]string{1: "./Candidates/Can-01", 2: "./Candidates/Can-02", 3: "./Candidates/Can-03"} {
		c := store.cands[id]
		if !c.Relaxed || c.Origin != OriginRelaxed {
			Te.Errorf("candidate %d not marked relaxed: %+v", id, c)
		}
		if c.RawScore != -1*energies[dir] {
			Te.Errorf("candidate %d: raw score %f for energy %f", id, c.RawScore, energies[dir])
		}
		if tags := c.Structure.Tags(); tags[3] != 1 || tags[4] != 1 {
			Te.Errorf("candidate %d: tags not restored: %v", id, tags)
		}
		if c.Description != "random" {
			Te.Errorf("candidate %d: description lost", id)
		}
		if rec.count(fmt.Sprintf("Updating candidate %d", id)) != 1 {
			Te.Errorf("candidate %d: missing progress message", id)
		}
	}
	//the queue is empty now, nothing happens and the same confid is returned.
	writes, ncalls := store.writes, calls
	last, err = U.Update(ctx)
	if err != nil || last != 3 {
		Te.Errorf("expected 3 and no error on a drained queue, got %d, %v", last, err)
	}
	if store.writes != writes || calls != ncalls {
		Te.Error("a drained queue should cause no writes and no calculator calls")
	}
	if store.closed != 2 {
		Te.Errorf("each call should close its connection, %d closes", store.closed)
	}
}

func TestUpdateEmptyQueue(Te *testing.T) {
	store := newMemStore()
	calls := 0
	created := 0
	U := fakeUpdater(Te, store, nil, &calls, new(recorder))
	U.NewCalculator = func() Calculator {
		created++
		return &fakeCalc{calls: &calls}
	}
	last, err := U.Update(context.Background())
	if err != nil || last != 0 {
		Te.Errorf("expected 0 and no error, got %d, %v", last, err)
	}
	if created != 0 || calls != 0 {
		Te.Error("the calculator should not be used with an empty queue")
	}
}

func TestUpdateMissingResult(Te *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	for i := 0; i < 3; i++ {
		store.AddUnrelaxedCandidate(ctx, &gadb.Candidate{Structure: loaded(Te, float64(i+1))}, "random")
	}
	calls := 0
	U := fakeUpdater(Te, store, map[string]float64{"./Candidates/Can-01": -1}, &calls, new(recorder))
	done, err := U.UpdateAll(ctx)
	if err == nil {
		Te.Fatal("a missing result should stop the update")
	}
	if len(done) != 1 || done[0] != 1 {
		Te.Errorf("only candidate 1 should be done, got %v", done)
	}
	if !store.cands[1].Relaxed || store.cands[2].Relaxed || store.cands[3].Relaxed {
		Te.Error("candidates before the failure stay written, the rest stay unrelaxed")
	}
}

// The whole cycle with a real database and VASP run directories.
func TestUpdateVasp(Te *testing.T) {
	ctx := context.Background()
	tmp := Te.TempDir()
	dbpath := filepath.Join(tmp, "ga.db")
	if err := gadb.PrepareDB(ctx, dbpath, framework(Te), 4); err != nil {
		Te.Fatal(err)
	}
	da, err := gadb.Open(ctx, dbpath)
	if err != nil {
		Te.Fatal(err)
	}
	tmpl := filepath.Join(tmp, "Can-%02d")
	calc := new(qm.Calc)
	calc.SetDefaults()
	for i := 0; i < 2; i++ {
		c := &gadb.Candidate{Structure: loaded(Te, float64(i+1)), Origin: OriginUnrelaxedStart}
		id, err := da.AddUnrelaxedCandidate(ctx, c, "random")
		if err != nil {
			Te.Fatal(err)
		}
		dir := fmt.Sprintf(tmpl, id)
		vasp := qm.NewVaspHandle()
		vasp.SetDirectory(dir)
		if err := vasp.BuildInput(c.Structure, calc); err != nil {
			Te.Fatal(err)
		}
		poscar, _ := os.ReadFile(filepath.Join(dir, "POSCAR"))
		os.WriteFile(filepath.Join(dir, "CONTCAR"), poscar, 0o644)
		outcar := fmt.Sprintf("  energy  without entropy=  -50.0  energy(sigma->0) =  %.2f\n General timing and accounting\n", -50.0-float64(id))
		os.WriteFile(filepath.Join(dir, "OUTCAR"), []byte(outcar), 0o644)
	}
	da.Close()
	U := NewUpdater(dbpath)
	U.DirTemplate = tmpl
	U.Logger = new(recorder)
	done, err := U.UpdateAll(ctx)
	if err != nil {
		Te.Fatal(err)
	}
	if len(done) != 2 || done[1] != 2 {
		Te.Errorf("expected candidates 1 and 2, got %v", done)
	}
	da, err = gadb.Open(ctx, dbpath)
	if err != nil {
		Te.Fatal(err)
	}
	defer da.Close()
	c, err := da.Get(ctx, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if !c.Relaxed || c.RawScore != 52 || c.Structure.Atom(3).Tag != 1 || c.Structure.Atom(3).Symbol != "C" {
		Te.Errorf("wrong relaxed candidate: relaxed %v, score %f, atom 3 %+v", c.Relaxed, c.RawScore, c.Structure.Atom(3))
	}
	if _, err := da.AnUnrelaxedCandidate(ctx); !errors.Is(err, gadb.ErrNotFound) {
		Te.Errorf("the queue should be empty, got %v", err)
	}
}
