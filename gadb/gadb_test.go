/*
 * gadb_test.go, part of adsga.
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

package gadb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/adsga"
	v3 "github.com/rmera/adsga/v3"
)

func framework(Te *testing.T) *chem.Structure {
	top, _ := chem.NewTopology([]string{"Si", "O", "O"})
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, 1.6, 0, 0, 0, 1.6, 0})
	cell, _ := v3.NewMatrix([]float64{8, 0, 0, 0, 8, 0, 0, 0, 8})
	S, err := chem.NewStructure(top, coords, cell)
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

func withMolecule(Te *testing.T, x float64) *chem.Structure {
	top, _ := chem.NewTopology([]string{"C", "O"})
	top.SetTags([]int{1, 1})
	coords, _ := v3.NewMatrix([]float64{x, 4, 4, x, 4, 5.13})
	M, _ := chem.NewStructure(top, coords, nil)
	return framework(Te).Append(M)
}

func prepared(Te *testing.T) (*DataConnection, string) {
	ctx := context.Background()
	path := filepath.Join(Te.TempDir(), "ga.db")
	if err := PrepareDB(ctx, path, framework(Te), 5); err != nil {
		Te.Fatal(err)
	}
	D, err := Open(ctx, path)
	if err != nil {
		Te.Fatal(err)
	}
	Te.Cleanup(func() { D.Close() })
	return D, path
}

func TestPrepareDB(Te *testing.T) {
	ctx := context.Background()
	D, path := prepared(Te)
	n, err := D.PopulationSize(ctx)
	if err != nil || n != 5 {
		Te.Errorf("population size %d, %v", n, err)
	}
	slab, err := D.Slab(ctx)
	if err != nil {
		Te.Fatal(err)
	}
	if slab.Formula() != "O2Si" || !slab.Periodic() {
		Te.Errorf("slab not stored correctly: %s", slab.Formula())
	}
	if err := PrepareDB(ctx, path, framework(Te), 5); err == nil {
		Te.Error("preparing an existing file should fail")
	}
	other := filepath.Join(Te.TempDir(), "empty.db")
	if err := os.WriteFile(other, nil, 0o644); err != nil {
		Te.Fatal(err)
	}
	if _, err := Open(ctx, other); !errors.Is(err, ErrNotPrepared) {
		Te.Errorf("expected ErrNotPrepared, got %v", err)
	}
	if _, err := Open(ctx, filepath.Join(Te.TempDir(), "missing.db")); !errors.Is(err, ErrNotPrepared) {
		Te.Errorf("expected ErrNotPrepared for a missing file, got %v", err)
	}
}

func TestConfidsAndQueue(Te *testing.T) {
	ctx := context.Background()
	D, _ := prepared(Te)
	for i := 1; i <= 3; i++ {
		c := &Candidate{Structure: withMolecule(Te, float64(i)), Origin: "StartingCandidateUnrelaxed"}
		id, err := D.AddUnrelaxedCandidate(ctx, c, "random")
		if err != nil {
			Te.Fatal(err)
		}
		if id != i || c.Confid != i {
			Te.Errorf("expected confid %d, got %d", i, id)
		}
	}
	n, _ := D.NumberOfUnrelaxedCandidates(ctx)
	if n != 3 {
		Te.Errorf("expected 3 unrelaxed candidates, got %d", n)
	}
	c, err := D.AnUnrelaxedCandidate(ctx)
	if err != nil {
		Te.Fatal(err)
	}
	if c.Confid != 1 || c.Description != "random" || c.Relaxed {
		Te.Errorf("wrong unrelaxed candidate %+v", c)
	}
	c.Relaxed = true
	c.RawScore = 12.5
	c.Origin = "StartingCandidateRelaxed"
	if err := D.Update(ctx, c.Confid, c); err != nil {
		Te.Fatal(err)
	}
	n, _ = D.NumberOfUnrelaxedCandidates(ctx)
	if n != 2 {
		Te.Errorf("expected 2 unrelaxed candidates, got %d", n)
	}
	next, _ := D.AnUnrelaxedCandidate(ctx)
	if next.Confid != 2 {
		Te.Errorf("the queue should go by confid, got %d", next.Confid)
	}
	got, err := D.Get(ctx, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if !got.Relaxed || got.RawScore != 12.5 || got.Origin != "StartingCandidateRelaxed" || got.Description != "random" {
		Te.Errorf("update not stored: %+v", got)
	}
	relaxed, err := D.AllRelaxedCandidates(ctx)
	if err != nil || len(relaxed) != 1 {
		Te.Errorf("expected one relaxed candidate, got %d, %v", len(relaxed), err)
	}
	if err := D.Update(ctx, 99, c); !errors.Is(err, ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := D.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
	//a new candidate never reuses an id
	id, _ := D.AddUnrelaxedCandidate(ctx, &Candidate{Structure: withMolecule(Te, 1), Parents: []int{1, 2}}, "pairing: 1 2")
	if id != 4 {
		Te.Errorf("expected confid 4, got %d", id)
	}
	child, _ := D.Get(ctx, 4)
	if len(child.Parents) != 2 || child.Parents[1] != 2 {
		Te.Errorf("parents not stored: %v", child.Parents)
	}
}

func TestEmptyQueue(Te *testing.T) {
	D, _ := prepared(Te)
	if _, err := D.AnUnrelaxedCandidate(context.Background()); !errors.Is(err, ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStructureBlob(Te *testing.T) {
	S := withMolecule(Te, 2.5)
	blob, err := EncodeStructure(S)
	if err != nil {
		Te.Fatal(err)
	}
	R, err := DecodeStructure(blob)
	if err != nil {
		Te.Fatal(err)
	}
	if R.Len() != S.Len() || R.Formula() != S.Formula() || R.PBC != S.PBC {
		Te.Fatalf("wrong structure decoded: %s", R.Formula())
	}
	for i := 0; i < S.Len(); i++ {
		if R.Atom(i).Symbol != S.Atom(i).Symbol || R.Atom(i).Tag != S.Atom(i).Tag || R.Coords.Vec(i) != S.Coords.Vec(i) {
			Te.Errorf("atom %d differs after decoding", i)
		}
	}
	for i := 0; i < 3; i++ {
		if R.Cell.Vec(i) != S.Cell.Vec(i) {
			Te.Errorf("cell vector %d differs after decoding", i)
		}
	}
	if _, err := DecodeStructure([]byte("not zstd")); err == nil {
		Te.Error("garbage should not decode")
	}
}
