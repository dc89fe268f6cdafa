/*
 * pairing.go, part of adsga.
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

package mutate

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	v3 "github.com/rmera/adsga/v3"
)

// CutSplicePairing combines two parents with the same framework and the same
// molecules. A random plane through the center of the cell (or of the molecules, for
// non-periodic systems) is drawn, and the child takes the molecules of the first parent
// lying on one side of the plane and as many molecules from the second parent, closest
// to the other side, as needed to keep the composition. Molecules are moved as rigid bodies.
type CutSplicePairing struct {
	Blmin    chem.Blmin
	MaxCount int
	rng      *rand.Rand
}

// NewCutSplicePairing returns a pairing operator checking the given minimum distances.
func NewCutSplicePairing(blmin chem.Blmin, rng *rand.Rand) *CutSplicePairing {
	return &CutSplicePairing{Blmin: blmin, MaxCount: DefaultMaxCount, rng: rng}
}

type molecule struct {
	tag int
	idx []int
	com [3]float64
	key string //the symbols of the molecule, molecules with the same key are interchangeable.
}

func molecules(S *chem.Structure, groups map[int][]int, tags []int) ([]molecule, error) {
	ret := make([]molecule, 0, len(tags))
	for _, t := range tags {
		idx := groups[t]
		com, err := chem.CenterOfMass(S, idx)
		if err != nil {
			return nil, err
		}
		sym := make([]string, len(idx))
		for i, j := range idx {
			sym[i] = S.Atom(j).Symbol
		}
		ret = append(ret, molecule{tag: t, idx: idx, com: com, key: strings.Join(sym, " ")})
	}
	return ret, nil
}

// NewIndividual produces a child from the first two parents.
func (O *CutSplicePairing) NewIndividual(parents []*gadb.Candidate) (*gadb.Candidate, string, error) {
	if len(parents) < 2 {
		return nil, "pairing: not enough parents", nil
	}
	a, b := parents[0], parents[1]
	desc := fmt.Sprintf("pairing: %d %d", a.Confid, b.Confid)
	A, ga, ta, err := workCopy(a)
	if err != nil {
		return nil, desc, err
	}
	B, gb, tb, err := workCopy(b)
	if err != nil {
		return nil, desc, err
	}
	if A.Len() != B.Len() || len(ta) != len(tb) {
		return nil, desc, fmt.Errorf("mutate: parents %d and %d have different composition", a.Confid, b.Confid)
	}
	ma, err := molecules(A, ga, ta)
	if err != nil {
		return nil, desc, err
	}
	mb, err := molecules(B, gb, tb)
	if err != nil {
		return nil, desc, err
	}
	for i := range ma {
		if ma[i].key != mb[i].key {
			return nil, desc, fmt.Errorf("mutate: molecule %d differs between parents %d and %d", i, a.Confid, b.Confid)
		}
	}
	if len(ma) == 0 {
		return nil, desc, nil
	}
	center := planeCenter(A, ma)
	for c := 0; c < maxCount(O.MaxCount); c++ {
		normal := chem.RandomUnitVector(O.rng)
		S, ok := O.splice(A, B, ma, mb, center, normal)
		if !ok {
			continue
		}
		tc, err := chem.AtomsTooClose(S, O.Blmin, true)
		if err != nil {
			return nil, desc, err
		}
		if !tc {
			return offspring(S, "CutSplicePairing", desc, a, b), desc, nil
		}
	}
	return nil, desc, nil
}

func planeCenter(S *chem.Structure, mols []molecule) [3]float64 {
	if S.Cell != nil {
		var c [3]float64
		for i := 0; i < 3; i++ {
			c = v3.Add(c, v3.Scale(0.5, S.Cell.Vec(i)))
		}
		return c
	}
	var c [3]float64
	for _, m := range mols {
		c = v3.Add(c, m.com)
	}
	return v3.Scale(1/float64(len(mols)), c)
}

// builds the child, slot by slot. Each slot (tag of A) gets a molecule of the same kind,
// from A if it is above the plane or from the molecules of B below it. Returns false if
// the cut gives a child identical to one of the parents, which is only allowed for
// a single molecule.
func (O *CutSplicePairing) splice(A, B *chem.Structure, ma, mb []molecule, center, normal [3]float64) (*chem.Structure, bool) {
	side := func(m molecule) float64 {
		return v3.Dot(v3.Sub(m.com, center), normal)
	}
	//molecules of B sorted from the most below the plane upwards, per kind.
	fromB := make(map[string][]molecule)
	sorted := append([]molecule(nil), mb...)
	sort.SliceStable(sorted, func(i, j int) bool { return side(sorted[i]) < side(sorted[j]) })
	for _, m := range sorted {
		fromB[m.key] = append(fromB[m.key], m)
	}
	S := A.Copy()
	na := 0
	for _, m := range ma {
		if side(m) >= 0 {
			na++
			continue
		}
		//this slot gets the next molecule of the same kind from B
		list := fromB[m.key]
		src := list[0]
		fromB[m.key] = list[1:]
		for k, i := range m.idx {
			S.Coords.SetVec(i, B.Coords.Vec(src.idx[k]))
		}
	}
	if len(ma) > 1 && (na == 0 || na == len(ma)) {
		return nil, false
	}
	return S, true
}
