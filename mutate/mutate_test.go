/*
 * mutate_test.go, part of adsga.
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
	"math"
	"math/rand"
	"testing"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	v3 "github.com/rmera/adsga/v3"
)

// a Si atom in a 12 A cubic cell with 3 CO molecules.
func parent(Te *testing.T, confid int, shift float64) *gadb.Candidate {
	top, _ := chem.NewTopology([]string{"Si"})
	coords, _ := v3.NewMatrix([]float64{0, 0, 0})
	cell, _ := v3.NewMatrix([]float64{12, 0, 0, 0, 12, 0, 0, 0, 12})
	S, err := chem.NewStructure(top, coords, cell)
	if err != nil {
		Te.Fatal(err)
	}
	for i, p := range [][3]float64{{3, 3, 3}, {9, 3, 6}, {6, 9, 9}} {
		mt, _ := chem.NewTopology([]string{"C", "O"})
		mt.SetTags([]int{i + 1, i + 1})
		mc, _ := v3.NewMatrix([]float64{p[0] + shift, p[1], p[2], p[0] + shift, p[1], p[2] + 1.13})
		M, _ := chem.NewStructure(mt, mc, nil)
		S = S.Append(M)
	}
	return &gadb.Candidate{Confid: confid, Structure: S, Relaxed: true}
}

func blmin(Te *testing.T) chem.Blmin {
	bl, err := chem.ClosestDistances([]string{"C", "O", "Si"}, 1.0)
	if err != nil {
		Te.Fatal(err)
	}
	return bl
}

// checks that the child keeps the composition and the molecules of the parent,
// and respects bl.
func checkChild(Te *testing.T, name string, p, c *gadb.Candidate, bl chem.Blmin) {
	Te.Helper()
	if c == nil {
		Te.Fatalf("%s: no child", name)
	}
	P, C := p.Structure, c.Structure
	if C.Len() != P.Len() {
		Te.Fatalf("%s: %d atoms, parent has %d", name, C.Len(), P.Len())
	}
	for i := 0; i < P.Len(); i++ {
		if C.Atom(i).Symbol != P.Atom(i).Symbol || C.Atom(i).Tag != P.Atom(i).Tag {
			Te.Errorf("%s: atom %d changed symbol or tag", name, i)
		}
	}
	if C.Coords.Vec(0) != P.Coords.Vec(0) {
		Te.Errorf("%s: the framework moved", name)
	}
	for _, idx := range C.TagGroups() {
		d := v3.Norm(v3.Sub(C.Coords.Vec(idx[0]), C.Coords.Vec(idx[1])))
		if math.Abs(d-1.13) > 1e-8 {
			Te.Errorf("%s: molecule deformed, C-O %f", name, d)
		}
	}
	tc, err := chem.AtomsTooClose(C, bl, true)
	if err != nil {
		Te.Fatal(err)
	}
	if tc {
		Te.Errorf("%s: child violates the minimum distances", name)
	}
}

func TestMutations(Te *testing.T) {
	rng := rand.New(rand.NewSource(5))
	bl := blmin(Te)
	p := parent(Te, 7, 0)
	ops := []struct {
		name string
		op   Operator
		desc string
	}{
		{"rattle", NewRattleMutation(bl, rng), "mutation: rattle"},
		{"rotational", NewRotationalMutation(bl, rng), "mutation: rotational"},
		{"rattlerotational", NewRattleRotationalMutation(bl, rng), "mutation: rattlerotational"},
	}
	for _, o := range ops {
		c, desc, err := o.op.NewIndividual([]*gadb.Candidate{p})
		if err != nil {
			Te.Fatalf("%s: %v", o.name, err)
		}
		if desc != o.desc {
			Te.Errorf("%s: wrong description %q", o.name, desc)
		}
		checkChild(Te, o.name, p, c, bl)
		if len(c.Parents) != 1 || c.Parents[0] != 7 {
			Te.Errorf("%s: wrong parents %v", o.name, c.Parents)
		}
		same := true
		for i := 0; i < p.Structure.Len(); i++ {
			if v3.Norm(v3.Sub(c.Structure.Coords.Vec(i), p.Structure.Coords.Vec(i))) > 1e-8 {
				same = false
			}
		}
		if same {
			Te.Errorf("%s: child identical to its parent", o.name)
		}
	}
}

func TestNoOffspring(Te *testing.T) {
	rng := rand.New(rand.NewSource(1))
	//nothing fits with these distances, so no child is possible.
	bl := blmin(Te).Scaled(10)
	p := parent(Te, 1, 0)
	r := NewRattleMutation(bl, rng)
	r.MaxCount = 10
	c, desc, err := r.NewIndividual([]*gadb.Candidate{p})
	if err != nil {
		Te.Fatal(err)
	}
	if c != nil || desc != "mutation: rattle" {
		Te.Errorf("expected no child, got %v %q", c, desc)
	}
	pr := NewCutSplicePairing(bl, rng)
	pr.MaxCount = 10
	c, _, err = pr.NewIndividual([]*gadb.Candidate{p, parent(Te, 2, 0.5)})
	if err != nil || c != nil {
		Te.Errorf("expected no child and no error, got %v, %v", c, err)
	}
}

func TestCutSplicePairing(Te *testing.T) {
	rng := rand.New(rand.NewSource(2))
	bl := blmin(Te)
	a := parent(Te, 3, 0)
	b := parent(Te, 4, 1.0)
	pr := NewCutSplicePairing(bl, rng)
	c, desc, err := pr.NewIndividual([]*gadb.Candidate{a, b})
	if err != nil {
		Te.Fatal(err)
	}
	if desc != "pairing: 3 4" {
		Te.Errorf("wrong description %q", desc)
	}
	checkChild(Te, "pairing", a, c, bl)
	if len(c.Parents) != 2 || c.Parents[0] != 3 || c.Parents[1] != 4 {
		Te.Errorf("wrong parents %v", c.Parents)
	}
	//with 3 molecules, the child has molecules from both parents.
	froma, fromb := 0, 0
	for _, idx := range c.Structure.TagGroups() {
		x := c.Structure.Coords.At(idx[0], 0)
		switch {
		case math.Abs(x-a.Structure.Coords.At(idx[0], 0)) < 1e-8:
			froma++
		default:
			fromb++
		}
	}
	if froma == 0 || fromb == 0 {
		Te.Errorf("child should mix both parents, got %d from a and %d from b", froma, fromb)
	}
	if _, _, err := pr.NewIndividual([]*gadb.Candidate{a, {Confid: 9, Structure: a.Structure.Copy().Append(a.Structure)}}); err == nil {
		Te.Error("parents with different composition should give an error")
	}
}

type fixed string

func (f fixed) NewIndividual(parents []*gadb.Candidate) (*gadb.Candidate, string, error) {
	return nil, string(f), nil
}

func TestOperationSelector(Te *testing.T) {
	rng := rand.New(rand.NewSource(9))
	ops := []Operator{fixed("a"), fixed("b"), fixed("c")}
	sel, err := NewOperationSelector([]float64{0, 1, 3}, ops, rng)
	if err != nil {
		Te.Fatal(err)
	}
	counts := make(map[Operator]int)
	for i := 0; i < 4000; i++ {
		counts[sel.GetOperator()]++
	}
	if counts[fixed("a")] != 0 {
		Te.Error("an operator with zero weight was selected")
	}
	if counts[fixed("c")] < 2*counts[fixed("b")] {
		Te.Errorf("selection not proportional to the weights: %v", counts)
	}
	if _, err := NewOperationSelector([]float64{0, 0}, ops[:2], rng); err == nil {
		Te.Error("all-zero weights should fail")
	}
	if _, err := NewOperationSelector([]float64{1}, ops, rng); err == nil {
		Te.Error("mismatched lengths should fail")
	}
	if _, err := NewOperationSelector([]float64{-1, 2}, ops[:2], rng); err == nil {
		Te.Error("negative weights should fail")
	}
}
