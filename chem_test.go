/*
 * chem_test.go, part of adsga.
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

package chem

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	v3 "github.com/rmera/adsga/v3"
)

func cubic(a float64) *v3.Matrix {
	c, _ := v3.NewMatrix([]float64{a, 0, 0, 0, a, 0, 0, 0, a})
	return c
}

func water(Te *testing.T) *Structure {
	top, err := NewTopology([]string{"O", "H", "H"})
	if err != nil {
		Te.Fatal(err)
	}
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, 0.757, 0.586, 0, -0.757, 0.586, 0})
	S, err := NewStructure(top, coords, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

func TestXYZ(Te *testing.T) {
	S := water(Te)
	S.Cell = cubic(10)
	S.PBC = [3]bool{true, true, true}
	S.SetTags([]int{1, 1, 1})
	var buf bytes.Buffer
	if err := XYZWrite(&buf, S); err != nil {
		Te.Fatal(err)
	}
	R, err := XYZRead(&buf)
	if err != nil {
		Te.Fatal(err)
	}
	if R.Len() != 3 || R.Atom(2).Symbol != "H" || R.Atom(0).Tag != 1 {
		Te.Errorf("wrong atoms read back: %v %v", R.Symbols(), R.Tags())
	}
	if !R.Periodic() || R.Cell.At(2, 2) != 10 {
		Te.Errorf("cell not read back: %v", R.Cell)
	}
	if math.Abs(R.Coords.At(1, 0)-0.757) > 1e-8 {
		Te.Errorf("wrong coordinates read back: %v", R.Coords)
	}
	plain := "2\nno cell here\nC 0 0 0\nO 0 0 1.2\n"
	P, err := XYZRead(strings.NewReader(plain))
	if err != nil {
		Te.Fatal(err)
	}
	if P.Periodic() || P.Formula() != "CO" {
		Te.Errorf("a plain xyz file should give a non-periodic CO, got %s, %v", P.Formula(), P.Cell)
	}
	if _, err := XYZRead(strings.NewReader("3\n\nC 0 0 0\n")); err == nil {
		Te.Error("a truncated file should fail")
	}
}

// ASE can write other per-atom properties before the tags.
func TestXYZProperties(Te *testing.T) {
	ase := `2
Lattice="10 0 0 0 10 0 0 0 10" Properties=species:S:1:pos:R:3:masses:R:1:tags:I:1 pbc="T T T"
C 1.0 2.0 3.0 12.011 2
O 1.0 2.0 4.1 15.999 2
`
	S, err := XYZRead(strings.NewReader(ase))
	if err != nil {
		Te.Fatal(err)
	}
	if S.Atom(0).Tag != 2 || S.Atom(1).Tag != 2 {
		Te.Errorf("tags read from the wrong column: %v", S.Tags())
	}
	if S.Coords.At(1, 2) != 4.1 {
		Te.Errorf("wrong coordinates %v", S.Coords)
	}
	noTags := "1\nProperties=species:S:1:pos:R:3:masses:R:1\nC 1 2 3 12.011\n"
	S, err = XYZRead(strings.NewReader(noTags))
	if err != nil {
		Te.Fatal(err)
	}
	if S.Atom(0).Tag != 0 {
		Te.Errorf("the mass should not be read as tag, got %d", S.Atom(0).Tag)
	}
	if _, err := XYZRead(strings.NewReader("1\nProperties=species:S:1:pos:R\nC 1 2 3\n")); err == nil {
		Te.Error("an ill formed Properties key should fail")
	}
}

const poscar5 = `Si O
 1.0
   5.0 0.0 0.0
   0.0 5.0 0.0
   0.0 0.0 5.0
 Si O
 1 2
Selective dynamics
Direct
 0.0 0.0 0.0 F F F
 0.5 0.0 0.0 T T T
 0.0 0.5 0.0 T T T
`

const poscar4 = `O H H
 2.0
   5.0 0.0 0.0
   0.0 5.0 0.0
   0.0 0.0 5.0
 1 2
Cartesian
 0.0 0.0 0.0
 0.5 0.0 0.0
 0.0 0.5 0.0
`

func TestPoscar(Te *testing.T) {
	S, err := PoscarRead(strings.NewReader(poscar5))
	if err != nil {
		Te.Fatal(err)
	}
	if S.Formula() != "O2Si" || S.Len() != 3 {
		Te.Errorf("wrong composition %s", S.Formula())
	}
	if S.Coords.At(1, 0) != 2.5 {
		Te.Errorf("direct coordinates not converted: %v", S.Coords)
	}
	S4, err := PoscarRead(strings.NewReader(poscar4))
	if err != nil {
		Te.Fatal(err)
	}
	if S4.Atom(0).Symbol != "O" || S4.Cell.At(0, 0) != 10 || S4.Coords.At(1, 0) != 1 {
		Te.Errorf("VASP 4 file read wrong: %v %v %v", S4.Symbols(), S4.Cell, S4.Coords)
	}
	suffixed := strings.Replace(poscar5, " Si O\n 1 2", " Si_sv_GW/7a1b2c O_h/3f4e5d\n 1 2", 1)
	S6, err := PoscarRead(strings.NewReader(suffixed))
	if err != nil {
		Te.Fatal(err)
	}
	if strings.Join(S6.Symbols(), " ") != "Si O O" {
		Te.Errorf("POTCAR suffixes not dropped: %v", S6.Symbols())
	}
	if _, err := S6.Masses(); err != nil {
		Te.Error(err)
	}
	var buf bytes.Buffer
	if err := PoscarWrite(&buf, S, []int{0}); err != nil {
		Te.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Selective dynamics") {
		Te.Errorf("frozen atoms need selective dynamics:\n%s", buf.String())
	}
	R, err := PoscarRead(&buf)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(R.Coords.At(2, 1)-2.5) > 1e-10 {
		Te.Errorf("coordinates not written back: %v", R.Coords)
	}
	if err := PoscarWrite(&buf, water(Te), nil); err == nil {
		Te.Error("a structure without cell can't be written as POSCAR")
	}
}

func TestClosestDistances(Te *testing.T) {
	S := water(Te)
	types := AllAtomTypes(S, nil)
	if len(types) != 2 || types[0] != "H" || types[1] != "O" {
		Te.Fatalf("wrong atom types %v", types)
	}
	bl, err := ClosestDistances([]string{"Si", "O", "H"}, 1.4)
	if err != nil {
		Te.Fatal(err)
	}
	d, ok := bl.Get("O", "Si")
	if !ok || math.Abs(d-1.4*(0.66+1.11)) > 1e-12 {
		Te.Errorf("wrong Si-O minimum distance %f", d)
	}
	if d2, _ := bl.Get("Si", "O"); d2 != d {
		Te.Error("Blmin should be symmetric")
	}
	if _, ok := bl.Get("H", "H"); !ok {
		Te.Error("same-element pairs should be in the table")
	}
	if _, err := ClosestDistances([]string{"Xx"}, 1); err == nil {
		Te.Error("unknown elements should give an error")
	}
}

func TestTooClose(Te *testing.T) {
	top, _ := NewTopology([]string{"O", "O"})
	coords, _ := v3.NewMatrix([]float64{0.2, 0, 0, 9.8, 0, 0})
	S, _ := NewStructure(top, coords, cell10())
	bl, _ := ClosestDistances([]string{"O"}, 1.0)
	tc, err := AtomsTooClose(S, bl, false)
	if err != nil {
		Te.Fatal(err)
	}
	if !tc {
		Te.Error("atoms 0.4 A apart through the boundary should be too close")
	}
	S.PBC = [3]bool{}
	tc, _ = AtomsTooClose(S, bl, false)
	if tc {
		Te.Error("without periodicity the atoms are 9.6 A apart")
	}
	S.PBC = [3]bool{true, true, true}
	S.SetTags([]int{1, 1})
	tc, _ = AtomsTooClose(S, bl, true)
	if tc {
		Te.Error("atoms with the same tag should not be checked")
	}
	top2, _ := NewTopology([]string{"O"})
	c2, _ := v3.NewMatrix([]float64{0, 0.5, 0})
	B, _ := NewStructure(top2, c2, nil)
	tc, _ = TooCloseTwoSets(S, B, bl)
	if !tc {
		Te.Error("B is 0.54 A from the first atom of S")
	}
}

func cell10() *v3.Matrix {
	return cubic(10)
}

func TestRotations(Te *testing.T) {
	rng := rand.New(rand.NewSource(3))
	S := water(Te)
	d01 := v3.Norm(v3.Sub(S.Coords.Vec(0), S.Coords.Vec(1)))
	com, err := CenterOfMass(S, []int{0, 1, 2})
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		Rotate(S.Coords, []int{0, 1, 2}, RandomRotation(rng), com)
	}
	if d := v3.Norm(v3.Sub(S.Coords.Vec(0), S.Coords.Vec(1))); math.Abs(d-d01) > 1e-10 {
		Te.Errorf("rotations should keep distances: %f vs %f", d, d01)
	}
	ncom, _ := CenterOfMass(S, []int{0, 1, 2})
	if v3.Norm(v3.Sub(com, ncom)) > 1e-10 {
		Te.Errorf("rotating around the center of mass should keep it: %v vs %v", com, ncom)
	}
	R := RotationMatrix([3]float64{0, 0, 1}, math.Pi/2)
	c, _ := v3.NewMatrix([]float64{1, 0, 0})
	Rotate(c, []int{0}, R, [3]float64{})
	if math.Abs(c.At(0, 1)-1) > 1e-12 {
		Te.Errorf("x rotated 90 degrees around z should be y, got %v", c)
	}
	u := RandomUnitVector(rng)
	if math.Abs(v3.Norm(u)-1) > 1e-12 {
		Te.Errorf("random unit vector with norm %f", v3.Norm(u))
	}
}

func TestStructureAppend(Te *testing.T) {
	S := water(Te)
	S.Cell = cell10()
	S.PBC = [3]bool{true, true, true}
	W := water(Te)
	W.SetTags([]int{2, 2, 2})
	A := S.Append(W)
	if A.Len() != 6 || A.MaxTag() != 2 || !A.Periodic() {
		Te.Errorf("wrong appended structure: %v %v", A.Symbols(), A.Tags())
	}
	if S.Len() != 3 {
		Te.Error("Append should not modify the receiver")
	}
	groups := A.TagGroups()
	if len(groups) != 1 || len(groups[2]) != 3 || groups[2][0] != 3 {
		Te.Errorf("wrong tag groups %v", groups)
	}
	if A.Formula() != "H4O2" {
		Te.Errorf("wrong formula %s", A.Formula())
	}
	C := A.Copy()
	C.Coords.Set(0, 0, 99)
	if A.Coords.At(0, 0) == 99 {
		Te.Error("Copy should be deep")
	}
}

func TestUnwrap(Te *testing.T) {
	top, _ := NewTopology([]string{"C", "O"})
	coords, _ := v3.NewMatrix([]float64{9.5, 5, 5, 0.6, 5, 5})
	S, _ := NewStructure(top, coords, cell10())
	if err := Unwrap(S, []int{0, 1}); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(S.Coords.At(1, 0)-10.6) > 1e-10 {
		Te.Errorf("O should be moved next to C, got %v", S.Coords.Vec(1))
	}
}

func TestMinImage(Te *testing.T) {
	top, _ := NewTopology([]string{"C", "O"})
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, 1, 0, 0})
	cell, _ := v3.NewMatrix([]float64{10, 0, 0, 5, 8.66, 0, 0, 0, 10})
	S, err := NewStructure(top, coords, cell)
	if err != nil {
		Te.Fatal(err)
	}
	M, err := NewMinImage(S)
	if err != nil {
		Te.Fatal(err)
	}
	for _, c := range []struct {
		d, want [3]float64
	}{
		{[3]float64{9, 0, 0}, [3]float64{-1, 0, 0}},
		{[3]float64{5.1, 8.66, 0}, [3]float64{0.1, 0, 0}},
		{[3]float64{0, 0, -9.5}, [3]float64{0, 0, 0.5}},
	} {
		if got := M.Vector(c.d); v3.Norm(v3.Sub(got, c.want)) > 1e-9 {
			Te.Errorf("image of %v: got %v, want %v", c.d, got, c.want)
		}
	}
	S.PBC = [3]bool{true, true, false}
	M, _ = NewMinImage(S)
	if got := M.Vector([3]float64{0, 0, -9.5}); math.Abs(got[2]+9.5) > 1e-9 {
		Te.Errorf("non periodic direction folded: %v", got)
	}
	M, _ = NewMinImage(water(Te))
	if got := M.Vector([3]float64{9, 0, 0}); got != [3]float64{9, 0, 0} {
		Te.Errorf("no cell should leave the vector alone: %v", got)
	}
}
