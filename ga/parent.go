/*
 * parent.go, part of adsga.
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
	"fmt"
	"math/rand"
	"time"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/startgen"
)

// PlacementBox sets where the adsorbates are placed: a box with its origin in AdsPos
// and the cell vectors of the framework, divided by CellScale, as edges.
type PlacementBox struct {
	AdsPos    [3]float64
	CellScale float64
}

// DefaultPlacement returns a box at the origin, with a third of the framework cell.
func DefaultPlacement() PlacementBox {
	return PlacementBox{CellScale: 3}
}

// ParentGenerator builds the starting population: PopSize structures with NAds copies
// of Adsorbate placed in Framework. Mult scales the sum of the covalent radii to give
// the minimum distance allowed between two atoms.
type ParentGenerator struct {
	Framework *chem.Structure
	Adsorbate *chem.Structure
	PopSize   int
	NAds      int
	Mult      float64

	Generator GeneratorFactory //startgen.New if nil
	Rand      *rand.Rand       //seeded with the time if nil
}

// NewParentGenerator returns a ParentGenerator with the usual nads (1) and mult (1.4).
func NewParentGenerator(framework, adsorbate *chem.Structure, popSize int) *ParentGenerator {
	return &ParentGenerator{Framework: framework, Adsorbate: adsorbate, PopSize: popSize, NAds: 1, Mult: 1.4}
}

// ConstructParent returns PopSize new structures with the adsorbates placed in box.
// It doesn't write anything to the database. If a structure can't be built
// the error is returned, with no retries.
func (P *ParentGenerator) ConstructParent(box PlacementBox) ([]*chem.Structure, error) {
	if P.PopSize <= 0 {
		return []*chem.Structure{}, nil
	}
	if P.Framework == nil || P.Adsorbate == nil {
		return nil, fmt.Errorf("ConstructParent: framework and adsorbate are required")
	}
	if P.Framework.Cell == nil {
		return nil, fmt.Errorf("ConstructParent: the framework has no cell")
	}
	if box.CellScale <= 0 {
		return nil, fmt.Errorf("ConstructParent: invalid cell scale %f", box.CellScale)
	}
	var sbox startgen.Box
	sbox.Origin = box.AdsPos
	sbox.Vectors = P.Framework.Cell.Clone()
	sbox.Vectors.Scale(1/box.CellScale, sbox.Vectors.Dense)
	types := chem.AllAtomTypes(P.Framework, P.Adsorbate)
	blmin, err := chem.ClosestDistances(types, P.Mult)
	if err != nil {
		return nil, fmt.Errorf("ConstructParent: %w", err)
	}
	//only the symbols and positions of the adsorbate are used.
	top, err := chem.NewTopology(P.Adsorbate.Symbols())
	if err != nil {
		return nil, err
	}
	ads, err := chem.NewStructure(top, P.Adsorbate.Coords.Clone(), nil)
	if err != nil {
		return nil, err
	}
	rng := P.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	gen := P.Generator
	if gen == nil {
		gen = defaultGenerator
	}
	sg, err := gen(P.Framework, []startgen.Block{{Mol: ads, N: P.NAds}}, blmin, sbox, rng)
	if err != nil {
		return nil, fmt.Errorf("ConstructParent: %w", err)
	}
	pop := make([]*chem.Structure, 0, P.PopSize)
	for i := 0; i < P.PopSize; i++ {
		S, err := sg.NewCandidate()
		if err != nil {
			return nil, fmt.Errorf("ConstructParent: candidate %d: %w", i, err)
		}
		pop = append(pop, S)
	}
	return pop, nil
}
