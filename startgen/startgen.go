/*
 * startgen.go, part of adsga.
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

//Package startgen builds starting candidates for the genetic algorithm by placing
//rigid copies of molecules (blocks) at random positions and orientations inside a box,
//on top of a fixed framework (the slab), under minimum-distance constraints.
package startgen

import (
	"errors"
	"fmt"
	"math/rand"

	chem "github.com/rmera/adsga"
	v3 "github.com/rmera/adsga/v3"
)

// DefaultMaxAttempts is the number of random placements tried for each molecule
// before giving up.
const DefaultMaxAttempts = 1000

// ErrPlacement is returned when a molecule couldn't be placed without violating the
// minimum distances.
var ErrPlacement = errors.New("startgen: can't place molecule without violating minimum distances")

// Block is a molecule and the number of copies of it to place.
type Block struct {
	Mol *chem.Structure
	N   int
}

// Box is the region where the centers of the placed molecules can go:
// Origin + (r0, r1, r2)·Vectors, where the rows of Vectors span the box and ri is in [0,1).
type Box struct {
	Origin  [3]float64
	Vectors *v3.Matrix
}

// Point returns the point of the box with fractional coordinates f.
func (B Box) Point(f [3]float64) [3]float64 {
	p := v3.Zeros(1)
	p.SetVec(0, f)
	p.Mul(p, B.Vectors)
	return v3.Add(B.Origin, p.Vec(0))
}

// StartGenerator produces new candidates made of the slab plus the blocks.
type StartGenerator struct {
	slab   *chem.Structure
	blocks []Block
	blmin  chem.Blmin
	box    Box
	rng    *rand.Rand

	//MaxAttempts is the number of random placements tried per molecule.
	MaxAttempts int
}

// New returns a StartGenerator. slab can be an empty structure, but should
// carry the cell if the system is periodic. rng is required.
func New(slab *chem.Structure, blocks []Block, blmin chem.Blmin, box Box, rng *rand.Rand) (*StartGenerator, error) {
	if slab == nil {
		return nil, fmt.Errorf("startgen: nil slab")
	}
	if err := slab.Corrupted(); err != nil {
		return nil, fmt.Errorf("startgen: slab: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("startgen: random source is required")
	}
	for i, b := range blocks {
		if b.Mol == nil || b.Mol.Len() == 0 {
			return nil, fmt.Errorf("startgen: block %d has no atoms", i)
		}
		if b.N < 0 {
			return nil, fmt.Errorf("startgen: block %d with negative count %d", i, b.N)
		}
	}
	return &StartGenerator{
		slab:        slab,
		blocks:      blocks,
		blmin:       blmin,
		box:         box,
		rng:         rng,
		MaxAttempts: DefaultMaxAttempts,
	}, nil
}

// NewCandidate returns a new structure with the slab followed by all the molecules
// of all the blocks. Each placed molecule gets its own tag, starting after the largest
// tag of the slab. Molecules are rotated randomly around their center of mass and placed
// with the center of mass at a random point of the box. The minimum distances are checked
// against the slab and the molecules already placed, never within a molecule.
func (S *StartGenerator) NewCandidate() (*chem.Structure, error) {
	cand := S.slab.Copy()
	tag := cand.MaxTag() + 1
	for bi, b := range S.blocks {
		for k := 0; k < b.N; k++ {
			mol, err := S.place(cand, b.Mol)
			if err != nil {
				return nil, fmt.Errorf("block %d, copy %d: %w", bi, k, err)
			}
			tags := make([]int, mol.Len())
			for i := range tags {
				tags[i] = tag
			}
			mol.SetTags(tags)
			cand = cand.Append(mol)
			tag++
		}
	}
	return cand, nil
}

func (S *StartGenerator) place(cand, template *chem.Structure) (*chem.Structure, error) {
	all := make([]int, template.Len())
	for i := range all {
		all[i] = i
	}
	com, err := chem.CenterOfMass(template, all)
	if err != nil {
		return nil, err
	}
	attempts := S.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	for a := 0; a < attempts; a++ {
		mol := template.Copy()
		mol.Cell = nil
		mol.PBC = [3]bool{}
		chem.Rotate(mol.Coords, all, chem.RandomRotation(S.rng), com)
		target := S.box.Point([3]float64{S.rng.Float64(), S.rng.Float64(), S.rng.Float64()})
		chem.Translate(mol.Coords, all, v3.Sub(target, com))
		tooclose, err := chem.TooCloseTwoSets(cand, mol, S.blmin)
		if err != nil {
			return nil, err
		}
		if !tooclose {
			return mol, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrPlacement, attempts)
}
