/*
 * rattle.go, part of adsga.
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

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
)

// RattleMutation displaces molecules rigidly. Each molecule is moved with
// probability Prop, by a random vector with components uniformly distributed
// between -Strength and Strength (A).
type RattleMutation struct {
	Blmin    chem.Blmin
	Strength float64
	Prop     float64
	MaxCount int
	rng      *rand.Rand
}

// NewRattleMutation returns a RattleMutation with the default strength (0.8) and
// probability (0.4).
func NewRattleMutation(blmin chem.Blmin, rng *rand.Rand) *RattleMutation {
	return &RattleMutation{Blmin: blmin, Strength: 0.8, Prop: 0.4, MaxCount: DefaultMaxCount, rng: rng}
}

// NewIndividual rattles the molecules of the first parent.
func (O *RattleMutation) NewIndividual(parents []*gadb.Candidate) (*gadb.Candidate, string, error) {
	const desc = "mutation: rattle"
	if len(parents) == 0 {
		return nil, desc, nil
	}
	S, err := O.mutate(parents[0])
	if err != nil || S == nil {
		return nil, desc, err
	}
	return offspring(S, "RattleMutation", desc, parents[0]), desc, nil
}

func (O *RattleMutation) mutate(parent *gadb.Candidate) (*chem.Structure, error) {
	ref, groups, tags, err := workCopy(parent)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	for c := 0; c < maxCount(O.MaxCount); c++ {
		S := ref.Copy()
		moved := false
		for _, t := range tags {
			if O.rng.Float64() >= O.Prop {
				continue
			}
			var d [3]float64
			for j := range d {
				d[j] = O.Strength * (2*O.rng.Float64() - 1)
			}
			chem.Translate(S.Coords, groups[t], d)
			moved = true
		}
		if !moved {
			continue
		}
		tc, err := chem.AtomsTooClose(S, O.Blmin, true)
		if err != nil {
			return nil, err
		}
		if !tc {
			return S, nil
		}
	}
	return nil, nil
}

// RotationalMutation rotates a fraction of the molecules around their centers of mass,
// each one around a random axis and by an angle of at least MinAngle radians.
type RotationalMutation struct {
	Blmin    chem.Blmin
	Fraction float64
	MinAngle float64
	MaxCount int
	rng      *rand.Rand
}

// NewRotationalMutation returns a RotationalMutation which rotates a third of the
// molecules, by at least pi/2.
func NewRotationalMutation(blmin chem.Blmin, rng *rand.Rand) *RotationalMutation {
	return &RotationalMutation{Blmin: blmin, Fraction: 0.33, MinAngle: math.Pi / 2, MaxCount: DefaultMaxCount, rng: rng}
}

// NewIndividual rotates molecules of the first parent.
func (O *RotationalMutation) NewIndividual(parents []*gadb.Candidate) (*gadb.Candidate, string, error) {
	const desc = "mutation: rotational"
	if len(parents) == 0 {
		return nil, desc, nil
	}
	ref, groups, tags, err := workCopy(parents[0])
	if err != nil {
		return nil, desc, err
	}
	S, err := O.mutate(ref, groups, tags)
	if err != nil || S == nil {
		return nil, desc, err
	}
	return offspring(S, "RotationalMutation", desc, parents[0]), desc, nil
}

// rotates a random subset of the molecules of ref, returns nil if no valid
// structure was found in MaxCount attempts.
func (O *RotationalMutation) mutate(ref *chem.Structure, groups map[int][]int, tags []int) (*chem.Structure, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	nrot := int(math.Ceil(O.Fraction * float64(len(tags))))
	if nrot < 1 {
		nrot = 1
	}
	if nrot > len(tags) {
		nrot = len(tags)
	}
	for c := 0; c < maxCount(O.MaxCount); c++ {
		S := ref.Copy()
		for _, k := range O.rng.Perm(len(tags))[:nrot] {
			idx := groups[tags[k]]
			com, err := chem.CenterOfMass(S, idx)
			if err != nil {
				return nil, err
			}
			angle := O.MinAngle + O.rng.Float64()*(2*math.Pi-2*O.MinAngle)
			R := chem.RotationMatrix(chem.RandomUnitVector(O.rng), angle)
			chem.Rotate(S.Coords, idx, R, com)
		}
		tc, err := chem.AtomsTooClose(S, O.Blmin, true)
		if err != nil {
			return nil, err
		}
		if !tc {
			return S, nil
		}
	}
	return nil, nil
}

// RattleRotationalMutation applies a RattleMutation and then a RotationalMutation.
type RattleRotationalMutation struct {
	Rattle     *RattleMutation
	Rotational *RotationalMutation
}

// NewRattleRotationalMutation returns a RattleRotationalMutation with the defaults
// of both mutations.
func NewRattleRotationalMutation(blmin chem.Blmin, rng *rand.Rand) *RattleRotationalMutation {
	return &RattleRotationalMutation{Rattle: NewRattleMutation(blmin, rng), Rotational: NewRotationalMutation(blmin, rng)}
}

// NewIndividual rattles and then rotates molecules of the first parent.
func (O *RattleRotationalMutation) NewIndividual(parents []*gadb.Candidate) (*gadb.Candidate, string, error) {
	const desc = "mutation: rattlerotational"
	if len(parents) == 0 {
		return nil, desc, nil
	}
	S, err := O.Rattle.mutate(parents[0])
	if err != nil || S == nil {
		return nil, desc, err
	}
	groups := S.TagGroups()
	S, err = O.Rotational.mutate(S, groups, S.SortedTags())
	if err != nil || S == nil {
		return nil, desc, err
	}
	return offspring(S, "RattleRotationalMutation", desc, parents[0]), desc, nil
}
