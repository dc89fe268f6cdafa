/*
 * mutate.go, part of adsga.
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

//Package mutate contains the operators that produce new candidates from existing ones:
//mutations acting on one parent and a cut-and-splice pairing acting on two, all of them
//moving whole molecules (atoms sharing a tag larger than 0) as rigid bodies, and
//a weighted selector to choose among them.
//
//An operator that can't produce a valid offspring (one that respects the minimum
//distances) within its number of attempts returns a nil candidate and no error.
package mutate

import (
	"fmt"
	"math/rand"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	"gonum.org/v1/gonum/floats"
)

// DefaultMaxCount is the default number of attempts an operator makes to produce
// a valid offspring.
const DefaultMaxCount = 1000

// Operator produces a new candidate from one or more parents, and a description of
// what was done. A nil candidate with a nil error means no valid offspring was found.
type Operator interface {
	NewIndividual(parents []*gadb.Candidate) (*gadb.Candidate, string, error)
}

// prepares a copy of the parent structure with all molecules unwrapped.
func workCopy(parent *gadb.Candidate) (*chem.Structure, map[int][]int, []int, error) {
	if parent == nil || parent.Structure == nil {
		return nil, nil, nil, fmt.Errorf("mutate: nil parent")
	}
	S := parent.Structure.Copy()
	groups := S.TagGroups()
	tags := S.SortedTags()
	for _, t := range tags {
		if err := chem.Unwrap(S, groups[t]); err != nil {
			return nil, nil, nil, err
		}
	}
	return S, groups, tags, nil
}

func offspring(S *chem.Structure, origin, desc string, parents ...*gadb.Candidate) *gadb.Candidate {
	ids := make([]int, len(parents))
	for i, p := range parents {
		ids[i] = p.Confid
	}
	return &gadb.Candidate{Structure: S, Origin: origin, Description: desc, Parents: ids}
}

func maxCount(n int) int {
	if n <= 0 {
		return DefaultMaxCount
	}
	return n
}

// OperationSelector chooses operators at random, with a probability
// proportional to their weights.
type OperationSelector struct {
	cum []float64
	ops []Operator
	rng *rand.Rand
}

// NewOperationSelector returns a selector for the given operators and weights.
// Weights must be non-negative and at least one must be positive.
func NewOperationSelector(weights []float64, ops []Operator, rng *rand.Rand) (*OperationSelector, error) {
	if len(weights) != len(ops) {
		return nil, fmt.Errorf("mutate: %d weights for %d operators", len(weights), len(ops))
	}
	if rng == nil {
		return nil, fmt.Errorf("mutate: random source is required")
	}
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("mutate: negative weight %f for operator %d", w, i)
		}
		if w > 0 && ops[i] == nil {
			return nil, fmt.Errorf("mutate: nil operator %d", i)
		}
	}
	if len(weights) == 0 || floats.Sum(weights) <= 0 {
		return nil, fmt.Errorf("mutate: no operator with positive weight")
	}
	cum := make([]float64, len(weights))
	floats.CumSum(cum, weights)
	return &OperationSelector{cum: cum, ops: ops, rng: rng}, nil
}

// GetOperator returns one of the operators. Operators with zero weight are never returned.
func (O *OperationSelector) GetOperator() Operator {
	total := O.cum[len(O.cum)-1]
	r := O.rng.Float64() * total
	prev := 0.0
	for i, c := range O.cum {
		if r < c && c > prev {
			return O.ops[i]
		}
		prev = c
	}
	//r can only reach here through rounding, return the last operator with weight.
	for i := len(O.cum) - 1; i > 0; i-- {
		if O.cum[i] > O.cum[i-1] {
			return O.ops[i]
		}
	}
	return O.ops[0]
}
