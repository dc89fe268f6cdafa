/*
 * bonds.go, part of adsga.
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
	"fmt"
	"sort"
)

// Blmin is a table of minimum allowed distances (in A) between pairs of elements.
// Keys are stored with the two symbols in lexical order, use Get and Set.
type Blmin map[[2]string]float64

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Get returns the minimum distance between elements a and b, and
// false if the pair is not in the table.
func (B Blmin) Get(a, b string) (float64, bool) {
	d, ok := B[pairKey(a, b)]
	return d, ok
}

// Set sets the minimum distance between elements a and b.
func (B Blmin) Set(a, b string, d float64) {
	B[pairKey(a, b)] = d
}

// Scaled returns a copy of B with all distances multiplied by f.
func (B Blmin) Scaled(f float64) Blmin {
	ret := make(Blmin, len(B))
	for k, v := range B {
		ret[k] = v * f
	}
	return ret
}

// ClosestDistances builds a Blmin table for all pairs of the given elements,
// where the minimum distance for a pair is ratio times the sum of the covalent
// radii of the two elements. Returns error if a covalent radius is not known.
func ClosestDistances(symbols []string, ratio float64) (Blmin, error) {
	ret := make(Blmin)
	for i, a := range symbols {
		ra, ok := CovalentRadius(a)
		if !ok {
			return nil, fmt.Errorf("ClosestDistances: no covalent radius known for %s", a)
		}
		for _, b := range symbols[i:] {
			rb, ok := CovalentRadius(b)
			if !ok {
				return nil, fmt.Errorf("ClosestDistances: no covalent radius known for %s", b)
			}
			ret.Set(a, b, ratio*(ra+rb))
		}
	}
	return ret, nil
}

// AllAtomTypes returns the sorted, unique element symbols present in the given
// topologies.
func AllAtomTypes(tops ...Atomer) []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, 4)
	for _, t := range tops {
		if t == nil {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			s := t.Atom(i).Symbol
			if !seen[s] {
				seen[s] = true
				ret = append(ret, s)
			}
		}
	}
	sort.Strings(ret)
	return ret
}

// AtomsTooClose returns true if any two atoms in S are closer than the
// distance given by bl for their elements. If useTags is true, atoms that share
// a tag larger than zero are not checked against each other, and neither are
// two framework (tag 0) atoms. Distances use the minimum image convention if S
// is periodic. Pairs missing from bl are not checked.
func AtomsTooClose(S *Structure, bl Blmin, useTags bool) (bool, error) {
	M, err := NewMinImage(S)
	if err != nil {
		return false, err
	}
	n := S.Len()
	for i := 0; i < n; i++ {
		ai := S.Atoms[i]
		ci := S.Coords.Vec(i)
		for j := i + 1; j < n; j++ {
			aj := S.Atoms[j]
			if useTags && ai.Tag == aj.Tag {
				continue
			}
			d, ok := bl.Get(ai.Symbol, aj.Symbol)
			if !ok {
				continue
			}
			if M.Distance(ci, S.Coords.Vec(j)) < d {
				return true, nil
			}
		}
	}
	return false, nil
}

// TooCloseTwoSets returns true if any atom of B is closer to any atom of A
// than the distance given by bl for their elements. The cell of A is used
// for the minimum image convention.
func TooCloseTwoSets(A, B *Structure, bl Blmin) (bool, error) {
	M, err := NewMinImage(A)
	if err != nil {
		return false, err
	}
	for i := 0; i < A.Len(); i++ {
		ci := A.Coords.Vec(i)
		si := A.Atoms[i].Symbol
		for j := 0; j < B.Len(); j++ {
			d, ok := bl.Get(si, B.Atoms[j].Symbol)
			if !ok {
				continue
			}
			if M.Distance(ci, B.Coords.Vec(j)) < d {
				return true, nil
			}
		}
	}
	return false, nil
}
