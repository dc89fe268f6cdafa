/*
 * comparators.go, part of adsga.
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
	"math"
	"sort"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	"gonum.org/v1/gonum/floats"
)

// RawScoreComparator considers two candidates equal if their raw scores
// differ by less than Dist.
type RawScoreComparator struct {
	Dist float64
}

// LooksLike returns true if a and b have the same raw score, within Dist.
func (R RawScoreComparator) LooksLike(a, b *gadb.Candidate) bool {
	return math.Abs(a.RawScore-b.RawScore) < R.Dist
}

// InteratomicDistanceComparator considers two candidates equal if their energies
// differ by less than DE and the sorted lists of distances between adsorbate atoms
// (tag larger than 0) of each element are similar: the cumulative relative difference,
// weighted by the fraction of atoms of each element, is below PairCorCumDiff and no single
// distance differs by PairCorMax or more.
type InteratomicDistanceComparator struct {
	PairCorCumDiff float64
	PairCorMax     float64
	DE             float64
	MIC            bool //use the minimum image convention for the distances
}

// NewInteratomicDistanceComparator returns a comparator with the usual thresholds.
func NewInteratomicDistanceComparator() *InteratomicDistanceComparator {
	return &InteratomicDistanceComparator{PairCorCumDiff: 0.015, PairCorMax: 0.7, DE: 0.02}
}

// LooksLike returns true if a and b are the same structure.
func (I *InteratomicDistanceComparator) LooksLike(a, b *gadb.Candidate) bool {
	if math.Abs(a.RawScore-b.RawScore) >= I.DE {
		return false
	}
	cum, maxd, ok := I.compare(a.Structure, b.Structure)
	if !ok {
		return false
	}
	return cum < I.PairCorCumDiff && maxd < I.PairCorMax
}

// sortedDistances returns, for each element, the sorted distances between all pairs of
// adsorbate atoms of that element, and the number of adsorbate atoms.
func (I *InteratomicDistanceComparator) sortedDistances(S *chem.Structure) (map[string][]float64, int, bool) {
	idx := make([]int, 0, S.Len())
	for i, at := range S.Atoms {
		if at.Tag > 0 {
			idx = append(idx, i)
		}
	}
	var M *chem.MinImage
	if I.MIC {
		var err error
		M, err = chem.NewMinImage(S)
		if err != nil {
			return nil, 0, false
		}
	} else {
		M = new(chem.MinImage) //a zero MinImage gives plain distances.
	}
	ret := make(map[string][]float64)
	for k, i := range idx {
		si := S.Atoms[i].Symbol
		if _, ok := ret[si]; !ok {
			ret[si] = []float64{}
		}
		for _, j := range idx[k+1:] {
			if S.Atoms[j].Symbol != si {
				continue
			}
			ret[si] = append(ret[si], M.Distance(S.Coords.Vec(i), S.Coords.Vec(j)))
		}
	}
	for _, d := range ret {
		sort.Float64s(d)
	}
	return ret, len(idx), true
}

func (I *InteratomicDistanceComparator) compare(A, B *chem.Structure) (cum, maxd float64, ok bool) {
	if A == nil || B == nil || A.Len() != B.Len() {
		return 0, 0, false
	}
	pa, na, ok := I.sortedDistances(A)
	if !ok {
		return 0, 0, false
	}
	pb, nb, ok := I.sortedDistances(B)
	if !ok || na != nb || len(pa) != len(pb) {
		return 0, 0, false
	}
	if na == 0 {
		return 0, 0, true
	}
	counts := make(map[string]int)
	for _, at := range A.Atoms {
		if at.Tag > 0 {
			counts[at.Symbol]++
		}
	}
	for sym, c1 := range pa {
		c2, ok := pb[sym]
		if !ok || len(c1) != len(c2) {
			return 0, 0, false
		}
		if len(c1) == 0 {
			continue
		}
		d := make([]float64, len(c1))
		floats.SubTo(d, c1, c2)
		for i := range d {
			d[i] = math.Abs(d[i])
		}
		tsize := floats.Sum(c1)
		if tsize == 0 {
			continue
		}
		cum += floats.Sum(d) / tsize * float64(counts[sym]) / float64(na)
		maxd = math.Max(maxd, floats.Max(d))
	}
	return cum, maxd, true
}
