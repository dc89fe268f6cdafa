/*
 * population.go, part of adsga.
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
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rmera/adsga/gadb"
	"gonum.org/v1/gonum/floats"
)

// ErrNoPopulation is returned when there are not enough candidates to pick parents from.
var ErrNoPopulation = errors.New("ga: fewer than 2 candidates in the population")

// CandidateLister gives all the candidates of a database.
type CandidateLister interface {
	AllRelaxedCandidates(ctx context.Context) ([]*gadb.Candidate, error)
	AllUnrelaxedCandidates(ctx context.Context) ([]*gadb.Candidate, error)
}

// Comparator decides whether two candidates are the same structure.
type Comparator interface {
	LooksLike(a, b *gadb.Candidate) bool
}

// Population is the mating pool: the best Size relaxed candidates, all different
// according to the comparator, sorted by decreasing raw score.
// Parents are chosen by roulette on a fitness that decreases with the
// number of children a candidate already has, avoiding pairs already used.
type Population struct {
	Size     int
	Comp     Comparator
	MaxTries int

	rng   *rand.Rand
	pop   []*gadb.Candidate
	used  map[int]int     //times a candidate has been a parent
	pairs map[[2]int]bool //pairs of parents already used
}

// NewPopulation builds a population of the given size from the candidates in db.
func NewPopulation(ctx context.Context, db CandidateLister, size int, comp Comparator, rng *rand.Rand) (*Population, error) {
	if rng == nil {
		return nil, fmt.Errorf("NewPopulation: random source is required")
	}
	if comp == nil {
		comp = RawScoreComparator{Dist: 1e-6}
	}
	P := &Population{Size: size, Comp: comp, MaxTries: 1000, rng: rng}
	if err := P.Update(ctx, db); err != nil {
		return nil, err
	}
	return P, nil
}

// Update rebuilds the population, and the parent history, from db.
func (P *Population) Update(ctx context.Context, db CandidateLister) error {
	relaxed, err := db.AllRelaxedCandidates(ctx)
	if err != nil {
		return fmt.Errorf("Population: %w", err)
	}
	unrelaxed, err := db.AllUnrelaxedCandidates(ctx)
	if err != nil {
		return fmt.Errorf("Population: %w", err)
	}
	P.used = make(map[int]int)
	P.pairs = make(map[[2]int]bool)
	for _, c := range append(append([]*gadb.Candidate{}, relaxed...), unrelaxed...) {
		for _, p := range c.Parents {
			P.used[p]++
		}
		if len(c.Parents) == 2 {
			P.pairs[pairKey(c.Parents[0], c.Parents[1])] = true
		}
	}
	sort.SliceStable(relaxed, func(i, j int) bool { return relaxed[i].RawScore > relaxed[j].RawScore })
	P.pop = make([]*gadb.Candidate, 0, P.Size)
	for _, c := range relaxed {
		if len(P.pop) >= P.Size {
			break
		}
		dup := false
		for _, q := range P.pop {
			if P.Comp.LooksLike(c, q) {
				dup = true
				break
			}
		}
		if !dup {
			P.pop = append(P.pop, c)
		}
	}
	return nil
}

func pairKey(a, b int) [2]int {
	if b < a {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Candidates returns the current population, best first.
func (P *Population) Candidates() []*gadb.Candidate {
	return append([]*gadb.Candidate(nil), P.pop...)
}

// Best returns the candidate with the highest raw score, or nil if the population is empty.
func (P *Population) Best() *gadb.Candidate {
	if len(P.pop) == 0 {
		return nil
	}
	return P.pop[0]
}

// Fitness returns the fitness of each candidate of the population, in the same order.
// Raw scores are mapped to (0,1] with 0.5*(1-tanh(2*(f-fmax)/(fmin-fmax)-1)), and
// scaled by 1/sqrt(1+n), n being the number of times the candidate has been a parent.
func (P *Population) Fitness() []float64 {
	scores := make([]float64, len(P.pop))
	for i, c := range P.pop {
		scores[i] = c.RawScore
	}
	fit := make([]float64, len(scores))
	if len(scores) == 0 {
		return fit
	}
	fmax := floats.Max(scores)
	T := floats.Min(scores) - fmax
	for i, f := range scores {
		if T == 0 {
			fit[i] = 1
		} else {
			fit[i] = 0.5 * (1 - math.Tanh(2*(f-fmax)/T-1))
		}
		fit[i] /= math.Sqrt(1 + float64(P.used[P.pop[i].Confid]))
	}
	return fit
}

// TwoCandidates picks two different parents by roulette on the fitness. Pairs that
// were already used are avoided for up to MaxTries attempts.
func (P *Population) TwoCandidates() ([]*gadb.Candidate, error) {
	if len(P.pop) < 2 {
		return nil, ErrNoPopulation
	}
	fit := P.Fitness()
	fmax := floats.Max(fit)
	roulette := func() int {
		for {
			i := P.rng.Intn(len(fit))
			if P.rng.Float64()*fmax < fit[i] {
				return i
			}
		}
	}
	tries := P.MaxTries
	if tries <= 0 {
		tries = 1
	}
	var c1, c2 int
	for t := 0; t < tries; t++ {
		c1 = roulette()
		c2 = roulette()
		for c2 == c1 {
			c2 = roulette()
		}
		if !P.pairs[pairKey(P.pop[c1].Confid, P.pop[c2].Confid)] {
			break
		}
	}
	a, b := P.pop[c1], P.pop[c2]
	P.used[a.Confid]++
	P.used[b.Confid]++
	P.pairs[pairKey(a.Confid, b.Confid)] = true
	return []*gadb.Candidate{a, b}, nil
}
