/*
 * commands.go, part of adsga.
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

package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/chemplot"
	"github.com/rmera/adsga/ga"
	"github.com/rmera/adsga/gadb"
	"github.com/rmera/adsga/mutate"
	"github.com/rmera/adsga/qm"
)

// readStructure reads an extended XYZ file, or a POSCAR for any other extension.
func readStructure(name string) (*chem.Structure, error) {
	if name == "" {
		return nil, fmt.Errorf("no structure file given")
	}
	if strings.EqualFold(filepath.Ext(name), ".xyz") {
		return chem.XYZFileRead(name)
	}
	return chem.PoscarFileRead(name)
}

func (C *Config) newRand() *rand.Rand {
	seed := C.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// operationLabel is the metrics label for a child's description.
func operationLabel(desc string) string {
	if strings.HasPrefix(desc, "pairing") {
		return "pairing"
	}
	return desc
}

// setBest sets the best raw score gauge from the relaxed candidates in the database.
func setBest(ctx context.Context, db *gadb.DataConnection, m *runMetrics) error {
	cands, err := db.AllRelaxedCandidates(ctx)
	if err != nil {
		return err
	}
	if len(cands) == 0 {
		return nil
	}
	best := cands[0].RawScore
	for _, c := range cands[1:] {
		best = math.Max(best, c.RawScore)
	}
	m.best.Set(best)
	return nil
}

// runParents prepares the database and fills it with the starting candidates.
// It returns their confids.
func runParents(ctx context.Context, conf *Config, m *runMetrics) ([]int, error) {
	fw, err := readStructure(conf.Framework)
	if err != nil {
		return nil, fmt.Errorf("framework: %w", err)
	}
	ads, err := readStructure(conf.Adsorbate)
	if err != nil {
		return nil, fmt.Errorf("adsorbate: %w", err)
	}
	P := ga.NewParentGenerator(fw, ads, conf.PopSize)
	P.NAds = conf.NAds
	P.Mult = conf.Mult
	P.Rand = conf.newRand()
	structs, err := P.ConstructParent(ga.PlacementBox{AdsPos: conf.AdsPos, CellScale: conf.CellScale})
	if err != nil {
		return nil, err
	}
	if err := gadb.PrepareDB(ctx, conf.DB, fw, conf.PopSize); err != nil {
		return nil, err
	}
	db, err := gadb.Open(ctx, conf.DB)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	ids := make([]int, 0, len(structs))
	for _, s := range structs {
		c := &gadb.Candidate{Structure: s, Origin: ga.OriginUnrelaxedStart}
		id, err := db.AddUnrelaxedCandidate(ctx, c, "random")
		if err != nil {
			return ids, err
		}
		m.created.WithLabelValues(c.Origin).Inc()
		ids = append(ids, id)
	}
	return ids, nil
}

// runUpdate collects the relaxations of all the unrelaxed candidates.
func runUpdate(ctx context.Context, conf *Config, m *runMetrics, logger ga.Logger) ([]int, error) {
	U := ga.NewUpdater(conf.DB)
	U.DirTemplate = conf.DirTemplate
	U.Logger = logger
	ids, err := U.UpdateAll(ctx)
	m.relaxed.Add(float64(len(ids)))
	if err != nil {
		return ids, err
	}
	db, err := gadb.Open(ctx, conf.DB)
	if err != nil {
		return ids, err
	}
	defer db.Close()
	return ids, setBest(ctx, db, m)
}

// operators builds the weighted operator set from the configuration.
func (C *Config) operators(bl chem.Blmin, rng *rand.Rand) (*mutate.OperationSelector, error) {
	rattle := mutate.NewRattleMutation(bl, rng)
	rattle.Strength = C.RattleStrength
	rattle.Prop = C.RattleProp
	rot := mutate.NewRotationalMutation(bl, rng)
	rot.Fraction = C.RotateFraction
	rot.MinAngle = C.minAngle()
	rr := &mutate.RattleRotationalMutation{Rattle: rattle, Rotational: rot}
	weights := []float64{C.RattleWeight, C.RotationalWeight, C.RattleRotationalWeight, C.PairingWeight}
	ops := []mutate.Operator{rattle, rot, rr, mutate.NewCutSplicePairing(bl, rng)}
	return mutate.NewOperationSelector(weights, ops, rng)
}

// runChildren builds the population from the relaxed candidates and adds up to N children.
func runChildren(ctx context.Context, conf *Config, m *runMetrics, logger ga.Logger) ([]string, [][2]int, error) {
	db, err := gadb.Open(ctx, conf.DB)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()
	size, err := db.PopulationSize(ctx)
	if err != nil {
		return nil, nil, err
	}
	rng := conf.newRand()
	pop, err := ga.NewPopulation(ctx, db, size, ga.NewInteratomicDistanceComparator(), rng)
	if err != nil {
		return nil, nil, err
	}
	best := pop.Best()
	if best == nil {
		return nil, nil, ga.ErrNoPopulation
	}
	bl, err := chem.ClosestDistances(chem.AllAtomTypes(best.Structure), conf.Mult)
	if err != nil {
		return nil, nil, err
	}
	sel, err := conf.operators(bl, rng)
	if err != nil {
		return nil, nil, err
	}
	C := &ga.ChildGenerator{DB: conf.DB, Pop: pop, Operation: sel, N: conf.N, Num: conf.Num, Logger: logger}
	ops, marriages, err := C.ConstructChild(ctx)
	for i, op := range ops {
		m.created.WithLabelValues(operationLabel(op)).Inc()
		logger.Printf("Child from %d and %d: %s", marriages[i][0], marriages[i][1], op)
	}
	if err != nil {
		return ops, marriages, err
	}
	m.skipped.Add(float64(conf.N - len(ops)))
	return ops, marriages, setBest(ctx, db, m)
}

// runInputs writes the VASP inputs for every unrelaxed candidate in its run directory.
func runInputs(ctx context.Context, conf *Config, logger ga.Logger) (int, error) {
	db, err := gadb.Open(ctx, conf.DB)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	cands, err := db.AllUnrelaxedCandidates(ctx)
	if err != nil {
		return 0, err
	}
	Q := conf.calc()
	h := qm.NewVaspHandle()
	for i, c := range cands {
		dir := fmt.Sprintf(conf.DirTemplate, c.Confid)
		h.SetDirectory(dir)
		if err := h.BuildInput(c.Structure, Q); err != nil {
			return i, fmt.Errorf("candidate %d: %w", c.Confid, err)
		}
		logger.Printf("Wrote the input for candidate %d in %s", c.Confid, dir)
	}
	return len(cands), nil
}

// runPlot plots the raw scores of the relaxed candidates.
func runPlot(ctx context.Context, conf *Config, m *runMetrics) error {
	db, err := gadb.Open(ctx, conf.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	cands, err := db.AllRelaxedCandidates(ctx)
	if err != nil {
		return err
	}
	if err := setBest(ctx, db, m); err != nil {
		return err
	}
	return chemplot.FitnessPlot(cands, filepath.Base(conf.DB), conf.PlotFile)
}
