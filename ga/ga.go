/*
 * ga.go, part of adsga.
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

//Package ga drives a genetic algorithm search for low-energy configurations of adsorbates
//in a framework. It has three steps, each meant to be invoked independently:
//ParentGenerator builds the starting population, Updater collects the results of the
//relaxations of the unrelaxed candidates in the database, and ChildGenerator produces
//new candidates from the relaxed ones. The relaxations themselves are run by other means
//between steps.
//
//The backends (structure generation, operators, the candidate database and the
//calculator) are used through the interfaces in this file.
package ga

import (
	"context"
	"log"
	"math/rand"

	chem "github.com/rmera/adsga"
	"github.com/rmera/adsga/gadb"
	"github.com/rmera/adsga/mutate"
	"github.com/rmera/adsga/qm"
	"github.com/rmera/adsga/startgen"
)

// Origin labels stored with the candidates.
const (
	OriginUnrelaxedStart = "StartingCandidateUnrelaxed"
	OriginRelaxed        = "StartingCandidateRelaxed"
)

// DefaultDirTemplate is the default run directory of a candidate, formatted with its confid.
const DefaultDirTemplate = "./Candidates/Can-%02d"

// Logger receives the progress messages.
type Logger interface {
	Printf(format string, v ...any)
}

// StructureGenerator produces new random candidates.
type StructureGenerator interface {
	NewCandidate() (*chem.Structure, error)
}

// GeneratorFactory builds a StructureGenerator placing the blocks on the slab,
// inside box, with minimum distances blmin.
type GeneratorFactory func(slab *chem.Structure, blocks []startgen.Block, blmin chem.Blmin, box startgen.Box, rng *rand.Rand) (StructureGenerator, error)

// OperatorSelector chooses the operator to apply for each new child.
type OperatorSelector interface {
	GetOperator() mutate.Operator
}

// PairSource gives the parents for each new child.
type PairSource interface {
	TwoCandidates() ([]*gadb.Candidate, error)
}

// CandidateStore is the database of candidates, as used by the Updater and the ChildGenerator.
type CandidateStore interface {
	NumberOfUnrelaxedCandidates(ctx context.Context) (int, error)
	AnUnrelaxedCandidate(ctx context.Context) (*gadb.Candidate, error)
	AddUnrelaxedCandidate(ctx context.Context, c *gadb.Candidate, description string) (int, error)
	Update(ctx context.Context, confid int, c *gadb.Candidate) error
	Close() error
}

// StoreOpener opens the CandidateStore in path.
type StoreOpener func(ctx context.Context, path string) (CandidateStore, error)

// Calculator reads the results of a relaxation from a run directory.
type Calculator interface {
	SetDirectory(dir string)
	Energy() (float64, error)
	OptimizedGeometry(ref *chem.Structure) (*chem.Structure, error)
}

func defaultGenerator(slab *chem.Structure, blocks []startgen.Block, blmin chem.Blmin, box startgen.Box, rng *rand.Rand) (StructureGenerator, error) {
	sg, err := startgen.New(slab, blocks, blmin, box, rng)
	if err != nil {
		return nil, err
	}
	return sg, nil
}

// OpenDB opens a gadb database as a CandidateStore.
func OpenDB(ctx context.Context, path string) (CandidateStore, error) {
	da, err := gadb.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return da, nil
}

// NewVaspCalculator returns a Calculator reading VASP run directories.
func NewVaspCalculator() Calculator {
	return qm.NewVaspHandle()
}

func logger(l Logger) Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
