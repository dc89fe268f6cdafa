/*
 * chem.go, part of adsga.
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

//Package chem provides atom and periodic structure types, facilities for reading and writing some
//files used in computational chemistry and the minimum-distance machinery used to
//build and check candidate structures in the genetic algorithm.
package chem

import (
	"fmt"
	"sort"
	"strings"

	v3 "github.com/rmera/adsga/v3"
)

// Atom contains the atoms read except for the coordinates, which will be in a matrix.
type Atom struct {
	Name   string
	ID     int
	Tag    int //Which molecule the atom belongs to. 0 is the framework.
	Mass   float64
	Symbol string
}

//Atom methods

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	Newat := new(Atom)
	*Newat = *A
	return Newat
}

/*****Topology type***/

// Topology contains information about a structure which is not expected to change in time (i.e. everything except for coordinates and the cell)
type Topology struct {
	Atoms []*Atom
}

// NewTopology makes a topology from the given symbols. Masses are
// assigned from the symbols, tags are all zero.
func NewTopology(symbols []string) (*Topology, error) {
	T := &Topology{Atoms: make([]*Atom, 0, len(symbols))}
	for i, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("NewTopology: empty symbol for atom %d", i)
		}
		T.Atoms = append(T.Atoms, &Atom{Name: s, ID: i + 1, Symbol: s, Mass: symbolMass[s]})
	}
	return T, nil
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	if T == nil {
		return 0
	}
	return len(T.Atoms)
}

// CopyAtoms returns a deep copy of the topology.
func (T *Topology) CopyAtoms() *Topology {
	Top := new(Topology)
	Top.Atoms = make([]*Atom, T.Len())
	for key, val := range T.Atoms {
		Top.Atoms[key] = val.Copy()
	}
	return Top
}

// Symbols returns the chemical symbols of all atoms, in order.
func (T *Topology) Symbols() []string {
	ret := make([]string, T.Len())
	for i, at := range T.Atoms {
		ret[i] = at.Symbol
	}
	return ret
}

// Tags returns the tags of all atoms, in order.
func (T *Topology) Tags() []int {
	ret := make([]int, T.Len())
	for i, at := range T.Atoms {
		ret[i] = at.Tag
	}
	return ret
}

// SetTags sets the tags of the atoms. tags must have one element per atom.
func (T *Topology) SetTags(tags []int) error {
	if len(tags) != T.Len() {
		return fmt.Errorf("SetTags: %d tags given for %d atoms", len(tags), T.Len())
	}
	for i, t := range tags {
		T.Atoms[i].Tag = t
	}
	return nil
}

// Masses returns a slice with the masses of each atom.
// An error is returned if some element has no known mass.
func (T *Topology) Masses() ([]float64, error) {
	ret := make([]float64, T.Len())
	for i, at := range T.Atoms {
		if at.Mass <= 0 {
			m, ok := Mass(at.Symbol)
			if !ok {
				return nil, fmt.Errorf("Masses: no mass known for atom %d (%s)", i, at.Symbol)
			}
			at.Mass = m
		}
		ret[i] = at.Mass
	}
	return ret, nil
}

// Formula returns the Hill-ordered formula of the topology, e.g. C2H6O.
func (T *Topology) Formula() string {
	counts := make(map[string]int)
	for _, at := range T.Atoms {
		counts[at.Symbol]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	_, hasC := counts["C"]
	sort.Slice(keys, func(i, j int) bool {
		if hasC {
			if keys[i] == "C" || keys[j] == "C" {
				return keys[i] == "C"
			}
			if keys[i] == "H" || keys[j] == "H" {
				return keys[i] == "H"
			}
		}
		return keys[i] < keys[j]
	})
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		if counts[k] > 1 {
			fmt.Fprintf(&b, "%d", counts[k])
		}
	}
	return b.String()
}

/*****Structure type***/

// Structure is a set of atoms with coordinates, optionally inside
// a periodic cell. Cell rows are the lattice vectors, in A.
type Structure struct {
	*Topology
	Coords *v3.Matrix
	Cell   *v3.Matrix //nil for a non-periodic structure
	PBC    [3]bool
}

// NewStructure returns a structure with the given topology, coordinates and cell.
// The cell can be nil. If a cell is given, the structure is periodic
// in all 3 directions.
func NewStructure(top *Topology, coords *v3.Matrix, cell *v3.Matrix) (*Structure, error) {
	if top == nil || coords == nil {
		return nil, fmt.Errorf("NewStructure: nil topology or coordinates")
	}
	if top.Len() != coords.NVecs() {
		return nil, fmt.Errorf("NewStructure: %d atoms but %d coordinates", top.Len(), coords.NVecs())
	}
	S := &Structure{Topology: top, Coords: coords}
	if cell != nil {
		if cell.NVecs() != 3 {
			return nil, fmt.Errorf("NewStructure: the cell must have 3 vectors, got %d", cell.NVecs())
		}
		S.Cell = cell
		S.PBC = [3]bool{true, true, true}
	}
	return S, nil
}

// Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	ret := &Structure{Topology: S.Topology.CopyAtoms(), Coords: S.Coords.Clone(), PBC: S.PBC}
	if S.Cell != nil {
		ret.Cell = S.Cell.Clone()
	}
	return ret
}

// Periodic returns true if the structure has a cell and is periodic in at least one direction.
func (S *Structure) Periodic() bool {
	return S.Cell != nil && (S.PBC[0] || S.PBC[1] || S.PBC[2])
}

// Append returns a new structure with the atoms of S followed by those of O.
// The cell and periodicity of S are kept.
func (S *Structure) Append(O *Structure) *Structure {
	ret := S.Copy()
	for _, at := range O.Atoms {
		ret.Atoms = append(ret.Atoms, at.Copy())
	}
	ret.Coords = v3.Stack(ret.Coords, O.Coords)
	for i, at := range ret.Atoms {
		at.ID = i + 1
	}
	return ret
}

// TagGroups returns the indexes of the atoms belonging to each tag, for
// all tags larger than 0, sorted by tag.
func (S *Structure) TagGroups() map[int][]int {
	ret := make(map[int][]int)
	for i, at := range S.Atoms {
		if at.Tag > 0 {
			ret[at.Tag] = append(ret[at.Tag], i)
		}
	}
	return ret
}

// SortedTags returns the tags larger than 0 present in S, in increasing order.
func (S *Structure) SortedTags() []int {
	groups := S.TagGroups()
	ret := make([]int, 0, len(groups))
	for t := range groups {
		ret = append(ret, t)
	}
	sort.Ints(ret)
	return ret
}

// MaxTag returns the largest tag in the structure.
func (S *Structure) MaxTag() int {
	m := 0
	for _, at := range S.Atoms {
		if at.Tag > m {
			m = at.Tag
		}
	}
	return m
}

// Corrupted returns an error if the structure is not consistent.
func (S *Structure) Corrupted() error {
	if S == nil || S.Topology == nil || S.Coords == nil {
		return fmt.Errorf("Corrupted: nil structure, topology or coordinates")
	}
	if S.Len() != S.Coords.NVecs() {
		return fmt.Errorf("Corrupted: %d atoms but %d coordinates", S.Len(), S.Coords.NVecs())
	}
	if S.Cell != nil && S.Cell.NVecs() != 3 {
		return fmt.Errorf("Corrupted: cell with %d vectors", S.Cell.NVecs())
	}
	return nil
}
