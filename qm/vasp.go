/*
 * vasp.go, part of adsga.
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

package qm

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chem "github.com/rmera/adsga"
)

// VaspHandle writes inputs for, and reads results from, a VASP run directory.
// The atoms are grouped by element in the POSCAR, in order of first appearance,
// and the permutation is stored in ase-sort.dat (the same file ASE uses), so the
// results can be put back in the original order. The POTCAR is not written.
type VaspHandle struct {
	dir string
}

// NewVaspHandle returns a handle working on the current directory.
func NewVaspHandle() *VaspHandle {
	return &VaspHandle{dir: "."}
}

// SetDirectory sets the run directory.
func (O *VaspHandle) SetDirectory(dir string) {
	O.dir = dir
}

// Directory returns the run directory.
func (O *VaspHandle) Directory() string {
	return O.dir
}

func (O *VaspHandle) file(name string) string {
	return filepath.Join(O.dir, name)
}

// sortOrder returns the indexes of the atoms of S grouped by element, in order of
// first appearance (sort), and its inverse (resort): the position of each atom in the
// sorted list.
func sortOrder(S *chem.Structure) (sort, resort []int) {
	order := make([]string, 0, 4)
	bysym := make(map[string][]int)
	for i, at := range S.Atoms {
		if _, ok := bysym[at.Symbol]; !ok {
			order = append(order, at.Symbol)
		}
		bysym[at.Symbol] = append(bysym[at.Symbol], i)
	}
	sort = make([]int, 0, S.Len())
	for _, s := range order {
		sort = append(sort, bysym[s]...)
	}
	resort = make([]int, len(sort))
	for n, i := range sort {
		resort[i] = n
	}
	return sort, resort
}

// BuildInput writes POSCAR, INCAR, KPOINTS and ase-sort.dat for S in the run directory,
// creating it if needed. Atoms in Q.CConstraints are frozen with selective dynamics.
func (O *VaspHandle) BuildInput(S *chem.Structure, Q *Calc) error {
	if S == nil || Q == nil {
		return Error{ErrCantInput, VASP, O.dir, "nil structure or settings", []string{"BuildInput"}, true}
	}
	if err := S.Corrupted(); err != nil {
		return Error{ErrCantInput, VASP, O.dir, err.Error(), []string{"BuildInput"}, true}
	}
	if err := os.MkdirAll(O.dir, 0o755); err != nil {
		return Error{ErrCantInput, VASP, O.dir, err.Error(), []string{"os.MkdirAll", "BuildInput"}, true}
	}
	sort, resort := sortOrder(S)
	sorted := S.Copy()
	sorted.Coords.SomeVecs(S.Coords, sort)
	fixed := make([]int, 0, len(Q.CConstraints))
	for i, at := range S.Atoms {
		sorted.Atoms[resort[i]] = at.Copy()
		if isIn(Q.CConstraints, i) {
			fixed = append(fixed, resort[i])
		}
	}
	writers := []struct {
		name string
		f    func(*bufio.Writer) error
	}{
		{"POSCAR", func(w *bufio.Writer) error { return chem.PoscarWrite(w, sorted, fixed) }},
		{"ase-sort.dat", func(w *bufio.Writer) error {
			for n := range sort {
				fmt.Fprintf(w, "%5d %5d \n", sort[n], resort[n])
			}
			return nil
		}},
		{"INCAR", func(w *bufio.Writer) error { return writeIncar(w, Q) }},
		{"KPOINTS", func(w *bufio.Writer) error { return writeKpoints(w, Q) }},
	}
	for _, wr := range writers {
		if err := writeFile(O.file(wr.name), wr.f); err != nil {
			return Error{ErrCantInput, VASP, O.dir, err.Error(), []string{wr.name, "BuildInput"}, true}
		}
	}
	return nil
}

func isIn(container []int, test int) bool {
	for _, v := range container {
		if v == test {
			return true
		}
	}
	return false
}

func writeFile(name string, f func(*bufio.Writer) error) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	if err := f(w); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

var vaspGGA = map[string]string{
	"PBE":    "PE",
	"PBESOL": "PS",
	"RPBE":   "RP",
	"PW91":   "91",
	"REVPBE": "RE",
}

var vaspIVDW = map[string]int{
	"D2":   1,
	"D3":   11,
	"D3BJ": 12,
	"TS":   2,
}

func writeIncar(w *bufio.Writer, Q *Calc) error {
	fmt.Fprintf(w, "SYSTEM = adsga\n")
	method := strings.ToUpper(Q.Method)
	if method == "" {
		method = "PBE"
	}
	gga, ok := vaspGGA[method]
	if !ok {
		return fmt.Errorf("functional %s not supported", Q.Method)
	}
	fmt.Fprintf(w, "GGA = %s\n", gga)
	if Q.Disperssion != "" {
		ivdw, ok := vaspIVDW[strings.ToUpper(Q.Disperssion)]
		if !ok {
			return fmt.Errorf("dispersion correction %s not supported", Q.Disperssion)
		}
		fmt.Fprintf(w, "IVDW = %d\n", ivdw)
	}
	if Q.Encut > 0 {
		fmt.Fprintf(w, "ENCUT = %.1f\n", Q.Encut)
	}
	if Q.EDiff > 0 {
		fmt.Fprintf(w, "EDIFF = %.1e\n", Q.EDiff)
	}
	fmt.Fprintf(w, "PREC = Normal\nLREAL = Auto\nISMEAR = 0\n")
	if Q.Smearing > 0 {
		fmt.Fprintf(w, "SIGMA = %.3f\n", Q.Smearing)
	}
	if Q.Optimize {
		nsw := Q.NSW
		if nsw <= 0 {
			nsw = 300
		}
		fmt.Fprintf(w, "IBRION = 2\nISIF = 2\nNSW = %d\n", nsw)
		if Q.EDiffG != 0 {
			fmt.Fprintf(w, "EDIFFG = %.3f\n", Q.EDiffG)
		}
	} else {
		fmt.Fprintf(w, "IBRION = -1\nNSW = 0\n")
	}
	fmt.Fprintf(w, "LWAVE = .FALSE.\nLCHARG = .FALSE.\n")
	if Q.Others != "" {
		fmt.Fprintf(w, "%s\n", strings.TrimSpace(Q.Others))
	}
	return nil
}

func writeKpoints(w *bufio.Writer, Q *Calc) error {
	k := Q.KPoints
	for i, v := range k {
		if v <= 0 {
			k[i] = 1
		}
	}
	fmt.Fprintf(w, "KPOINTS created by adsga\n0\nGamma\n%d %d %d\n0 0 0\n", k[0], k[1], k[2])
	return nil
}

// Energy returns the energy(sigma->0) of the last ionic step in the OUTCAR of the run
// directory, in eV. If the energy is found but the run did not finish, the energy is
// returned with a non-critical Error.
func (O *VaspHandle) Energy() (float64, error) {
	const key = "energy(sigma->0) ="
	f, err := os.Open(O.file("OUTCAR"))
	if err != nil {
		return 0, Error{ErrNoEnergy, VASP, O.dir, err.Error(), []string{"os.Open", "Energy"}, true}
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	last := ""
	finished := false
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, key) {
			last = line
		}
		if strings.Contains(line, "General timing and accounting") {
			finished = true
		}
	}
	if err := sc.Err(); err != nil {
		return 0, Error{ErrNoEnergy, VASP, O.dir, err.Error(), []string{"bufio.Scanner", "Energy"}, true}
	}
	if last == "" {
		return 0, Error{ErrNoEnergy, VASP, O.dir, "", []string{"Energy"}, true}
	}
	fields := strings.Fields(last[strings.Index(last, key)+len(key):])
	if len(fields) == 0 {
		return 0, Error{ErrNoEnergy, VASP, O.dir, "ill formed energy line", []string{"Energy"}, true}
	}
	energy, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, Error{ErrNoEnergy, VASP, O.dir, err.Error(), []string{"strconv.ParseFloat", "Energy"}, true}
	}
	if !finished {
		return energy, Error{ErrProbableProblem, VASP, O.dir, "OUTCAR is incomplete", []string{"Energy"}, false}
	}
	return energy, nil
}

// readSort reads the resort list from ase-sort.dat. Returns nil if the file doesn't exist.
func (O *VaspHandle) readSort() ([]int, error) {
	f, err := os.Open(O.file("ase-sort.dat"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	resort := make([]int, 0, 64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("ase-sort.dat: ill formed line %q", sc.Text())
		}
		r, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("ase-sort.dat: %w", err)
		}
		resort = append(resort, r)
	}
	return resort, sc.Err()
}

// OptimizedGeometry reads the relaxed structure from the CONTCAR of the run directory,
// and puts the atoms back in the original order using ase-sort.dat, if present.
// If ref is not nil, the symbols of the result are checked against it, and its
// tags are copied to the result.
func (O *VaspHandle) OptimizedGeometry(ref *chem.Structure) (*chem.Structure, error) {
	S, err := chem.PoscarFileRead(O.file("CONTCAR"))
	if err != nil {
		return nil, Error{ErrNoGeometry, VASP, O.dir, err.Error(), []string{"chem.PoscarFileRead", "OptimizedGeometry"}, true}
	}
	resort, err := O.readSort()
	if err != nil {
		return nil, Error{ErrNoGeometry, VASP, O.dir, err.Error(), []string{"readSort", "OptimizedGeometry"}, true}
	}
	if resort != nil {
		if len(resort) != S.Len() {
			return nil, Error{ErrMismatch, VASP, O.dir, fmt.Sprintf("%d atoms in ase-sort.dat, %d in CONTCAR", len(resort), S.Len()), []string{"OptimizedGeometry"}, true}
		}
		orig := S.Copy()
		orig.Coords.SomeVecs(S.Coords, resort)
		for n, r := range resort {
			orig.Atoms[n] = S.Atoms[r].Copy()
			orig.Atoms[n].ID = n + 1
		}
		S = orig
	}
	if ref != nil {
		if ref.Len() != S.Len() {
			return nil, Error{ErrMismatch, VASP, O.dir, fmt.Sprintf("%d atoms in CONTCAR, %d in the reference", S.Len(), ref.Len()), []string{"OptimizedGeometry"}, true}
		}
		for i, at := range ref.Atoms {
			if S.Atoms[i].Symbol != at.Symbol {
				return nil, Error{ErrMismatch, VASP, O.dir, fmt.Sprintf("atom %d is %s, %s in the reference", i, S.Atoms[i].Symbol, at.Symbol), []string{"OptimizedGeometry"}, true}
			}
			S.Atoms[i].Tag = at.Tag
		}
		S.PBC = ref.PBC
	}
	return S, nil
}

var _ Handle = (*VaspHandle)(nil)
