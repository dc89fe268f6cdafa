/*
 * files.go, part of adsga.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/adsga/v3"
)

// XYZFileRead reads an (extended) xyz file and returns the structure in it.
// See XYZRead.
func XYZFileRead(xyzname string) (*Structure, error) {
	xyzfile, err := os.Open(xyzname)
	if err != nil {
		return nil, err
	}
	defer xyzfile.Close()
	S, err := XYZRead(xyzfile)
	if err != nil {
		return nil, fmt.Errorf("XYZFileRead %s: %w", xyzname, err)
	}
	return S, nil
}

// XYZRead reads the first frame of an xyz file from r. If the comment line contains
// a Lattice="..." key, as written by ASE and by XYZWrite, the structure will be periodic
// with that cell. If the Properties key lists tags, a fifth integer column is read as
// the atom tags.
func XYZRead(r io.Reader) (*Structure, error) {
	xyz := bufio.NewReader(r)
	line, err := xyz.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("Ill formatted XYZ file: %w", err)
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("Ill formatted XYZ file: %w", err)
	}
	comment, err := xyz.ReadString('\n')
	if err != nil && natoms > 0 {
		return nil, fmt.Errorf("Ill formatted XYZ file: %w", err)
	}
	cell, err := parseLattice(comment)
	if err != nil {
		return nil, err
	}
	cols, err := parseProperties(comment)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, natoms)
	tags := make([]int, natoms)
	coords := make([]float64, natoms*3)
	for i := 0; i < natoms; i++ {
		line, err = xyz.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("XYZ file ended at atom %d of %d", i, natoms)
		}
		fields := strings.Fields(line)
		if len(fields) < cols.width {
			return nil, fmt.Errorf("Line number %d ill formed", i+3)
		}
		symbols[i] = fields[cols.species]
		for j := 0; j < 3; j++ {
			coords[i*3+j], err = strconv.ParseFloat(fields[cols.pos+j], 64)
			if err != nil {
				return nil, fmt.Errorf("Line number %d: %w", i+3, err)
			}
		}
		if cols.tags >= 0 {
			tags[i], err = strconv.Atoi(fields[cols.tags])
			if err != nil {
				return nil, fmt.Errorf("Line number %d: %w", i+3, err)
			}
		}
	}
	top, err := NewTopology(symbols)
	if err != nil {
		return nil, err
	}
	top.SetTags(tags)
	mcoords, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, err
	}
	return NewStructure(top, mcoords, cell)
}

// xyzColumns are the columns of an extended XYZ file holding each property,
// -1 if absent, and the minimum number of columns of a line.
type xyzColumns struct {
	species, pos, tags int
	width              int
}

// parseProperties reads the Properties=name:type:count:... key of an extended
// XYZ comment line. Without the key, the columns are symbol x y z.
func parseProperties(comment string) (xyzColumns, error) {
	cols := xyzColumns{species: 0, pos: 1, tags: -1, width: 4}
	const key = "Properties="
	ini := strings.Index(comment, key)
	if ini < 0 {
		return cols, nil
	}
	spec := strings.Fields(comment[ini+len(key):])
	if len(spec) == 0 {
		return cols, fmt.Errorf("Empty Properties in XYZ comment line")
	}
	items := strings.Split(strings.Trim(spec[0], `"`), ":")
	if len(items)%3 != 0 {
		return cols, fmt.Errorf("Properties in XYZ comment line ill formed: %s", spec[0])
	}
	cols = xyzColumns{species: -1, pos: -1, tags: -1}
	col := 0
	for i := 0; i < len(items); i += 3 {
		n, err := strconv.Atoi(items[i+2])
		if err != nil {
			return cols, fmt.Errorf("Properties in XYZ comment line: %w", err)
		}
		switch strings.ToLower(items[i]) {
		case "species":
			cols.species = col
		case "pos":
			if n != 3 {
				return cols, fmt.Errorf("Properties in XYZ comment line: pos with %d columns", n)
			}
			cols.pos = col
		case "tags":
			cols.tags = col
		}
		col += n
	}
	cols.width = col
	if cols.species < 0 || cols.pos < 0 {
		return cols, fmt.Errorf("Properties in XYZ comment line lack species or pos")
	}
	return cols, nil
}

func parseLattice(comment string) (*v3.Matrix, error) {
	const key = `Lattice="`
	ini := strings.Index(comment, key)
	if ini < 0 {
		return nil, nil
	}
	rest := comment[ini+len(key):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return nil, fmt.Errorf("Unterminated Lattice in XYZ comment line")
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != 9 {
		return nil, fmt.Errorf("Lattice in XYZ comment line should have 9 numbers, has %d", len(fields))
	}
	data := make([]float64, 9)
	var err error
	for i, f := range fields {
		data[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("Lattice in XYZ comment line: %w", err)
		}
	}
	return v3.NewMatrix(data)
}

// XYZFileWrite writes S in an extended XYZ file with name xyzname which will
// be created for that. If the file exist it will be overwriten.
func XYZFileWrite(xyzname string, S *Structure) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return err
	}
	defer out.Close()
	return XYZWrite(out, S)
}

// XYZWrite writes S to out in extended XYZ format, with the cell (if any) and the tags.
func XYZWrite(out io.Writer, S *Structure) error {
	if err := S.Corrupted(); err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%-4d\n", S.Len())
	if S.Cell != nil {
		l := make([]string, 0, 9)
		for i := 0; i < 3; i++ {
			c := S.Cell.Vec(i)
			for _, v := range c {
				l = append(l, strconv.FormatFloat(v, 'f', 8, 64))
			}
		}
		fmt.Fprintf(w, "Lattice=\"%s\" ", strings.Join(l, " "))
	}
	fmt.Fprintf(w, "Properties=species:S:1:pos:R:3:tags:I:1\n")
	for i, at := range S.Atoms {
		c := S.Coords.Vec(i)
		fmt.Fprintf(w, "%-2s  %14.8f %14.8f %14.8f %4d\n", at.Symbol, c[0], c[1], c[2], at.Tag)
	}
	return w.Flush()
}

// PoscarFileRead reads a VASP POSCAR/CONTCAR file.
func PoscarFileRead(name string) (*Structure, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	S, err := PoscarRead(f)
	if err != nil {
		return nil, fmt.Errorf("PoscarFileRead %s: %w", name, err)
	}
	return S, nil
}

// elementName drops the POTCAR suffix and hash VASP 6 appends to the species
// names, as in C_s/7a1b2c.
func elementName(species string) string {
	if i := strings.IndexAny(species, "_/"); i > 0 {
		return species[:i]
	}
	return species
}

// PoscarRead reads a structure in VASP POSCAR/CONTCAR format. Both VASP 5 files (with a species line)
// and VASP 4 files (species taken from the comment line, as ASE writes them) are supported.
// Selective dynamics flags and velocities are ignored.
func PoscarRead(r io.Reader) (*Structure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	lines := make([]string, 0, 64)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 7 {
		return nil, fmt.Errorf("POSCAR too short: %d lines", len(lines))
	}
	scalefields := strings.Fields(lines[1])
	if len(scalefields) == 0 {
		return nil, fmt.Errorf("POSCAR: missing scale factor")
	}
	scale, err := strconv.ParseFloat(scalefields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("POSCAR scale factor: %w", err)
	}
	celldata := make([]float64, 0, 9)
	for i := 2; i < 5; i++ {
		fields := strings.Fields(lines[i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("POSCAR lattice vector %d ill formed", i-1)
		}
		for _, f := range fields[:3] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("POSCAR lattice vector %d: %w", i-1, err)
			}
			celldata = append(celldata, v)
		}
	}
	cell, err := v3.NewMatrix(celldata)
	if err != nil {
		return nil, err
	}
	if scale < 0 {
		//a negative scale is the volume of the cell
		scale = math.Cbrt(-scale / math.Abs(cell.Det()))
	}
	cell.Dense.Scale(scale, cell.Dense)
	next := 5
	species := strings.Fields(lines[next])
	if len(species) == 0 {
		return nil, fmt.Errorf("POSCAR: empty species line")
	}
	if _, err := strconv.Atoi(species[0]); err == nil {
		//VASP 4, symbols in the comment line
		species = strings.Fields(lines[0])
	} else {
		next++
	}
	for i, sp := range species {
		species[i] = elementName(sp)
	}
	countfields := strings.Fields(lines[next])
	next++
	if len(countfields) > len(species) {
		return nil, fmt.Errorf("POSCAR: %d species counts but only %d species names", len(countfields), len(species))
	}
	symbols := make([]string, 0, 32)
	for i, c := range countfields {
		n, err := strconv.Atoi(c)
		if err != nil {
			return nil, fmt.Errorf("POSCAR species counts: %w", err)
		}
		for j := 0; j < n; j++ {
			symbols = append(symbols, species[i])
		}
	}
	if next < len(lines) && strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[next])), "S") {
		next++ //Selective dynamics
	}
	if next >= len(lines) {
		return nil, fmt.Errorf("POSCAR: missing coordinates")
	}
	mode := strings.ToUpper(strings.TrimSpace(lines[next]))
	next++
	cartesian := strings.HasPrefix(mode, "C") || strings.HasPrefix(mode, "K")
	natoms := len(symbols)
	if len(lines) < next+natoms {
		return nil, fmt.Errorf("POSCAR: %d atoms declared but only %d coordinate lines", natoms, len(lines)-next)
	}
	coords := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		fields := strings.Fields(lines[next+i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("POSCAR: coordinates for atom %d ill formed", i+1)
		}
		var p [3]float64
		for j := 0; j < 3; j++ {
			p[j], err = strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("POSCAR: coordinates for atom %d: %w", i+1, err)
			}
		}
		if cartesian {
			p = v3.Scale(scale, p)
		}
		coords.SetVec(i, p)
	}
	if !cartesian && natoms > 0 {
		coords.Mul(coords, cell)
	}
	top, err := NewTopology(symbols)
	if err != nil {
		return nil, err
	}
	return NewStructure(top, coords, cell)
}

// PoscarWrite writes S to out in VASP 5 POSCAR format with cartesian coordinates.
// Consecutive atoms of the same element are grouped in one species entry, so the caller
// is expected to sort the atoms first if a compact species line is wanted. If fixed is not
// empty, selective dynamics is turned on and the atoms with those indexes are frozen.
func PoscarWrite(out io.Writer, S *Structure, fixed []int) error {
	if err := S.Corrupted(); err != nil {
		return err
	}
	if S.Cell == nil {
		return fmt.Errorf("PoscarWrite: the structure has no cell")
	}
	species := make([]string, 0, 4)
	counts := make([]int, 0, 4)
	for _, at := range S.Atoms {
		l := len(species)
		if l > 0 && species[l-1] == at.Symbol {
			counts[l-1]++
			continue
		}
		species = append(species, at.Symbol)
		counts = append(counts, 1)
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%s\n", strings.Join(species, " "))
	fmt.Fprintf(w, "%19.16f\n", 1.0)
	for i := 0; i < 3; i++ {
		c := S.Cell.Vec(i)
		fmt.Fprintf(w, " %21.16f %21.16f %21.16f\n", c[0], c[1], c[2])
	}
	fmt.Fprintf(w, " %s\n", strings.Join(species, " "))
	cs := make([]string, len(counts))
	for i, c := range counts {
		cs[i] = strconv.Itoa(c)
	}
	fmt.Fprintf(w, " %s\n", strings.Join(cs, " "))
	if len(fixed) > 0 {
		fmt.Fprintf(w, "Selective dynamics\n")
	}
	fmt.Fprintf(w, "Cartesian\n")
	for i := 0; i < S.Len(); i++ {
		c := S.Coords.Vec(i)
		fmt.Fprintf(w, " %19.16f %19.16f %19.16f", c[0], c[1], c[2])
		if len(fixed) > 0 {
			if isInInt(fixed, i) {
				fmt.Fprintf(w, "   F   F   F")
			} else {
				fmt.Fprintf(w, "   T   T   T")
			}
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}
