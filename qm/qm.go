/*
 * qm.go, part of adsga.
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
	"fmt"
	"strings"

	chem "github.com/rmera/adsga"
)

// Handle sets up and reads QM calculations for a given program.
type Handle interface {

	//SetDirectory sets the directory where the inputs are written and
	//the outputs are read.
	SetDirectory(dir string)

	//BuildInput writes the inputs for a calculation on S with the settings in Q.
	BuildInput(S *chem.Structure, Q *Calc) error

	//Energy gets the last energy for a calculation by parsing the
	//QM program's output file. Return error if fail. Also returns
	//Error ("Probable problem in calculation")
	//if there is a energy but the calculation didnt end properly.
	Energy() (float64, error)

	//OptimizedGeometry reads the optimized geometry from a calculation
	//output. The atoms are returned in the same order as ref.
	OptimizedGeometry(ref *chem.Structure) (*chem.Structure, error)
}

// Calc contains the settings for a calculation, as independent as possible
// of the program used.
type Calc struct {
	Method       string //the exchange-correlation functional
	Disperssion  string //D2, D3, D3BJ, etc.
	Optimize     bool
	CConstraints []int //cartesian contraints, 0-based indexes of frozen atoms
	Encut        float64
	EDiff        float64
	EDiffG       float64
	NSW          int //maximum number of ionic steps
	KPoints      [3]int
	Smearing     float64
	Others       string //extra lines, verbatim, for the input.
}

// SetDefaults sets reasonable settings for relaxing adsorbates in frameworks
func (Q *Calc) SetDefaults() {
	Q.Method = "PBE"
	Q.Disperssion = "D3"
	Q.Optimize = true
	Q.Encut = 400
	Q.EDiff = 1e-5
	Q.EDiffG = -0.05
	Q.NSW = 300
	Q.KPoints = [3]int{1, 1, 1}
	Q.Smearing = 0.05
}

// Error is the error type for the qm package.
type Error struct {
	message    string
	code       string //the name of the QM program giving the problem, or empty string if none
	inputname  string //the input file or directory that has problems, or empty string if none.
	additional string
	deco       []string
	critical   bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	if err.additional == "" {
		return fmt.Sprintf("%s (%s/%s) Message: %s", strings.Join(err.deco, ": "), err.code, err.inputname, err.message)
	}
	return fmt.Sprintf("%s (%s/%s) Message: %s: %s", strings.Join(err.deco, ": "), err.code, err.inputname, err.message, err.additional)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored.
func (err Error) Critical() bool { return err.critical }

// Code returns the name of the program that ran/was meant to run the
// calculation that caused the error.
func (err Error) Code() string { return err.code }

// InputName returns the name of the input file or directory which processing caused the error.
func (err Error) InputName() string { return err.inputname }

// Errors messages.
const (
	ErrProbableProblem = "Probable problem in calculation"
	ErrNoEnergy        = "No energy found for the calculation"
	ErrNoGeometry      = "Unable to read the geometry from the output"
	ErrCantInput       = "Can't build the input for the calculation"
	ErrMismatch        = "The output doesn't match the reference structure"
)

// Program names
const (
	VASP = "VASP"
)
