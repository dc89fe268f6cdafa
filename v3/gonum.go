/*
 * gonum.go, part of adsga.
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

//gonum.go contains most of what is needed for handling the gonum/mat types and facilities.

//All the *Vec functions will operate/produce row vectors, as the underlying Dense is row-major.

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

// Matrix is a set of vectors in 3D space.
// Within the package it is understood that a "vector" is a row vector, i.e. the
// cartesian coordinates of a point in 3D space. The name of some funcitions in
// the library reflect this.
type Matrix struct {
	*mat.Dense
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("Input slice lenght %d not divisible by %d: %d", l, cols, l%cols), []string{"NewMatrix"}, true}
	}
	if rows == 0 {
		return &Matrix{&mat.Dense{}}, nil
	}
	r := mat.NewDense(rows, cols, data)
	return &Matrix{r}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
// gonum doesn't allow empty Dense matrices with dimensions, so for vecs==0 an
// empty Matrix is returned, with Dims() (0,0).
func Zeros(vecs int) *Matrix {
	const cols int = 3
	if vecs <= 0 {
		return &Matrix{&mat.Dense{}}
	}
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

// Mul wraps mat.Dense.Mul to take care of the case when one of the
// arguments is also the receiver. gonum would see F (a Matrix) and
// A (the embedded Dense) as different, so we copy first.
func (F *Matrix) Mul(A, B mat.Matrix) {
	if a, ok := A.(*Matrix); ok {
		A = a.Dense
	}
	if b, ok := B.(*Matrix); ok {
		B = b.Dense
	}
	if A == mat.Matrix(F.Dense) {
		A = mat.DenseCopyOf(A)
	}
	if B == mat.Matrix(F.Dense) {
		B = mat.DenseCopyOf(B)
	}
	F.Dense.Mul(A, B)
}

// Det returns the determinant of a 3x3 matrix. Panics if the matrix is not 3x3.
func (F *Matrix) Det() float64 {
	r, c := F.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	A := F.Dense
	return (A.At(0, 0)*(A.At(1, 1)*A.At(2, 2)-A.At(2, 1)*A.At(1, 2)) - A.At(1, 0)*(A.At(0, 1)*A.At(2, 2)-A.At(2, 1)*A.At(0, 2)) + A.At(2, 0)*(A.At(0, 1)*A.At(1, 2)-A.At(1, 1)*A.At(0, 2)))
}

// Inverse returns the inverse of a 3x3 matrix, or an error if
// the matrix is singular.
func (F *Matrix) Inverse() (*Matrix, error) {
	r, c := F.Dims()
	if r != 3 || c != 3 {
		return nil, Error{string(ErrDeterminant), []string{"Inverse"}, true}
	}
	inv := Zeros(3)
	if err := inv.Dense.Inverse(F.Dense); err != nil {
		return nil, Error{err.Error(), []string{"mat.Dense.Inverse", "Inverse"}, true}
	}
	return inv, nil
}

//Errors

// Error is the error type returned by functions in this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
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

// Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("adsga/v3: A VecMatrix should have 3 columns")
	ErrDeterminant  = PanicMsg("adsga/v3: Determinants are only available for 3x3 matrices")
	ErrShape        = PanicMsg("adsga/v3: Dimension mismatch")
)
