/*
 * geometric.go, part of adsga.
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
	"math"
	"math/rand"

	v3 "github.com/rmera/adsga/v3"
)

// MinImage computes distances between points in a periodic cell using the
// minimum image convention. For non-periodic structures it just returns plain
// cartesian distances.
type MinImage struct {
	cell *v3.Matrix
	inv  *v3.Matrix
	pbc  [3]bool
}

// NewMinImage returns a MinImage for the cell and periodicity of S.
// Returns error if the cell of S is singular.
func NewMinImage(S *Structure) (*MinImage, error) {
	M := new(MinImage)
	if !S.Periodic() {
		return M, nil
	}
	inv, err := S.Cell.Inverse()
	if err != nil {
		return nil, fmt.Errorf("NewMinImage: can't invert the cell: %w", err)
	}
	M.cell = S.Cell.Clone()
	M.inv = inv
	M.pbc = S.PBC
	return M, nil
}

// Vector returns the shortest periodic image of the displacement d.
func (M *MinImage) Vector(d [3]float64) [3]float64 {
	if M.cell == nil {
		return d
	}
	f := v3.Zeros(1)
	f.SetVec(0, d)
	f.Mul(f, M.inv) //fractional
	for j := 0; j < 3; j++ {
		if M.pbc[j] {
			f.Set(0, j, f.At(0, j)-math.Round(f.At(0, j)))
		}
	}
	f.Mul(f, M.cell)
	return f.Vec(0)
}

// Distance returns the minimum image distance between a and b.
func (M *MinImage) Distance(a, b [3]float64) float64 {
	return v3.Norm(M.Vector(v3.Sub(a, b)))
}

// CenterOfMass returns the center of mass of the atoms of S with
// the given indexes.
func CenterOfMass(S *Structure, indexes []int) ([3]float64, error) {
	var com [3]float64
	if len(indexes) == 0 {
		return com, fmt.Errorf("CenterOfMass: no atoms given")
	}
	masses, err := S.Masses()
	if err != nil {
		return com, fmt.Errorf("CenterOfMass: %w", err)
	}
	total := 0.0
	for _, i := range indexes {
		com = v3.Add(com, v3.Scale(masses[i], S.Coords.Vec(i)))
		total += masses[i]
	}
	return v3.Scale(1/total, com), nil
}

// RotationMatrix returns the matrix for a rotation of angle radians around axis
// (Rodrigues' formula). The axis doesn't need to be normalized.
func RotationMatrix(axis [3]float64, angle float64) *v3.Matrix {
	u := v3.Unit(axis)
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	x, y, z := u[0], u[1], u[2]
	R, _ := v3.NewMatrix([]float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
	return R
}

// RandomRotation returns a uniformly distributed random rotation matrix
// (Shoemake's method, from a random unit quaternion).
func RandomRotation(rng *rand.Rand) *v3.Matrix {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a := math.Sqrt(1 - u1)
	b := math.Sqrt(u1)
	w := a * math.Sin(2*math.Pi*u2)
	x := a * math.Cos(2*math.Pi*u2)
	y := b * math.Sin(2*math.Pi*u3)
	z := b * math.Cos(2*math.Pi*u3)
	R, _ := v3.NewMatrix([]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
	return R
}

// RandomUnitVector returns a random vector uniformly distributed on the unit sphere.
func RandomUnitVector(rng *rand.Rand) [3]float64 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return [3]float64{r * math.Cos(phi), r * math.Sin(phi), z}
}

// Rotate applies the rotation R around center to the vectors of coords with
// the given indexes, in place. The vectors are rows, so they are multiplied by
// the transpose of R.
func Rotate(coords *v3.Matrix, indexes []int, R *v3.Matrix, center [3]float64) {
	if len(indexes) == 0 {
		return
	}
	sub := v3.Zeros(len(indexes))
	sub.SomeVecs(coords, indexes)
	sub.SubVec(sub, center)
	sub.Mul(sub, R.T())
	sub.AddVec(sub, center)
	coords.SetVecs(sub, indexes)
}

// Translate adds t to the vectors of coords with the given indexes, in place.
func Translate(coords *v3.Matrix, indexes []int, t [3]float64) {
	for _, i := range indexes {
		coords.SetVec(i, v3.Add(coords.Vec(i), t))
	}
}

// Unwrap moves, in place, the atoms of S with the given indexes to the periodic images
// closest to the first of them, so a molecule split by the cell boundaries becomes whole.
// It does nothing for non-periodic structures.
func Unwrap(S *Structure, indexes []int) error {
	if len(indexes) < 2 || !S.Periodic() {
		return nil
	}
	M, err := NewMinImage(S)
	if err != nil {
		return err
	}
	ref := S.Coords.Vec(indexes[0])
	for _, i := range indexes[1:] {
		d := M.Vector(v3.Sub(S.Coords.Vec(i), ref))
		S.Coords.SetVec(i, v3.Add(ref, d))
	}
	return nil
}
