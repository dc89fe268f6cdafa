/*
 * doc.go, part of adsga.
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

/*Package chem is the base package of adsga. It provides atoms, topologies and periodic
structures with per-atom tags, reading and writing of extended XYZ and VASP POSCAR files,
and the geometric helpers used by the genetic algorithm: minimum-image distances, minimum
distance tables from covalent radii, random rotations and unwrapping of molecules split
by the cell boundaries.

	**adsga packages**

    v3: Nx3 coordinate matrices, on top of gonum's mat.

    startgen: random placement of rigid molecules in a box of a framework.

    mutate: mutation and pairing operators, and a weighted operator selector.

    gadb: the SQLite database of candidates for a run.

    qm: writes VASP inputs and reads back relaxed geometries and energies.

    ga: the steps of the search: starting population, collection of the relaxations
	and creation of children.

    chemplot: progress plots.

Tags identify molecules: the framework atoms have tag 0 and each adsorbate molecule its
own tag, larger than 0. The operators move whole tagged groups, never single atoms.*/
package chem
