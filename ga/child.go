/*
 * child.go, part of adsga.
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
	"fmt"
)

// ChildGenerator makes N attempts at producing a new candidate from two parents
// taken from Pop, with an operator chosen by Operation. Every child produced is added
// to the database in DB as unrelaxed. Num only offsets the numbers in the progress messages.
type ChildGenerator struct {
	DB        string
	Pop       PairSource
	Operation OperatorSelector
	N         int
	Num       int
	Logger    Logger      //log.Default() if nil
	Open      StoreOpener //OpenDB if nil
}

// ConstructChild runs the N attempts and returns, for each child created, the
// description of the operation and the confids of the two parents. Both slices have
// the same length, at most N. An operator giving no child is logged and skipped;
// any other error stops the process.
func (C *ChildGenerator) ConstructChild(ctx context.Context) ([]string, [][2]int, error) {
	operation := make([]string, 0, C.N)
	marriage := make([][2]int, 0, C.N)
	if C.Pop == nil || C.Operation == nil {
		return operation, marriage, fmt.Errorf("ConstructChild: population and operation selector are required")
	}
	open := C.Open
	if open == nil {
		open = OpenDB
	}
	da, err := open(ctx, C.DB)
	if err != nil {
		return operation, marriage, fmt.Errorf("ConstructChild: %w", err)
	}
	defer da.Close()
	log := logger(C.Logger)
	for i := 1; i <= C.N; i++ {
		if err := ctx.Err(); err != nil {
			return operation, marriage, err
		}
		log.Printf("Now starting configuration number %d", i+C.Num)
		parents, err := C.Pop.TwoCandidates()
		if err != nil {
			return operation, marriage, fmt.Errorf("ConstructChild: %w", err)
		}
		if len(parents) < 2 {
			return operation, marriage, fmt.Errorf("ConstructChild: %d parents given, 2 needed", len(parents))
		}
		op := C.Operation.GetOperator()
		offspring, desc, err := op.NewIndividual(parents)
		if err != nil {
			return operation, marriage, fmt.Errorf("ConstructChild: configuration %d: %w", i+C.Num, err)
		}
		if offspring == nil {
			log.Printf("No child was created. Look into modifying operator or comparator")
			continue
		}
		if _, err := da.AddUnrelaxedCandidate(ctx, offspring, desc); err != nil {
			return operation, marriage, fmt.Errorf("ConstructChild: %w", err)
		}
		marriage = append(marriage, [2]int{parents[0].Confid, parents[1].Confid})
		operation = append(operation, desc)
	}
	return operation, marriage, nil
}
