/*
 * updater.go, part of adsga.
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

	"github.com/rmera/adsga/gadb"
)

// Updater drains the queue of unrelaxed candidates of the database in DB, reading
// for each one the relaxed geometry and energy from its run directory,
// fmt.Sprintf(DirTemplate, confid), and storing them with raw score -energy.
type Updater struct {
	DB            string
	DirTemplate   string            //DefaultDirTemplate if empty
	NewCalculator func() Calculator //NewVaspCalculator if nil
	Logger        Logger            //log.Default() if nil
	Open          StoreOpener       //OpenDB if nil

	last int
}

// NewUpdater returns an Updater for the database in path, with the defaults.
func NewUpdater(path string) *Updater {
	return &Updater{DB: path}
}

// Update processes all the unrelaxed candidates and returns the confid of the last
// one processed. If there were none, it returns the same value as the previous call,
// or 0 if nothing was ever processed. A missing or unreadable result stops the
// process and is returned. Candidates processed before the error stay updated.
func (U *Updater) Update(ctx context.Context) (int, error) {
	_, err := U.UpdateAll(ctx)
	return U.last, err
}

// UpdateAll is like Update but returns the confids of all candidates processed in
// this call.
func (U *Updater) UpdateAll(ctx context.Context) ([]int, error) {
	open := U.Open
	if open == nil {
		open = OpenDB
	}
	da, err := open(ctx, U.DB)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	defer da.Close()
	done := make([]int, 0, 8)
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		n, err := da.NumberOfUnrelaxedCandidates(ctx)
		if err != nil {
			return done, fmt.Errorf("Update: %w", err)
		}
		if n <= 0 {
			return done, nil
		}
		a, err := da.AnUnrelaxedCandidate(ctx)
		if err != nil {
			return done, fmt.Errorf("Update: %w", err)
		}
		if err := U.updateOne(ctx, da, a); err != nil {
			return done, err
		}
		U.last = a.Confid
		done = append(done, a.Confid)
	}
}

func (U *Updater) updateOne(ctx context.Context, da CandidateStore, a *gadb.Candidate) error {
	tg := a.Structure.Tags()
	num := a.Confid
	logger(U.Logger).Printf("Updating candidate %d", num)
	tmpl := U.DirTemplate
	if tmpl == "" {
		tmpl = DefaultDirTemplate
	}
	dir := fmt.Sprintf(tmpl, num)
	newcalc := U.NewCalculator
	if newcalc == nil {
		newcalc = NewVaspCalculator
	}
	calc := newcalc()
	calc.SetDirectory(dir)
	energy, err := calc.Energy()
	if err != nil {
		return fmt.Errorf("Update: candidate %d in %s: %w", num, dir, err)
	}
	S, err := calc.OptimizedGeometry(a.Structure)
	if err != nil {
		return fmt.Errorf("Update: candidate %d in %s: %w", num, dir, err)
	}
	if err := S.SetTags(tg); err != nil {
		return fmt.Errorf("Update: candidate %d in %s: %w", num, dir, err)
	}
	relaxed := &gadb.Candidate{
		Structure: S,
		Origin:    OriginRelaxed,
		RawScore:  -1 * energy,
		Relaxed:   true,
	}
	if err := da.Update(ctx, num, relaxed); err != nil {
		return fmt.Errorf("Update: candidate %d: %w", num, err)
	}
	return nil
}
