/*
 * fitness.go, part of adsga.
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

//Package chemplot produces plots to follow a genetic algorithm run.
package chemplot

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/rmera/adsga/gadb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// origin groups the candidates by how they were produced: the operator for
// children, the origin label otherwise.
func origin(c *gadb.Candidate) string {
	f := strings.Fields(c.Description)
	switch {
	case len(f) > 0 && f[0] == "pairing:":
		return "pairing"
	case len(f) > 1 && f[0] == "mutation:":
		return "mutation: " + f[1]
	}
	if c.Origin != "" {
		return c.Origin
	}
	return "unknown"
}

// FitnessPlot saves to plotname (the extension sets the format) a plot of the raw score of
// each relaxed candidate versus its confid, with a color for each kind of origin, and a line
// with the best raw score found so far.
func FitnessPlot(cands []*gadb.Candidate, title, plotname string) error {
	relaxed := make([]*gadb.Candidate, 0, len(cands))
	for _, c := range cands {
		if c != nil && c.Relaxed {
			relaxed = append(relaxed, c)
		}
	}
	if len(relaxed) == 0 {
		return fmt.Errorf("FitnessPlot: no relaxed candidates to plot")
	}
	sort.Slice(relaxed, func(i, j int) bool { return relaxed[i].Confid < relaxed[j].Confid })
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Candidate"
	p.Y.Label.Text = "Raw score (-E, eV)"
	p.Add(plotter.NewGrid())
	groups := make(map[string]plotter.XYs)
	names := make([]string, 0, 4)
	best := make(plotter.XYs, len(relaxed))
	for i, c := range relaxed {
		o := origin(c)
		if _, ok := groups[o]; !ok {
			names = append(names, o)
		}
		groups[o] = append(groups[o], plotter.XY{X: float64(c.Confid), Y: c.RawScore})
		best[i].X = float64(c.Confid)
		best[i].Y = c.RawScore
		if i > 0 && best[i-1].Y > best[i].Y {
			best[i].Y = best[i-1].Y
		}
	}
	sort.Strings(names)
	for key, name := range names {
		s, err := plotter.NewScatter(groups[name])
		if err != nil {
			return fmt.Errorf("FitnessPlot: %w", err)
		}
		r, g, b := colors(key, len(names))
		s.GlyphStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(name, s)
	}
	l, err := plotter.NewLine(best)
	if err != nil {
		return fmt.Errorf("FitnessPlot: %w", err)
	}
	l.LineStyle.Width = vg.Points(1)
	l.LineStyle.Color = color.Gray{Y: 60}
	p.Add(l)
	p.Legend.Add("best so far", l)
	p.Legend.Top = false
	if err := p.Save(6*vg.Inch, 4*vg.Inch, plotname); err != nil {
		return fmt.Errorf("FitnessPlot: %w", err)
	}
	return nil
}
