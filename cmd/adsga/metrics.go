/*
 * metrics.go, part of adsga.
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

package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// runMetrics are the counters of one invocation. They are written as a
// textfile for the node exporter, as each invocation is a short batch job.
type runMetrics struct {
	reg     *prometheus.Registry
	created *prometheus.CounterVec
	relaxed prometheus.Counter
	skipped prometheus.Counter
	best    prometheus.Gauge
}

func newRunMetrics() *runMetrics {
	m := &runMetrics{
		reg: prometheus.NewRegistry(),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adsga_candidates_created_total",
			Help: "Unrelaxed candidates added to the database.",
		}, []string{"origin"}),
		relaxed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsga_candidates_relaxed_total",
			Help: "Candidates updated with their relaxation results.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adsga_children_skipped_total",
			Help: "Attempts in which the operator gave no child.",
		}),
		best: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adsga_best_raw_score",
			Help: "Highest raw score among the relaxed candidates.",
		}),
	}
	m.reg.MustRegister(m.created, m.relaxed, m.skipped, m.best)
	return m
}

// write saves the metrics to file. It does nothing if file is empty.
func (m *runMetrics) write(file string) error {
	if file == "" {
		return nil
	}
	return prometheus.WriteToTextfile(file, m.reg)
}
