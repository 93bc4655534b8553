// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package metrics is an optional Prometheus-backed observability sink for
// treebitset.Bitset, attached via treebitset.WithMetrics. It never sits
// on the hot path unless explicitly wired in.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector records free/used transitions and Obtain outcomes for a
// single Bitset as Prometheus metrics. It implements the unexported
// metricsSink interface treebitset.WithMetrics expects.
type Collector struct {
	freedTotal     prometheus.Counter
	usedTotal      prometheus.Counter
	obtainedTotal  prometheus.Counter
	exhaustedTotal prometheus.Counter
}

// NewCollector builds a Collector whose metrics share the given constant
// labels (e.g. {"domain": "tx_num"}), and registers them with reg.
func NewCollector(reg prometheus.Registerer, namespace, subsystem string, constLabels prometheus.Labels) (*Collector, error) {
	c := &Collector{
		freedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "ids_freed_total",
			Help:        "Number of ids transitioned to free.",
			ConstLabels: constLabels,
		}),
		usedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "ids_used_total",
			Help:        "Number of ids transitioned to used.",
			ConstLabels: constLabels,
		}),
		obtainedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "obtain_total",
			Help:        "Number of successful Obtain calls.",
			ConstLabels: constLabels,
		}),
		exhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "obtain_exhausted_total",
			Help:        "Number of Obtain calls that found no free id.",
			ConstLabels: constLabels,
		}),
	}
	for _, m := range []prometheus.Collector{c.freedTotal, c.usedTotal, c.obtainedTotal, c.exhaustedTotal} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordTransition implements treebitset's metricsSink.
func (c *Collector) RecordTransition(nowFree bool) {
	if nowFree {
		c.freedTotal.Inc()
	} else {
		c.usedTotal.Inc()
	}
}

// RecordObtain implements treebitset's metricsSink.
func (c *Collector) RecordObtain(ok bool) {
	if ok {
		c.obtainedTotal.Inc()
	} else {
		c.exhaustedTotal.Inc()
	}
}
