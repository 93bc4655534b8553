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

package treebitset

// MaxIDPolicy picks how max-used-id tracking behaves across mutations.
type MaxIDPolicy uint8

const (
	// KeepMaxIDCurrent maintains max_used_id incrementally on every
	// SetFree/Obtain, at the cost of an occasional downward rescan in
	// SetFree(id, true) when the previous maximum is freed. This is the
	// default and the policy spec.md's examples assume.
	KeepMaxIDCurrent MaxIDPolicy = iota
	// OnDemandMaxID never maintains the cache during mutation; MaxUsedID
	// recomputes it from scratch on every call. spec.md §9 leaves this
	// policy's exact semantics unexercised by tests; we take the "safe
	// reading" it suggests: compute on demand, never maintain during
	// mutation.
	OnDemandMaxID
)

// FreeBitPolicy picks which bit value represents "free".
type FreeBitPolicy uint8

const (
	// FreeBitOne is the default: a set bit (1) means free, so construction
	// must fill storage with all-ones.
	FreeBitOne FreeBitPolicy = iota
	// FreeBitZero inverts the convention: a clear bit (0) means free, so
	// construction can skip the initial fill (storage starts zeroed),
	// trading a cheaper New() for one extra bitwise NOT per leaf read.
	FreeBitZero
)

type config struct {
	maxIDPolicy   MaxIDPolicy
	freeBitPolicy FreeBitPolicy
	memoryGuard   bool
	metrics       metricsSink
}

func defaultConfig() config {
	return config{
		maxIDPolicy:   KeepMaxIDCurrent,
		freeBitPolicy: FreeBitOne,
		memoryGuard:   true,
	}
}

// Option configures a Bitset at construction time, replacing the C++
// reference's ConfigBuilder<MaxIDPolicy, FreeBitPolicy> metaprogramming
// with plain functional options (spec.md §9).
type Option func(*config)

// WithMaxIDPolicy selects how max-used-id tracking behaves.
func WithMaxIDPolicy(p MaxIDPolicy) Option {
	return func(c *config) { c.maxIDPolicy = p }
}

// WithFreeBitPolicy selects which bit value represents "free".
func WithFreeBitPolicy(p FreeBitPolicy) Option {
	return func(c *config) { c.freeBitPolicy = p }
}

// WithMemoryGuard toggles the pre-construction system-memory sanity check
// (on by default). Disable it in environments where reading total system
// memory isn't meaningful (containers with misreported limits, tests).
func WithMemoryGuard(enabled bool) Option {
	return func(c *config) { c.memoryGuard = enabled }
}

// metricsSink is the minimal surface Bitset needs from an optional metrics
// collector; kept here (rather than importing the metrics package) so the
// core package never depends on Prometheus types.
type metricsSink interface {
	// RecordTransition is called once per id written by SetFree or
	// SetFreeForRange, with the id's new free/used state.
	RecordTransition(nowFree bool)
	// RecordObtain is called after every Obtain; ok is false on exhaustion.
	RecordObtain(ok bool)
}

// WithMetrics attaches an optional observability sink (see package
// treebitset/metrics) that records free-id counts and obtain/exhaustion
// events. Never required; the hot path is unaffected when omitted.
func WithMetrics(m metricsSink) Option {
	return func(c *config) { c.metrics = m }
}
