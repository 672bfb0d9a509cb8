// Copyright 2024 The bookq authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prices resolves commodity quotes into the ledger's base
// currency, following transitively quoted prices through intermediate
// currencies.
package prices

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

type memoKey struct {
	commodity *commodity.Commodity
	asOf      time.Time
}

type memoVal struct {
	factor decimal.Decimal
	ok     bool
}

// Resolver computes conversion factors from commodities into the base
// currency. Results are memoized per (commodity, asOf); the price set
// is immutable for the session, so entries are never invalidated.
type Resolver struct {
	reg      *registry.Registry
	base     *commodity.Commodity
	maxDepth int
	log      *slog.Logger

	mutex sync.Mutex
	memo  map[memoKey]memoVal
}

// New creates a resolver. maxDepth bounds the number of conversion
// hops a single quote may take through intermediate currencies.
func New(reg *registry.Registry, base *commodity.Commodity, maxDepth int, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		reg:      reg,
		base:     base,
		maxDepth: maxDepth,
		log:      log,
		memo:     make(map[memoKey]memoVal),
	}
}

// Base returns the ledger's base currency.
func (r *Resolver) Base() *commodity.Commodity {
	return r.base
}

// Latest returns the conversion factor from one unit of the commodity
// into the base currency, using the most recent quote dated at or
// before asOf. A zero asOf means no cutoff. Absence of a resolvable
// quote yields false, never an error.
func (r *Resolver) Latest(c *commodity.Commodity, asOf time.Time) (decimal.Decimal, bool) {
	if c == r.base {
		return one, true
	}
	key := memoKey{c, asOf}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if v, ok := r.memo[key]; ok {
		return v.factor, v.ok
	}
	factor, ok := r.latest(c, asOf, 0)
	r.memo[key] = memoVal{factor, ok}
	return factor, ok
}

// latest scans the commodity's quotes from newest to oldest, trying
// each until one fully resolves into the base currency.
func (r *Resolver) latest(c *commodity.Commodity, asOf time.Time, depth int) (decimal.Decimal, bool) {
	if c == r.base {
		return one, true
	}
	if depth >= r.maxDepth {
		r.log.Warn("conversion depth exceeded", "commodity", c, "depth", depth)
		return decimal.Zero, false
	}
	quotes := r.reg.PricesFor(c)
	for i := len(quotes) - 1; i >= 0; i-- {
		q := quotes[i]
		if !asOf.IsZero() && q.Date.After(asOf) {
			continue
		}
		if q.Currency == r.base {
			return q.Value, true
		}
		// The quote is expressed in another currency; resolve that
		// currency's own price against the base.
		factor, ok := r.latest(q.Currency, asOf, depth+1)
		if !ok {
			continue
		}
		return q.Value.Mul(factor).Truncate(8), true
	}
	r.log.Debug("no quote found", "commodity", c, "asOf", asOf)
	return decimal.Zero, false
}

// Convert converts an amount between two commodities via the base
// currency. If either leg has no known factor, the result is absent
// and a warning is logged; a wrong number is never returned.
func (r *Resolver) Convert(amount decimal.Decimal, from, to *commodity.Commodity, asOf time.Time) (decimal.Decimal, bool) {
	if from == to {
		return amount, true
	}
	fromBase, ok := r.Latest(from, asOf)
	if !ok {
		r.log.Warn("no conversion factor", "commodity", from, "target", r.base)
		return decimal.Zero, false
	}
	toBase, ok := r.Latest(to, asOf)
	if !ok || toBase.IsZero() {
		r.log.Warn("no conversion factor", "commodity", to, "target", r.base)
		return decimal.Zero, false
	}
	return amount.Mul(fromBase).DivRound(toBase, 8), true
}

// Table returns the conversion factor into the base currency for
// every commodity which has at least one quote, keyed by commodity.
// Unresolvable commodities are omitted.
func (r *Resolver) Table(asOf time.Time) map[*commodity.Commodity]decimal.Decimal {
	res := make(map[*commodity.Commodity]decimal.Decimal)
	for _, c := range r.reg.PricedCommodities() {
		if factor, ok := r.Latest(c, asOf); ok {
			res[c] = factor
		}
	}
	return res
}
