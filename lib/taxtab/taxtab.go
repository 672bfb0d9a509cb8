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

// Package taxtab resolves tax table references on invoice lines to an
// effective percentage.
package taxtab

import (
	"log/slog"
	"sync"

	"github.com/bookq-dev/bookq/lib/model/invoice"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FallbackPolicy is applied when a taxable line's tax table cannot be
// resolved. The default mirrors the source dataset's origin; it is a
// pragmatic default, not a business rule, so results carry a flag
// whenever it was used.
type FallbackPolicy struct {
	Percent decimal.Decimal
}

// DefaultFallback returns the stock 19% fallback.
func DefaultFallback() FallbackPolicy {
	return FallbackPolicy{Percent: decimal.NewFromInt(19)}
}

// Resolution is the outcome of resolving a line's tax rate.
type Resolution struct {
	// Percent is the rate in percent units, e.g. 19 for 19%.
	Percent decimal.Decimal
	// Fallback reports that the policy rate was substituted because
	// the table reference did not resolve. A data-quality signal.
	Fallback bool
}

// Rate returns the rate as a fraction, e.g. 0.19.
func (r Resolution) Rate() decimal.Decimal {
	return r.Percent.Div(hundred)
}

// Resolver resolves tax table references. Resolutions per table are
// memoized; the underlying data cannot change within a session.
type Resolver struct {
	reg      *registry.Registry
	fallback FallbackPolicy
	log      *slog.Logger

	mutex sync.Mutex
	memo  map[string]Resolution
}

// New creates a resolver with the given fallback policy.
func New(reg *registry.Registry, fallback FallbackPolicy, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		reg:      reg,
		fallback: fallback,
		log:      log,
		memo:     make(map[string]Resolution),
	}
}

// EffectivePercent returns the effective tax rate for a line. Lines
// which are not taxable have a zero rate. A dangling table reference
// or a table whose first entry is not a percentage degrades to the
// fallback policy, logged and flagged, never a failure.
func (r *Resolver) EffectivePercent(line *invoice.Line) Resolution {
	if !line.Taxable {
		return Resolution{}
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if res, ok := r.memo[line.TaxTableID]; ok {
		return res
	}
	res := r.resolve(line)
	r.memo[line.TaxTableID] = res
	return res
}

func (r *Resolver) resolve(line *invoice.Line) Resolution {
	tab, ok := r.reg.TaxTable(line.TaxTableID)
	if !ok {
		r.log.Warn("unresolvable tax table, applying fallback",
			"table", line.TaxTableID, "percent", r.fallback.Percent)
		return Resolution{Percent: r.fallback.Percent, Fallback: true}
	}
	percent, ok := tab.FirstPercent()
	if !ok {
		r.log.Warn("tax table has no percentage entry, applying fallback",
			"table", tab.ID, "name", tab.Name, "percent", r.fallback.Percent)
		return Resolution{Percent: r.fallback.Percent, Fallback: true}
	}
	return Resolution{Percent: percent}
}
