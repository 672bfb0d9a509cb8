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

// Package balance aggregates account balances from splits, optionally
// converted into a target currency.
package balance

import (
	"log/slog"
	"time"

	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/bookq-dev/bookq/lib/model/transaction"
	"github.com/bookq-dev/bookq/lib/prices"
	"github.com/shopspring/decimal"
)

// Aggregator computes account balances. Children are discovered
// through the registry's parent index on every call, so the
// aggregator itself holds no state beyond its collaborators.
type Aggregator struct {
	reg       *registry.Registry
	prices    *prices.Resolver
	tolerance decimal.Decimal
	log       *slog.Logger
}

// New creates an aggregator. tolerance is the residual below which a
// transaction counts as balanced.
func New(reg *registry.Registry, prc *prices.Resolver, tolerance decimal.Decimal, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{reg: reg, prices: prc, tolerance: tolerance, log: log}
}

// Own returns the sum of the account's own splits' quantities with
// posting date at or before asOf. A zero asOf sums all splits.
func (ag *Aggregator) Own(a *account.Account, asOf time.Time) decimal.Decimal {
	var sum decimal.Decimal
	for _, s := range ag.reg.Splits(a.ID) {
		if !asOf.IsZero() && s.Txn.DatePosted.After(asOf) {
			continue
		}
		sum = sum.Add(s.Quantity)
	}
	return sum
}

// Recursive returns the account's own balance plus the recursive
// balances of all child accounts.
func (ag *Aggregator) Recursive(a *account.Account, asOf time.Time) decimal.Decimal {
	sum := ag.Own(a, asOf)
	for _, child := range ag.reg.Children(a.ID) {
		sum = sum.Add(ag.Recursive(child, asOf))
	}
	return sum
}

// OwnIn returns the account's own balance converted into the target
// currency. If no conversion factor is known the result is absent and
// a warning is logged.
func (ag *Aggregator) OwnIn(a *account.Account, asOf time.Time, target *commodity.Commodity) (decimal.Decimal, bool) {
	res, ok := ag.prices.Convert(ag.Own(a, asOf), a.Commodity, target, asOf)
	if !ok {
		ag.log.Warn("balance not convertible", "account", a.Name, "commodity", a.Commodity, "target", target)
	}
	return res, ok
}

// RecursiveIn returns the recursive balance converted into the target
// currency. Each account in the subtree converts from its own
// commodity; if any conversion fails, the whole result is absent.
func (ag *Aggregator) RecursiveIn(a *account.Account, asOf time.Time, target *commodity.Commodity) (decimal.Decimal, bool) {
	sum, ok := ag.OwnIn(a, asOf, target)
	if !ok {
		return decimal.Zero, false
	}
	for _, child := range ag.reg.Children(a.ID) {
		sub, ok := ag.RecursiveIn(child, asOf, target)
		if !ok {
			return decimal.Zero, false
		}
		sum = sum.Add(sub)
	}
	return sum, true
}

// IsBalanced reports whether the transaction's split values sum to
// zero within the tolerance. Unbalanced transactions are permitted
// in the dataset and reported, never rejected.
func (ag *Aggregator) IsBalanced(t *transaction.Transaction) bool {
	return t.Residual().Abs().LessThanOrEqual(ag.tolerance)
}
