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

// Package owner resolves the polymorphic owner of invoices and jobs
// to a concrete customer or vendor.
package owner

import (
	"fmt"
	"log/slog"

	"github.com/bookq-dev/bookq/lib/model/party"
	"github.com/bookq-dev/bookq/lib/model/registry"
)

// Ref is a resolved owner: exactly one of Customer and Vendor is set.
// The zero Ref means the reference could not be resolved; callers can
// tell this apart from a wrong-kind invocation, which is a KindError.
type Ref struct {
	Kind     party.Kind
	Customer *party.CustomerEntity
	Vendor   *party.VendorEntity
}

// Empty reports whether the resolution came up with nothing.
func (r Ref) Empty() bool {
	return r.Customer == nil && r.Vendor == nil
}

// ID returns the identity of the resolved party.
func (r Ref) ID() string {
	switch {
	case r.Customer != nil:
		return r.Customer.ID
	case r.Vendor != nil:
		return r.Vendor.ID
	}
	return ""
}

// Name returns the display name of the resolved party.
func (r Ref) Name() string {
	switch {
	case r.Customer != nil:
		return r.Customer.Name
	case r.Vendor != nil:
		return r.Vendor.Name
	}
	return ""
}

// KindError reports that a resolution mode was invoked on a reference
// of the wrong kind, e.g. asking for the direct owner of a job-owned
// invoice. It is distinct from an unresolvable reference.
type KindError struct {
	Op   string
	Got  party.Kind
	Want string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: owner is a %s, want %s", e.Op, e.Got, e.Want)
}

// Resolver resolves owner references against the registry.
type Resolver struct {
	reg *registry.Registry
	log *slog.Logger
}

// New creates a resolver.
func New(reg *registry.Registry, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{reg: reg, log: log}
}

// Direct resolves a reference that must point at a concrete customer
// or vendor. Invoking it on a job reference is a KindError; a
// dangling reference resolves to an empty Ref with a logged warning.
func (r *Resolver) Direct(ref party.Ref) (Ref, error) {
	switch ref.Kind {
	case party.Customer:
		c, ok := r.reg.Customer(ref.ID)
		if !ok {
			r.log.Warn("dangling customer reference", "id", ref.ID)
			return Ref{}, nil
		}
		return Ref{Kind: party.Customer, Customer: c}, nil
	case party.Vendor:
		v, ok := r.reg.Vendor(ref.ID)
		if !ok {
			r.log.Warn("dangling vendor reference", "id", ref.ID)
			return Ref{}, nil
		}
		return Ref{Kind: party.Vendor, Vendor: v}, nil
	}
	return Ref{}, &KindError{Op: "direct owner", Got: ref.Kind, Want: "customer or vendor"}
}

// ViaJob resolves a reference that must point at a job, then follows
// one more indirection through the job's own owner.
func (r *Resolver) ViaJob(ref party.Ref) (Ref, error) {
	if ref.Kind != party.Job {
		return Ref{}, &KindError{Op: "owner via job", Got: ref.Kind, Want: "job"}
	}
	j, ok := r.reg.Job(ref.ID)
	if !ok {
		r.log.Warn("dangling job reference", "id", ref.ID)
		return Ref{}, nil
	}
	return r.Direct(j.Owner)
}

// Effective resolves a reference of any kind to its ultimate customer
// or vendor, following a job indirection if present.
func (r *Resolver) Effective(ref party.Ref) (Ref, error) {
	if ref.Kind == party.Job {
		return r.ViaJob(ref)
	}
	return r.Direct(ref)
}
