// Package party contains the entities an invoice or job can be owed
// by: customers, vendors and jobs.
package party

import (
	"fmt"

	"github.com/bookq-dev/bookq/lib/common/compare"
)

// Kind discriminates the closed set of owner kinds.
type Kind int

const (
	Customer Kind = iota
	Vendor
	Job
)

var kindNames = map[Kind]string{
	Customer: "customer",
	Vendor:   "vendor",
	Job:      "job",
}

func (k Kind) String() string {
	return kindNames[k]
}

// ParseKind parses an owner kind as it appears in decoded records.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid owner kind %q", s)
}

// Ref is a tagged reference to an owner. The zero Ref is empty.
type Ref struct {
	Kind Kind
	ID   string
}

// Empty reports whether the reference is unset.
func (r Ref) Empty() bool {
	return r.ID == ""
}

func (r Ref) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.ID)
}

// CustomerEntity is a customer master record.
type CustomerEntity struct {
	ID     string
	Name   string
	Number string
	Active bool
}

func (c *CustomerEntity) String() string {
	return c.Name
}

// VendorEntity is a vendor master record.
type VendorEntity struct {
	ID     string
	Name   string
	Number string
	Active bool
}

func (v *VendorEntity) String() string {
	return v.Name
}

// JobEntity is a job. Its owner is always a concrete customer or
// vendor, checked at load time; jobs are never owned by other jobs.
type JobEntity struct {
	ID     string
	Name   string
	Number string
	Active bool
	Owner  Ref
}

func (j *JobEntity) String() string {
	return j.Name
}

func CompareCustomers(c1, c2 *CustomerEntity) compare.Order {
	if o := compare.Ordered(c1.Name, c2.Name); o != compare.Equal {
		return o
	}
	return compare.Ordered(c1.ID, c2.ID)
}

func CompareVendors(v1, v2 *VendorEntity) compare.Order {
	if o := compare.Ordered(v1.Name, v2.Name); o != compare.Equal {
		return o
	}
	return compare.Ordered(v1.ID, v2.ID)
}

func CompareJobs(j1, j2 *JobEntity) compare.Order {
	if o := compare.Ordered(j1.Name, j2.Name); o != compare.Equal {
		return o
	}
	return compare.Ordered(j1.ID, j2.ID)
}
