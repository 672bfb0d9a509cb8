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

package records

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags a record in the JSON-lines dump.
type Kind string

const (
	KindAccount     Kind = "account"
	KindCustomer    Kind = "customer"
	KindVendor      Kind = "vendor"
	KindJob         Kind = "job"
	KindTaxTable    Kind = "taxtable"
	KindInvoice     Kind = "invoice"
	KindLine        Kind = "line"
	KindTransaction Kind = "transaction"
	KindPrice       Kind = "price"
)

type envelope struct {
	Kind Kind `json:"kind"`
}

// Read reads a JSON-lines dump, one record per line, each carrying a
// "kind" tag next to its fields. Undecodable lines are collected in
// Set.Errs and skipped; only an I/O failure is returned as an error.
func Read(r io.Reader) (*Set, error) {
	res := &Set{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := res.decode([]byte(line)); err != nil {
			res.Errs = append(res.Errs, fmt.Errorf("line %d: %w", lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ReadFile reads a JSON-lines dump from the given path.
func ReadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func (s *Set) decode(line []byte) error {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return err
	}
	switch env.Kind {
	case KindAccount:
		return decodeInto(line, &s.Accounts)
	case KindCustomer:
		return decodeInto(line, &s.Customers)
	case KindVendor:
		return decodeInto(line, &s.Vendors)
	case KindJob:
		return decodeInto(line, &s.Jobs)
	case KindTaxTable:
		return decodeInto(line, &s.TaxTables)
	case KindInvoice:
		return decodeInto(line, &s.Invoices)
	case KindLine:
		return decodeInto(line, &s.Lines)
	case KindTransaction:
		return decodeInto(line, &s.Transactions)
	case KindPrice:
		return decodeInto(line, &s.Prices)
	}
	return fmt.Errorf("unknown record kind %q", env.Kind)
}

func decodeInto[T any](line []byte, dst *[]T) error {
	var rec T
	if err := json.Unmarshal(line, &rec); err != nil {
		return err
	}
	*dst = append(*dst, rec)
	return nil
}

// ParseNumeric parses a decimal record value. The source system
// stores numerics as fractions, so both "19.25" and "1925/100" are
// accepted.
func ParseNumeric(s string) (decimal.Decimal, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := decimal.NewFromString(num)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid numeric %q: %w", s, err)
		}
		d, err := decimal.NewFromString(den)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid numeric %q: %w", s, err)
		}
		if d.IsZero() {
			return decimal.Zero, fmt.Errorf("invalid numeric %q: zero denominator", s)
		}
		return n.DivRound(d, 8), nil
	}
	res, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric %q: %w", s, err)
	}
	return res, nil
}
