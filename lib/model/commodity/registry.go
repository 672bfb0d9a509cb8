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

package commodity

import (
	"fmt"
	"sync"

	"github.com/bookq-dev/bookq/lib/common/dict"
)

type key struct {
	namespace, mnemonic string
}

// Registry is a thread-safe interning collection of commodities.
type Registry struct {
	mutex sync.RWMutex
	index map[key]*Commodity
}

// NewRegistry creates a new thread-safe collection of commodities.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[key]*Commodity),
	}
}

// Get returns the commodity for the given namespace and mnemonic,
// interning a new instance on first use.
func (reg *Registry) Get(namespace, mnemonic string) (*Commodity, error) {
	if namespace == "" || mnemonic == "" {
		return nil, fmt.Errorf("invalid commodity %q:%q", namespace, mnemonic)
	}
	k := key{namespace, mnemonic}
	reg.mutex.RLock()
	res, ok := reg.index[k]
	reg.mutex.RUnlock()
	if ok {
		return res, nil
	}
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	// check if the commodity has been created in the meantime
	if c, ok := reg.index[k]; ok {
		return c, nil
	}
	res = &Commodity{namespace: namespace, mnemonic: mnemonic}
	reg.index[k] = res
	return res, nil
}

// MustGet returns the commodity or panics. For use in tests and static
// initialization only.
func (reg *Registry) MustGet(namespace, mnemonic string) *Commodity {
	c, err := reg.Get(namespace, mnemonic)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the commodity if it has been interned before.
func (reg *Registry) Lookup(namespace, mnemonic string) (*Commodity, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	c, ok := reg.index[key{namespace, mnemonic}]
	return c, ok
}

// All returns all interned commodities, sorted.
func (reg *Registry) All() []*Commodity {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return dict.SortedValues(reg.index, Compare)
}
