// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
)

// CodeKind names the contract logic a code id runs.
type CodeKind string

const (
	CodeFactory CodeKind = "factory"
	CodeVault   CodeKind = "vault"
	CodeRewards CodeKind = "rewards"
)

func (k CodeKind) Valid() bool {
	switch k {
	case CodeFactory, CodeVault, CodeRewards:
		return true
	}
	return false
}

type Code struct {
	Kind CodeKind
}

// Instance is a contract created from a code.
type Instance struct {
	CodeID  uint64
	Kind    CodeKind
	Creator common.Address
	Label   string
}

var (
	// RegistryAddress owns the storage of codes and instances.
	RegistryAddress = common.BytesToAddress([]byte("registry"))

	slotCodes     = storage.NameToSlot("codes")
	slotInstances = storage.NameToSlot("instances")
)

// Registry keeps the code table and the contract instances.
type Registry struct {
	codes     *storage.Mapping[storage.Uint64Key, *Code]
	instances *storage.Mapping[common.Address, *Instance]
}

func NewRegistry(st *state.State) *Registry {
	sctx := storage.NewContext(RegistryAddress, st)
	return &Registry{
		codes:     storage.NewMapping[storage.Uint64Key, *Code](sctx, slotCodes),
		instances: storage.NewMapping[common.Address, *Instance](sctx, slotInstances),
	}
}

// StoreCode binds a code id to a contract kind.
func (r *Registry) StoreCode(id uint64, kind CodeKind) error {
	if !kind.Valid() {
		return reverts.Validation("invalid code kind %q", kind)
	}
	has, err := r.codes.Has(storage.Uint64Key(id))
	if err != nil {
		return err
	}
	if has {
		return reverts.Validation("code %d already stored", id)
	}
	return r.codes.Set(storage.Uint64Key(id), &Code{Kind: kind})
}

// Code returns the code, or nil if absent.
func (r *Registry) Code(id uint64) (*Code, error) {
	has, err := r.codes.Has(storage.Uint64Key(id))
	if err != nil || !has {
		return nil, err
	}
	return r.codes.Get(storage.Uint64Key(id))
}

// Instance returns the instance at addr, or nil if absent.
func (r *Registry) Instance(addr common.Address) (*Instance, error) {
	has, err := r.instances.Has(addr)
	if err != nil || !has {
		return nil, err
	}
	return r.instances.Get(addr)
}

// Require returns the instance at addr, failing unless it runs the expected kind.
func (r *Registry) Require(addr common.Address, kind CodeKind) (*Instance, error) {
	inst, err := r.Instance(addr)
	if err != nil {
		return nil, err
	}
	if inst == nil || inst.Kind != kind {
		return nil, reverts.NotFound("%s contract %s not found", kind, addr)
	}
	return inst, nil
}

func (r *Registry) register(addr common.Address, inst *Instance) error {
	has, err := r.instances.Has(addr)
	if err != nil {
		return err
	}
	if has {
		return reverts.Newf(reverts.KindInternal, "contract %s already exists", addr)
	}
	return r.instances.Set(addr, inst)
}

// RegisterGenesis registers an instance created outside of any contract.
func (r *Registry) RegisterGenesis(addr common.Address, inst *Instance) error {
	return r.register(addr, inst)
}
