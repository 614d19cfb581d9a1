// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package factory implements the contract creating vaults at deterministic addresses.
package factory

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/storage"
	"github.com/vechain/stakevault/vault"
	"github.com/vechain/stakevault/xenv"
)

var (
	slotConfig     = storage.NameToSlot("config")
	slotVaults     = storage.NameToSlot("vaults")
	slotVaultCount = storage.NameToSlot("vault-count")
)

type Config struct {
	Admin       common.Address `json:"admin"`
	VaultCodeID uint64         `json:"vaultCodeId"`
}

type InstantiateMsg struct {
	Admin       *common.Address `json:"admin,omitempty" yaml:"admin"`
	VaultCodeID uint64          `json:"vaultCodeId" yaml:"vaultCodeId"`
}

type UpdateConfigMsg struct {
	Admin       *common.Address `json:"admin,omitempty"`
	VaultCodeID *uint64         `json:"vaultCodeId,omitempty"`
}

type CreateVaultMsg struct {
	Label string `json:"label,omitempty"`
	vault.InstantiateMsg
}

// ExecuteMsg carries exactly one command.
type ExecuteMsg struct {
	CreateVault  *CreateVaultMsg  `json:"createVault,omitempty"`
	UpdateConfig *UpdateConfigMsg `json:"updateConfig,omitempty"`
}

// Entry is a vault in the order of creation.
type Entry struct {
	Index   uint64         `json:"index"`
	Address common.Address `json:"address"`
}

type Factory struct {
	env    *xenv.Environment
	config *storage.Value[*Config]
	vaults *storage.Mapping[storage.Uint64Key, common.Address]
	count  *storage.Value[uint64]
}

func New(env *xenv.Environment) *Factory {
	sctx := env.Storage()
	return &Factory{
		env:    env,
		config: storage.NewValue[*Config](sctx, slotConfig),
		vaults: storage.NewMapping[storage.Uint64Key, common.Address](sctx, slotVaults),
		count:  storage.NewValue[uint64](sctx, slotVaultCount),
	}
}

func (f *Factory) Config() (*Config, error) {
	cfg, found, err := f.config.Get()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("factory %s not found", f.env.Contract())
	}
	return cfg, nil
}

func (f *Factory) requireVaultCode(codeID uint64) error {
	code, err := f.env.Registry().Code(codeID)
	if err != nil {
		return err
	}
	if code == nil || code.Kind != xenv.CodeVault {
		return reverts.Validation("code %d is not a vault code", codeID)
	}
	return nil
}

func (f *Factory) Instantiate(msg *InstantiateMsg) error {
	cfg := &Config{Admin: f.env.Sender(), VaultCodeID: msg.VaultCodeID}
	if msg.Admin != nil {
		cfg.Admin = *msg.Admin
	}
	if cfg.Admin.IsZero() {
		return reverts.Validation("zero admin")
	}
	if err := f.requireVaultCode(cfg.VaultCodeID); err != nil {
		return err
	}
	return f.config.Set(cfg)
}

func (f *Factory) Execute(msg *ExecuteMsg) error {
	switch {
	case msg.CreateVault != nil && msg.UpdateConfig == nil:
		_, err := f.CreateVault(msg.CreateVault)
		return err
	case msg.UpdateConfig != nil && msg.CreateVault == nil:
		return f.UpdateConfig(msg.UpdateConfig)
	default:
		return reverts.Validation("exactly one factory command is required")
	}
}

// CreateVault instantiates a vault at the address derived from the factory and the vault index.
// Anyone may create a vault; the sender is its admin unless the message names one.
func (f *Factory) CreateVault(msg *CreateVaultMsg) (common.Address, error) {
	if err := assets.Nonpayable(f.env.Funds()); err != nil {
		return common.Address{}, err
	}
	cfg, err := f.Config()
	if err != nil {
		return common.Address{}, err
	}
	index, _, err := f.count.Get()
	if err != nil {
		return common.Address{}, err
	}

	label := msg.Label
	if label == "" {
		label = fmt.Sprintf("vault %d", index)
	}
	sub, err := f.env.Instantiate(cfg.VaultCodeID, xenv.CodeVault, label, common.IndexSalt(f.env.Contract(), index), nil)
	if err != nil {
		return common.Address{}, err
	}

	inst := msg.InstantiateMsg
	if inst.Admin == nil {
		sender := f.env.Sender()
		inst.Admin = &sender
	}
	if err := vault.New(sub).Instantiate(&inst); err != nil {
		return common.Address{}, err
	}

	if err := f.vaults.Set(storage.Uint64Key(index), sub.Contract()); err != nil {
		return common.Address{}, err
	}
	if err := f.count.Set(index + 1); err != nil {
		return common.Address{}, err
	}
	f.env.Emit(xenv.NewEvent("create-vault").
		Add("address", sub.Contract()).
		Add("index", index).
		Add("creator", f.env.Sender()).
		Add("label", label))
	return sub.Contract(), nil
}

func (f *Factory) UpdateConfig(msg *UpdateConfigMsg) error {
	if err := assets.Nonpayable(f.env.Funds()); err != nil {
		return err
	}
	cfg, err := f.Config()
	if err != nil {
		return err
	}
	if f.env.Sender() != cfg.Admin {
		return reverts.Unauthorized("%s is not the admin", f.env.Sender())
	}
	if msg.VaultCodeID != nil {
		if err := f.requireVaultCode(*msg.VaultCodeID); err != nil {
			return err
		}
		cfg.VaultCodeID = *msg.VaultCodeID
	}
	if msg.Admin != nil {
		if msg.Admin.IsZero() {
			return reverts.Validation("zero admin")
		}
		cfg.Admin = *msg.Admin
	}
	return f.config.Set(cfg)
}

// Vaults pages the created vaults by index.
func (f *Factory) Vaults(q vault.PageQuery) ([]Entry, error) {
	page, err := vault.ParsePage(q, func(s string) ([]byte, error) {
		index, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return storage.Uint64Key(index).Bytes(), nil
	})
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	err = f.vaults.Iterate(nil, page, func(key []byte, addr common.Address) error {
		entries = append(entries, Entry{Index: binary.BigEndian.Uint64(key), Address: addr})
		return nil
	})
	return entries, err
}
