// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"fmt"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
)

// BlockContext block context.
type BlockContext struct {
	Number uint64
	Time   uint64
}

// Attribute is a key/value pair of an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is emitted by a contract during an operation.
type Event struct {
	Contract   common.Address `json:"contract"`
	Type       string         `json:"type"`
	Attributes []Attribute    `json:"attributes"`
}

func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// Add appends an attribute. Values are formatted with fmt.
func (e *Event) Add(key string, value any) *Event {
	e.Attributes = append(e.Attributes, Attribute{Key: key, Value: fmt.Sprint(value)})
	return e
}

// Attr returns the value of the first attribute named key.
func (e *Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Environment an env to execute a contract method.
type Environment struct {
	state       *state.State
	blockCtx    *BlockContext
	sender      common.Address
	contract    common.Address
	funds       assets.Coins
	events      *[]*Event
	registry    *Registry
	bank        *assets.Bank
	collections *assets.Collections
}

// New create a new env.
func New(
	state *state.State,
	blockCtx *BlockContext,
	sender common.Address,
	contract common.Address,
	funds assets.Coins,
) *Environment {
	return &Environment{
		state:       state,
		blockCtx:    blockCtx,
		sender:      sender,
		contract:    contract,
		funds:       funds,
		events:      new([]*Event),
		registry:    NewRegistry(state),
		bank:        assets.NewBank(state),
		collections: assets.NewCollections(state),
	}
}

func (env *Environment) State() *state.State              { return env.state }
func (env *Environment) BlockContext() *BlockContext      { return env.blockCtx }
func (env *Environment) Sender() common.Address           { return env.sender }
func (env *Environment) Contract() common.Address         { return env.contract }
func (env *Environment) Funds() assets.Coins              { return env.funds }
func (env *Environment) Events() []*Event                 { return *env.events }
func (env *Environment) Registry() *Registry              { return env.registry }
func (env *Environment) Bank() *assets.Bank               { return env.bank }
func (env *Environment) Collections() *assets.Collections { return env.collections }
func (env *Environment) Storage() *storage.Context        { return storage.NewContext(env.contract, env.state) }
func (env *Environment) Now() uint64                      { return env.blockCtx.Time }
func (env *Environment) Height() uint64                   { return env.blockCtx.Number }

// Emit records an event of the current contract.
func (env *Environment) Emit(ev *Event) {
	ev.Contract = env.contract
	*env.events = append(*env.events, ev)
}

// Sub returns the env of a call from the current contract into another one, moving funds along.
// Events of the sub call go to the same sink.
func (env *Environment) Sub(contract common.Address, funds assets.Coins) (*Environment, error) {
	if err := TransferFunds(env.bank, env.contract, contract, funds); err != nil {
		return nil, err
	}
	return &Environment{
		state:       env.state,
		blockCtx:    env.blockCtx,
		sender:      env.contract,
		contract:    contract,
		funds:       funds,
		events:      env.events,
		registry:    env.registry,
		bank:        env.bank,
		collections: env.collections,
	}, nil
}

// Instantiate registers a new instance of the code at the address derived from salt,
// and returns the env to run its instantiation in.
func (env *Environment) Instantiate(codeID uint64, kind CodeKind, label string, salt []byte, funds assets.Coins) (*Environment, error) {
	code, err := env.registry.Code(codeID)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, reverts.Validation("code %d not found", codeID)
	}
	if code.Kind != kind {
		return nil, reverts.Validation("code %d is %s, not %s", codeID, code.Kind, kind)
	}

	addr := common.DeriveAddress(env.contract, codeID, salt)
	if err := env.registry.register(addr, &Instance{
		CodeID:  codeID,
		Kind:    kind,
		Creator: env.contract,
		Label:   label,
	}); err != nil {
		return nil, err
	}
	return env.Sub(addr, funds)
}

// TransferFunds moves native coins between accounts.
func TransferFunds(bank *assets.Bank, from, to common.Address, funds assets.Coins) error {
	for _, coin := range funds {
		if err := bank.Transfer(from, to, assets.Native(coin.Denom), coin.Amount); err != nil {
			return err
		}
	}
	return nil
}
