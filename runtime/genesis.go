// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"fmt"
	"math/big"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/factory"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/xenv"
)

// FactoryAddress is where the genesis factory lives.
var FactoryAddress = common.BytesToAddress([]byte("factory"))

// Genesis describes the initial state.
type Genesis struct {
	Time     uint64                 `yaml:"time"`
	Codes    []GenesisCode          `yaml:"codes"`
	Balances []GenesisCoins         `yaml:"balances"`
	Items    []GenesisItem          `yaml:"items"`
	Factory  factory.InstantiateMsg `yaml:"factory"`
}

type GenesisCode struct {
	ID   uint64        `yaml:"id"`
	Kind xenv.CodeKind `yaml:"kind"`
}

type GenesisCoins struct {
	Account common.Address        `yaml:"account"`
	Asset   assets.Asset          `yaml:"asset"`
	Amount  *math.HexOrDecimal256 `yaml:"amount"`
}

type GenesisItem struct {
	Collection common.Address `yaml:"collection"`
	ID         string         `yaml:"id"`
	Owner      common.Address `yaml:"owner"`
}

func (g *Genesis) factoryCode() (uint64, bool) {
	for _, code := range g.Codes {
		if code.Kind == xenv.CodeFactory {
			return code.ID, true
		}
	}
	return 0, false
}

// LoadGenesis parses a yaml genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	var gen Genesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "parse genesis")
	}
	return &gen, nil
}

// Genesis commits the initial state. It fails if the store is already initialized.
func (rt *Runtime) Genesis(gen *Genesis) (*Head, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	st := state.New(rt.store, rt.cache)
	if _, found, err := loadHead(st); err != nil {
		return nil, err
	} else if found {
		return nil, errors.New("genesis already initialized")
	}
	logger.Trace("genesis", "content", spew.Sdump(gen))

	env := xenv.New(st, &xenv.BlockContext{Time: gen.Time}, common.Address{}, FactoryAddress, nil)
	if err := buildGenesis(env, gen); err != nil {
		return nil, errors.WithMessage(err, "build genesis")
	}

	head := &Head{Number: 0, Time: gen.Time}
	if err := headValue(st).Set(head); err != nil {
		return nil, err
	}
	if _, err := st.Commit(rt.store.Bulk()); err != nil {
		return nil, errors.Wrap(err, "commit genesis")
	}
	rt.indexEvents(&Receipt{Height: head.Number, Time: head.Time, Events: env.Events()})
	metricHeight().Set(0)
	logger.Info("genesis initialized", "factory", FactoryAddress, "codes", len(gen.Codes))
	return head, nil
}

func buildGenesis(env *xenv.Environment, gen *Genesis) error {
	for _, code := range gen.Codes {
		if err := env.Registry().StoreCode(code.ID, code.Kind); err != nil {
			return err
		}
	}
	for _, b := range gen.Balances {
		if b.Amount == nil {
			return fmt.Errorf("balance of %s without amount", b.Account)
		}
		if err := b.Asset.Validate(); err != nil {
			return err
		}
		if err := env.Bank().Mint(b.Account, b.Asset, (*big.Int)(b.Amount)); err != nil {
			return err
		}
	}
	for _, item := range gen.Items {
		if err := env.Collections().Mint(item.Collection, item.ID, item.Owner); err != nil {
			return err
		}
	}

	factoryCode, ok := gen.factoryCode()
	if !ok {
		return errors.New("no factory code")
	}
	if err := env.Registry().RegisterGenesis(FactoryAddress, &xenv.Instance{
		CodeID: factoryCode,
		Kind:   xenv.CodeFactory,
		Label:  "factory",
	}); err != nil {
		return err
	}
	return factory.New(env).Instantiate(&gen.Factory)
}

var (
	// DevCollection is the item collection minted by the dev genesis.
	DevCollection = common.BytesToAddress([]byte("dev-collection"))

	devAccounts = func() []common.Address {
		accs := make([]common.Address, 3)
		for i := range accs {
			accs[i] = common.BytesToAddress(common.Blake2b([]byte(fmt.Sprintf("dev-account-%d", i))).Bytes())
		}
		return accs
	}()
)

// DevAccounts returns the accounts funded by the dev genesis.
func DevAccounts() []common.Address {
	return append([]common.Address(nil), devAccounts...)
}

// DevGenesis returns the genesis used without a genesis file. The first dev account
// administers the factory, and every dev account holds native coins and a few items.
func DevGenesis() *Genesis {
	amount, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	gen := &Genesis{
		Codes: []GenesisCode{
			{ID: 1, Kind: xenv.CodeFactory},
			{ID: 2, Kind: xenv.CodeVault},
			{ID: 3, Kind: xenv.CodeRewards},
		},
		Factory: factory.InstantiateMsg{
			Admin:       &devAccounts[0],
			VaultCodeID: 2,
		},
	}
	for i, acc := range devAccounts {
		for _, denom := range []string{"stake", "reward"} {
			gen.Balances = append(gen.Balances, GenesisCoins{
				Account: acc,
				Asset:   assets.Native(denom),
				Amount:  (*math.HexOrDecimal256)(new(big.Int).Set(amount)),
			})
		}
		for j := range 5 {
			gen.Items = append(gen.Items, GenesisItem{
				Collection: DevCollection,
				ID:         fmt.Sprint(i*5 + j),
				Owner:      acc,
			})
		}
	}
	return gen
}
