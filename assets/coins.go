// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakevault/reverts"
)

// Coin is an amount of a native denomination attached to a command.
type Coin struct {
	Denom  string
	Amount *big.Int
}

type coinJSON struct {
	Denom  string                `json:"denom"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func (c Coin) MarshalJSON() ([]byte, error) {
	return json.Marshal(&coinJSON{Denom: c.Denom, Amount: (*math.HexOrDecimal256)(amountOrZero(c.Amount))})
}

func (c *Coin) UnmarshalJSON(data []byte) error {
	var v coinJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.Denom = v.Denom
	c.Amount = new(big.Int)
	if v.Amount != nil {
		c.Amount = (*big.Int)(v.Amount)
	}
	return nil
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

type Coins []Coin

// MustPay returns the amount paid, requiring exactly one coin of the given denom.
func MustPay(funds Coins, denom string) (*big.Int, error) {
	switch len(funds) {
	case 0:
		return nil, reverts.External("no funds sent")
	case 1:
	default:
		return nil, reverts.External("sent more than one denomination")
	}
	coin := funds[0]
	if coin.Denom != denom {
		return nil, reverts.External("must send reserve token '%s'", denom)
	}
	if coin.Amount == nil || coin.Amount.Sign() <= 0 {
		return nil, reverts.External("no %s tokens sent", denom)
	}
	return new(big.Int).Set(coin.Amount), nil
}

// Nonpayable rejects any attached funds.
func Nonpayable(funds Coins) error {
	for _, coin := range funds {
		if coin.Amount != nil && coin.Amount.Sign() != 0 {
			return reverts.External("this message does not accept funds")
		}
	}
	return nil
}

// Validate checks that every coin names a denom and carries a non negative amount.
func (cs Coins) Validate() error {
	seen := make(map[string]bool, len(cs))
	for _, coin := range cs {
		if coin.Denom == "" {
			return reverts.Validation("empty denom")
		}
		if coin.Amount == nil || coin.Amount.Sign() < 0 {
			return reverts.Validation("invalid amount of %s", coin.Denom)
		}
		if seen[coin.Denom] {
			return reverts.Validation("duplicated denom %s", coin.Denom)
		}
		seen[coin.Denom] = true
	}
	return nil
}
