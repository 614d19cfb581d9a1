// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package assets implements the fungible balances and non-fungible collections
// which vaults take custody of.
package assets

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/common"
)

// Kind is the kind of a fungible asset.
type Kind uint8

const (
	KindNative Kind = iota + 1
	KindPooled
)

const (
	nativePrefix = "native:"
	pooledPrefix = "pooled:"
)

// Asset is either a native denomination or a pooled token contract.
type Asset struct {
	Kind  Kind
	Denom string
	Token common.Address
}

func Native(denom string) Asset {
	return Asset{Kind: KindNative, Denom: denom}
}

func Pooled(token common.Address) Asset {
	return Asset{Kind: KindPooled, Token: token}
}

// ID returns the canonical identifier of the asset.
func (a Asset) ID() string {
	switch a.Kind {
	case KindNative:
		return nativePrefix + a.Denom
	case KindPooled:
		return pooledPrefix + a.Token.String()
	default:
		return ""
	}
}

func (a Asset) String() string {
	return a.ID()
}

func (a Asset) Validate() error {
	switch a.Kind {
	case KindNative:
		if a.Denom == "" {
			return errors.New("empty denom")
		}
	case KindPooled:
		if a.Token.IsZero() {
			return errors.New("zero token address")
		}
	default:
		return errors.New("unknown asset kind")
	}
	return nil
}

func (a Asset) MarshalText() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return []byte(a.ID()), nil
}

func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAsset parses the canonical identifier of an asset.
func ParseAsset(s string) (Asset, error) {
	var asset Asset
	switch {
	case strings.HasPrefix(s, nativePrefix):
		asset = Native(s[len(nativePrefix):])
	case strings.HasPrefix(s, pooledPrefix):
		token, err := common.ParseAddress(s[len(pooledPrefix):])
		if err != nil {
			return Asset{}, errors.WithMessage(err, "pooled asset")
		}
		asset = Pooled(token)
	default:
		return Asset{}, errors.Errorf("unknown asset %q", s)
	}
	if err := asset.Validate(); err != nil {
		return Asset{}, err
	}
	return asset, nil
}
