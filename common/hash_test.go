// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/blake2b"
)

func TestBlake2b(t *testing.T) {
	assert.Equal(t, Bytes32(blake2b.Sum256([]byte("abc"))), Blake2b([]byte("abc")))
	assert.Equal(t, Blake2b([]byte("abc")), Blake2b([]byte("a"), []byte("bc")))
	assert.NotEqual(t, Blake2b([]byte("abc")), Blake2b([]byte("abd")))

	h := Blake2b()
	assert.Len(t, h.Bytes(), 32)
	assert.Equal(t, "0x"+h.String()[2:], h.String())
	assert.Len(t, h.String(), 66)
}
