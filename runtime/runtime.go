// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes commands against the contracts, one at a time.
// Every command runs in a new block. Its writes are committed in a single batch,
// or not at all.
package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakevault/assets"
	"github.com/vechain/stakevault/co"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/factory"
	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/reverts"
	"github.com/vechain/stakevault/state"
	"github.com/vechain/stakevault/storage"
	"github.com/vechain/stakevault/vault"
	"github.com/vechain/stakevault/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	// MetaAddress owns the storage of the chain head.
	MetaAddress = common.BytesToAddress([]byte("runtime"))

	slotHead = storage.NameToSlot("head")
)

// Head is the last committed block.
type Head struct {
	Number uint64 `json:"number"`
	Time   uint64 `json:"time"`
}

// Command is a message sent by an account to a contract, with funds attached.
type Command struct {
	Sender   common.Address  `json:"sender"`
	Contract common.Address  `json:"contract"`
	Funds    assets.Coins    `json:"funds,omitempty"`
	Msg      json.RawMessage `json:"msg"`
}

// Receipt is the outcome of a committed command.
type Receipt struct {
	Height uint64        `json:"height"`
	Time   uint64        `json:"time"`
	Events []*xenv.Event `json:"events"`
}

// Options of the runtime.
type Options struct {
	// CacheSize is the number of state entries kept in memory. 0 disables the cache.
	CacheSize int
	// Clock returns the time of the next block given the parent's. Defaults to FixedClock(10).
	Clock Clock
}

// Runtime owns the store and serializes every write to it.
type Runtime struct {
	store  kv.Store
	events *eventdb.EventDB
	clock  Clock
	cache  *state.Cache
	mu     sync.RWMutex
	signal co.Signal
}

// New creates a runtime. The event db is optional.
func New(store kv.Store, events *eventdb.EventDB, opts Options) (*Runtime, error) {
	rt := &Runtime{
		store:  store,
		events: events,
		clock:  opts.Clock,
	}
	if rt.clock == nil {
		rt.clock = FixedClock(10)
	}
	if opts.CacheSize > 0 {
		c, err := state.NewCache(opts.CacheSize)
		if err != nil {
			return nil, err
		}
		rt.cache = c
	}
	return rt, nil
}

func headValue(st *state.State) *storage.Value[*Head] {
	return storage.NewValue[*Head](storage.NewContext(MetaAddress, st), slotHead)
}

func loadHead(st *state.State) (*Head, bool, error) {
	return headValue(st).Get()
}

// Head returns the last committed block. It is the zero block before genesis.
func (rt *Runtime) Head() (*Head, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	head, _, err := loadHead(state.New(rt.store, nil))
	return head, err
}

// Initialized returns whether genesis has been committed.
func (rt *Runtime) Initialized() (bool, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	_, found, err := loadHead(state.New(rt.store, nil))
	return found, err
}

// NewWaiter returns a waiter woken after every commit.
func (rt *Runtime) NewWaiter() co.Waiter {
	return rt.signal.NewWaiter()
}

// Execute runs the command in a new block and commits its effects.
// A failed command leaves no trace in the store, and its error is returned as is.
func (rt *Runtime) Execute(ctx context.Context, cmd *Command) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	startTime := time.Now()
	st := state.New(rt.store, rt.cache)
	head, found, err := loadHead(st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("genesis not initialized")
	}

	blockCtx := &xenv.BlockContext{
		Number: head.Number + 1,
		Time:   rt.clock(head.Time),
	}
	env := xenv.New(st, blockCtx, cmd.Sender, cmd.Contract, cmd.Funds)

	checkpoint := st.NewCheckpoint()
	kind, err := rt.dispatch(env, cmd)
	if err != nil {
		st.RevertTo(checkpoint)
		metricCommandCount().AddWithLabel(1, map[string]string{"kind": string(kind), "status": "failed"})
		logger.Debug("command failed", "contract", cmd.Contract, "sender", cmd.Sender, "err", err)
		return nil, err
	}

	if err := headValue(st).Set(&Head{Number: blockCtx.Number, Time: blockCtx.Time}); err != nil {
		return nil, err
	}
	n, err := st.Commit(rt.store.Bulk())
	if err != nil {
		return nil, errors.Wrap(err, "commit state")
	}

	receipt := &Receipt{
		Height: blockCtx.Number,
		Time:   blockCtx.Time,
		Events: env.Events(),
	}
	rt.indexEvents(receipt)

	metricCommandCount().AddWithLabel(1, map[string]string{"kind": string(kind), "status": "executed"})
	metricExecutionDuration().Observe(time.Since(startTime).Milliseconds())
	metricHeight().Set(int64(receipt.Height))
	logger.Debug("command executed",
		"height", receipt.Height,
		"contract", cmd.Contract,
		"events", len(receipt.Events),
		"writes", n,
		"elapsed", time.Since(startTime))

	rt.signal.Broadcast()
	return receipt, nil
}

// indexEvents stores the events of a committed block. The state is the source of truth,
// so a failure here is logged rather than returned.
func (rt *Runtime) indexEvents(receipt *Receipt) {
	if rt.events == nil {
		return
	}
	if err := rt.events.Insert(receipt.Height, receipt.Time, receipt.Events); err != nil {
		logger.Error("failed to index events", "height", receipt.Height, "err", err)
	}
}

func (rt *Runtime) dispatch(env *xenv.Environment, cmd *Command) (xenv.CodeKind, error) {
	inst, err := env.Registry().Instance(cmd.Contract)
	if err != nil {
		return "", err
	}
	if inst == nil {
		return "", reverts.NotFound("contract %s not found", cmd.Contract)
	}
	if err := cmd.Funds.Validate(); err != nil {
		return inst.Kind, err
	}
	if err := xenv.TransferFunds(env.Bank(), cmd.Sender, cmd.Contract, cmd.Funds); err != nil {
		return inst.Kind, err
	}

	switch inst.Kind {
	case xenv.CodeFactory:
		var msg factory.ExecuteMsg
		if err := decodeMsg(cmd.Msg, &msg); err != nil {
			return inst.Kind, err
		}
		return inst.Kind, factory.New(env).Execute(&msg)
	case xenv.CodeVault:
		var msg vault.ExecuteMsg
		if err := decodeMsg(cmd.Msg, &msg); err != nil {
			return inst.Kind, err
		}
		return inst.Kind, vault.New(env).Execute(&msg)
	default:
		return inst.Kind, reverts.Unauthorized("%s contract %s only accepts calls from its vault", inst.Kind, cmd.Contract)
	}
}

func decodeMsg(data json.RawMessage, msg any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return reverts.Validation("invalid message: %v", err)
	}
	return nil
}

// View runs fn against a consistent snapshot of the committed state, in the env of contract.
// Writes made by fn are discarded.
func (rt *Runtime) View(contract common.Address, fn func(env *xenv.Environment) error) error {
	rt.mu.RLock()
	snapshot := rt.store.Snapshot()
	rt.mu.RUnlock()
	defer snapshot.Release()

	st := state.New(snapshot, nil)
	head, _, err := loadHead(st)
	if err != nil {
		return err
	}
	blockCtx := &xenv.BlockContext{Number: head.Number, Time: head.Time}
	return fn(xenv.New(st, blockCtx, common.Address{}, contract, nil))
}
