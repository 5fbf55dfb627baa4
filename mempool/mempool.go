// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/chaincfg"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mining"
)

const (
	// DefaultBlockPrioritySize is the default size in bytes for high-
	// priority / low-fee transactions.  It is used to help determine which
	// are allowed into the mempool and consequently affects their relay and
	// inclusion when generating block templates.
	DefaultBlockPrioritySize = 50000
)

// Config is a descriptor containing the memory pool configuration.
type Config struct {
	// Policy defines the various mempool configuration options related
	// to policy.
	Policy Policy

	// ChainParams identifies which chain parameters the txpool is
	// associated with.
	ChainParams *chaincfg.Params

	// FeeEstimator is fed every confirmed block.  A default estimator is
	// created when it is nil.
	FeeEstimator *fees.Estimator

	// SanityCheck enables the expensive consistency checks run by Check.
	SanityCheck bool

	// BestHeight defines the function to use to access the block height of
	// the current best chain.  When nil the height of the last block seen
	// by the fee estimator is used.
	BestHeight func() int32
}

// Policy houses the policy (configuration parameters) which is used to
// control the mempool.
type Policy struct {
	// MaxTxVersion is the transaction version that the mempool should
	// accept.  All transactions above this version are rejected as
	// non-standard.
	MaxTxVersion int32

	// DisableRelayPriority defines whether to relay free or low-fee
	// transactions that do not have enough priority to be relayed.
	DisableRelayPriority bool

	// AcceptNonStd defines whether to accept non-standard transactions. If
	// true, non-standard transactions will be accepted into the mempool.
	// Otherwise, all non-standard transactions will be rejected.
	AcceptNonStd bool

	// MinRelayTxFee defines the minimum transaction fee in DSLK/kB to be
	// considered a non-zero fee.  Zero selects the network default.
	MinRelayTxFee btcutil.Amount
}

// InPoint identifies the input of a pooled transaction that spends an
// outpoint.  The transaction is resolved through the pool by its hash.
type InPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Delta is a manual adjustment applied to the priority and fee of a
// transaction when it is considered for mining.
type Delta struct {
	Priority float64
	Fee      btcutil.Amount
}

// TxPool is used as a source of transactions that need to be mined into blocks
// and relayed to other peers.  It is safe for concurrent access from multiple
// peers.
type TxPool struct {
	// transactionsUpdated is bumped on every change to the pool and is
	// read without taking the lock.
	transactionsUpdated atomic.Uint64

	mtx         sync.Mutex
	cfg         Config
	pool        map[chainhash.Hash]*TxDesc
	outpoints   map[wire.OutPoint]InPoint
	deltas      map[chainhash.Hash]Delta
	totalTxSize int64
	estimator   *fees.Estimator
}

// Ensure the TxPool type implements the mining.TxSource interface.
var _ mining.TxSource = (*TxPool)(nil)

// New returns a new memory pool for storing standalone transactions until
// they are mined into a block.
func New(cfg *Config) *TxPool {
	mp := &TxPool{
		cfg:       *cfg,
		pool:      make(map[chainhash.Hash]*TxDesc),
		outpoints: make(map[wire.OutPoint]InPoint),
		deltas:    make(map[chainhash.Hash]Delta),
		estimator: cfg.FeeEstimator,
	}
	if mp.cfg.Policy.MinRelayTxFee == 0 {
		mp.cfg.Policy.MinRelayTxFee = DefaultMinRelayTxFee
		if cfg.ChainParams != nil {
			mp.cfg.Policy.MinRelayTxFee = cfg.ChainParams.MinRelayTxFee
		}
	}
	if mp.cfg.Policy.MaxTxVersion == 0 {
		mp.cfg.Policy.MaxTxVersion = MaxStandardTxVersion
	}
	if mp.estimator == nil {
		estCfg := fees.DefaultEstimatorConfig()
		estCfg.MinRelayFee = mp.minRelayFee()
		est, err := fees.NewEstimator(estCfg)
		if err != nil {
			// The default configuration is always valid.
			panic(err)
		}
		mp.estimator = est
	}
	if mp.cfg.BestHeight == nil {
		mp.cfg.BestHeight = mp.estimator.BestSeenHeight
	}
	return mp
}

// minRelayFee returns the configured relay fee as a rate.
func (mp *TxPool) minRelayFee() fees.FeeRate {
	return fees.NewFeeRate(mp.cfg.Policy.MinRelayTxFee)
}

// FeeEstimator returns the estimator the pool feeds.
func (mp *TxPool) FeeEstimator() *fees.Estimator {
	return mp.estimator
}

// addUnchecked is the internal function which implements the public
// AddUnchecked.  See the comment for AddUnchecked for more details.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) addUnchecked(hash *chainhash.Hash, desc *TxDesc) {
	if old, exists := mp.pool[*hash]; exists {
		mp.unindex(hash, old)
	}

	mp.pool[*hash] = desc
	for i, txIn := range desc.tx.MsgTx().TxIn {
		mp.outpoints[txIn.PreviousOutPoint] = InPoint{
			Hash:  *hash,
			Index: uint32(i),
		}
	}
	mp.totalTxSize += desc.txSize
	mp.transactionsUpdated.Add(1)

	log.Tracef("Added transaction %v (pool size: %d, %d bytes)", hash,
		len(mp.pool), mp.totalTxSize)
}

// AddUnchecked adds the passed descriptor to the pool under hash without any
// validation.  Adding a hash that is already pooled replaces the old entry.
//
// This function is safe for concurrent access.
func (mp *TxPool) AddUnchecked(hash *chainhash.Hash, desc *TxDesc) {
	mp.mtx.Lock()
	mp.addUnchecked(hash, desc)
	mp.mtx.Unlock()
}

// unindex drops the pool entry for hash together with the spend index
// entries that point at it and its size.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) unindex(hash *chainhash.Hash, desc *TxDesc) {
	for _, txIn := range desc.tx.MsgTx().TxIn {
		prevOut := txIn.PreviousOutPoint
		if spender, ok := mp.outpoints[prevOut]; ok && spender.Hash == *hash {
			delete(mp.outpoints, prevOut)
		}
	}
	mp.totalTxSize -= desc.txSize
	delete(mp.pool, *hash)
}

// queueSpenders appends the hashes of the pooled transactions spending the
// outputs of the transaction identified by hash.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) queueSpenders(queue []chainhash.Hash, hash *chainhash.Hash,
	numOutputs int) []chainhash.Hash {

	prevOut := wire.OutPoint{Hash: *hash}
	for i := 0; i < numOutputs; i++ {
		prevOut.Index = uint32(i)
		if spender, ok := mp.outpoints[prevOut]; ok {
			queue = append(queue, spender.Hash)
		}
	}
	return queue
}

// remove is the internal function which implements the public Remove.  See
// the comment for Remove for more details.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) remove(tx *wire.MsgTx, recursive bool) []*btcutil.Tx {
	txHash := tx.TxHash()
	queue := []chainhash.Hash{txHash}

	// A transaction that is not pooled may still have pooled spenders,
	// such as when a disconnected block transaction was not accepted back
	// into the pool during a reorganization.
	if _, exists := mp.pool[txHash]; recursive && !exists {
		queue = mp.queueSpenders(queue, &txHash, len(tx.TxOut))
	}

	var removed []*btcutil.Tx
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		desc, exists := mp.pool[hash]
		if !exists {
			continue
		}
		if recursive {
			queue = mp.queueSpenders(queue, &hash,
				len(desc.tx.MsgTx().TxOut))
		}

		mp.unindex(&hash, desc)
		mp.transactionsUpdated.Add(1)
		removed = append(removed, desc.tx)

		log.Tracef("Removed transaction %v (pool size: %d)", hash,
			len(mp.pool))
	}

	return removed
}

// Remove removes the passed transaction from the pool and returns every
// transaction that was removed.  When recursive is set, all pooled
// transactions that spend outputs of a removed transaction are removed as
// well, as they would otherwise spend outputs that no longer exist.  This
// holds even when tx itself is not in the pool.  Removing a transaction that
// is not pooled is a no-op.
//
// This function is safe for concurrent access.
func (mp *TxPool) Remove(tx *wire.MsgTx, recursive bool) []*btcutil.Tx {
	mp.mtx.Lock()
	removed := mp.remove(tx, recursive)
	mp.mtx.Unlock()
	return removed
}

// removeConflicts is the internal function which implements the public
// RemoveConflicts.  See the comment for RemoveConflicts for more details.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) removeConflicts(tx *wire.MsgTx) []*btcutil.Tx {
	txHash := tx.TxHash()

	var removed []*btcutil.Tx
	for _, txIn := range tx.TxIn {
		spender, ok := mp.outpoints[txIn.PreviousOutPoint]
		if !ok || spender.Hash == txHash {
			continue
		}
		desc, exists := mp.pool[spender.Hash]
		if !exists {
			continue
		}
		removed = append(removed, mp.remove(desc.tx.MsgTx(), true)...)
	}
	return removed
}

// RemoveConflicts removes all pooled transactions that spend an output also
// spent by the passed transaction, along with everything that depends on
// them.  It returns the removed transactions.
//
// This function is safe for concurrent access.
func (mp *TxPool) RemoveConflicts(tx *wire.MsgTx) []*btcutil.Tx {
	mp.mtx.Lock()
	removed := mp.removeConflicts(tx)
	mp.mtx.Unlock()
	return removed
}

// RemoveForBlock updates the pool for a block connected at the passed
// height.  The pooled transactions the block confirms are reported to the
// fee estimator and removed, then every pooled transaction that conflicts
// with the block is removed recursively.  Prioritisation deltas of the block
// transactions are cleared.  It returns the transactions removed due to
// conflicts.
//
// This function is safe for concurrent access.
func (mp *TxPool) RemoveForBlock(txns []*wire.MsgTx, height int32) []*btcutil.Tx {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	entries := make([]fees.ConfirmedEntry, 0, len(txns))
	for _, tx := range txns {
		if desc, exists := mp.pool[tx.TxHash()]; exists {
			entries = append(entries, desc)
		}
	}
	mp.estimator.SeenBlock(entries, height, mp.minRelayFee())

	var conflicts []*btcutil.Tx
	for _, tx := range txns {
		mp.remove(tx, false)
		conflicts = append(conflicts, mp.removeConflicts(tx)...)

		txHash := tx.TxHash()
		mp.clearPrioritisation(&txHash)
	}

	log.Debugf("Block %d confirmed %d pooled transactions and evicted %d "+
		"conflicts (pool size: %d)", height, len(entries),
		len(conflicts), len(mp.pool))

	return conflicts
}

// RemoveCoinbaseSpends removes every pooled transaction that spends an
// output outside the pool which the view no longer knows, or which was
// created by a coinbase that is immature at poolHeight.  Transactions
// depending on them are removed as well.  This is needed after a
// reorganization disconnects blocks.
//
// This function is safe for concurrent access.
func (mp *TxPool) RemoveCoinbaseSpends(view blockchain.CoinView, poolHeight int32) []*btcutil.Tx {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	var maturity int32
	if mp.cfg.ChainParams != nil {
		maturity = int32(mp.cfg.ChainParams.CoinbaseMaturity)
	}

	var toRemove []*wire.MsgTx
	for _, desc := range mp.pool {
		msgTx := desc.tx.MsgTx()
		for _, txIn := range msgTx.TxIn {
			prevOut := &txIn.PreviousOutPoint
			if _, exists := mp.pool[prevOut.Hash]; exists {
				continue
			}
			coins := view.AccessCoins(&prevOut.Hash)
			if mp.cfg.SanityCheck && coins == nil {
				panic(AssertError(fmt.Sprintf("coins of %v spent "+
					"by pooled transaction %v are missing",
					prevOut.Hash, desc.tx.Hash())))
			}
			if !coins.IsAvailable(prevOut.Index) || (coins.IsCoinBase() &&
				poolHeight-coins.Height < maturity) {

				toRemove = append(toRemove, msgTx)
				break
			}
		}
	}

	var removed []*btcutil.Tx
	for _, tx := range toRemove {
		removed = append(removed, mp.remove(tx, true)...)
	}
	if len(removed) > 0 {
		log.Debugf("Removed %d transactions spending immature or "+
			"missing coins at height %d", len(removed), poolHeight)
	}
	return removed
}

// Clear removes every transaction from the pool.  Prioritisation deltas are
// kept.
//
// This function is safe for concurrent access.
func (mp *TxPool) Clear() {
	mp.mtx.Lock()
	mp.pool = make(map[chainhash.Hash]*TxDesc)
	mp.outpoints = make(map[wire.OutPoint]InPoint)
	mp.totalTxSize = 0
	mp.transactionsUpdated.Add(1)
	mp.mtx.Unlock()
}

// Lookup returns the pooled transaction with the passed hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) Lookup(hash *chainhash.Hash) (*btcutil.Tx, bool) {
	mp.mtx.Lock()
	desc, exists := mp.pool[*hash]
	mp.mtx.Unlock()

	if !exists {
		return nil, false
	}
	return desc.tx, true
}

// FetchTxDesc returns the descriptor of the pooled transaction with the
// passed hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) FetchTxDesc(hash *chainhash.Hash) (*TxDesc, error) {
	mp.mtx.Lock()
	desc, exists := mp.pool[*hash]
	mp.mtx.Unlock()

	if exists {
		return desc, nil
	}

	return nil, fmt.Errorf("transaction is not in the pool")
}

// Exists returns whether the passed hash is in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Exists(hash *chainhash.Hash) bool {
	mp.mtx.Lock()
	_, exists := mp.pool[*hash]
	mp.mtx.Unlock()

	return exists
}

// HaveTransaction returns whether or not the passed transaction already
// exists in the pool.
//
// This is part of the mining.TxSource interface implementation and is safe for
// concurrent access as required by the interface contract.
func (mp *TxPool) HaveTransaction(hash *chainhash.Hash) bool {
	return mp.Exists(hash)
}

// QueryHashes returns the hashes of all pooled transactions in no particular
// order.
//
// This function is safe for concurrent access.
func (mp *TxPool) QueryHashes() []chainhash.Hash {
	mp.mtx.Lock()
	hashes := make([]chainhash.Hash, 0, len(mp.pool))
	for hash := range mp.pool {
		hashes = append(hashes, hash)
	}
	mp.mtx.Unlock()

	return hashes
}

// Count returns the number of transactions in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Count() int {
	mp.mtx.Lock()
	count := len(mp.pool)
	mp.mtx.Unlock()

	return count
}

// TotalTxSize returns the sum of the serialized sizes of all pooled
// transactions.
//
// This function is safe for concurrent access.
func (mp *TxPool) TotalTxSize() int64 {
	mp.mtx.Lock()
	size := mp.totalTxSize
	mp.mtx.Unlock()

	return size
}

// TxDescs returns a slice of descriptors for all the transactions in the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxDescs() []*TxDesc {
	mp.mtx.Lock()
	descs := make([]*TxDesc, 0, len(mp.pool))
	for _, desc := range mp.pool {
		descs = append(descs, desc)
	}
	mp.mtx.Unlock()

	return descs
}

// MiningDescs returns a slice of mining descriptors for all the transactions
// in the pool with their priority at nextBlockHeight.  Prioritisation deltas
// are included in the reported priority and fee.
//
// This is part of the mining.TxSource interface implementation and is safe for
// concurrent access as required by the interface contract.
func (mp *TxPool) MiningDescs(nextBlockHeight int32) []*mining.TxDesc {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	descs := make([]*mining.TxDesc, 0, len(mp.pool))
	for hash, desc := range mp.pool {
		priority := desc.GetPriority(nextBlockHeight)
		fee := desc.fee
		mp.applyDeltas(&hash, &priority, &fee)

		descs = append(descs, &mining.TxDesc{
			Tx:       desc.tx,
			Added:    desc.added,
			Height:   desc.height,
			Fee:      int64(fee),
			FeePerKB: int64(fees.NewFeeRateFromFee(fee, desc.txSize)),
			Priority: priority,
		})
	}
	return descs
}

// TransactionsUpdated returns a counter that changes every time the pool
// changes.
//
// This is part of the mining.TxSource interface implementation and is safe for
// concurrent access as required by the interface contract.
func (mp *TxPool) TransactionsUpdated() uint64 {
	return mp.transactionsUpdated.Load()
}

// AddTransactionsUpdated adds n to the update counter.
//
// This function is safe for concurrent access.
func (mp *TxPool) AddTransactionsUpdated(n uint64) {
	mp.transactionsUpdated.Add(n)
}

// Prioritise adds the passed deltas to the priority and fee the transaction
// with the passed hash is mined with.  Deltas accumulate and may be set for
// transactions that are not pooled yet.
//
// This function is safe for concurrent access.
func (mp *TxPool) Prioritise(hash *chainhash.Hash, priorityDelta float64, feeDelta btcutil.Amount) {
	mp.mtx.Lock()
	delta := mp.deltas[*hash]
	delta.Priority += priorityDelta
	delta.Fee += feeDelta
	mp.deltas[*hash] = delta
	mp.mtx.Unlock()

	log.Infof("Prioritised transaction %v: priority += %g, fee += %v", hash,
		priorityDelta, feeDelta)
}

// clearPrioritisation is the internal function which implements the public
// ClearPrioritisation.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) clearPrioritisation(hash *chainhash.Hash) {
	delete(mp.deltas, *hash)
}

// ClearPrioritisation drops the deltas of the passed hash.
//
// This function is safe for concurrent access.
func (mp *TxPool) ClearPrioritisation(hash *chainhash.Hash) {
	mp.mtx.Lock()
	mp.clearPrioritisation(hash)
	mp.mtx.Unlock()
}

// applyDeltas is the internal function which implements the public
// ApplyDeltas.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) applyDeltas(hash *chainhash.Hash, priority *float64, fee *btcutil.Amount) {
	delta, ok := mp.deltas[*hash]
	if !ok {
		return
	}
	*priority += delta.Priority
	*fee += delta.Fee
}

// ApplyDeltas adds the deltas of the passed hash, if any, to priority and
// fee.
//
// This function is safe for concurrent access.
func (mp *TxPool) ApplyDeltas(hash *chainhash.Hash, priority *float64, fee *btcutil.Amount) {
	mp.mtx.Lock()
	mp.applyDeltas(hash, priority, fee)
	mp.mtx.Unlock()
}
