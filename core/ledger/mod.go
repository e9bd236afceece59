// Package ledger implements the host of the programs: it executes one signed
// transaction at a time over a persistent key/value database.
//
// A submission runs inside a single writable transaction of the database. The
// contract writes are staged in memory and reach the database only when the
// execution is accepted, which makes every transaction all-or-nothing. The
// nonce of the signer is consumed for accepted and rejected transactions alike
// so that a transaction cannot be replayed.
package ledger

import (
	"context"
	"encoding/binary"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/store/kv"
	"go.dedis.ch/ballot/core/store/mem"
	"go.dedis.ch/ballot/core/txn"
	"golang.org/x/xerrors"
)

var (
	stateBucket = []byte("state")
	nonceBucket = []byte("nonces")
)

var promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ballot_ledger_transactions_total",
	Help: "total number of transactions submitted to the ledger",
}, []string{"status"})

func init() {
	ballot.PromCollectors = append(ballot.PromCollectors, promTxs)
}

// Verifiable is implemented by the transactions that carry a signature of
// their identity.
type Verifiable interface {
	Verify() error
}

// Receipt is the outcome of a transaction that reached the execution.
type Receipt struct {
	// ID is the identifier of the transaction.
	ID []byte

	// Accepted is true when the writes of the transaction were applied.
	Accepted bool

	// Message is the reason of a rejection.
	Message string

	// Err is the cause of a rejection.
	Err error
}

// Ledger executes transactions over a key/value database.
type Ledger struct {
	db   kv.DB
	exec execution.Service
}

// NewLedger returns a ledger storing its state in the database and executing
// the transactions with the service.
func NewLedger(db kv.DB, exec execution.Service) *Ledger {
	return &Ledger{
		db:   db,
		exec: exec,
	}
}

// Submit executes the transaction. It returns an error, and the state is left
// untouched, if the transaction is not signed by its identity, if the nonce is
// not the next one of the identity, or if no contract can run it. Otherwise
// the receipt tells if the contract accepted the transaction.
func (l *Ledger) Submit(ctx context.Context, tx txn.Transaction) (Receipt, error) {
	err := ctx.Err()
	if err != nil {
		return Receipt{}, xerrors.Errorf("context: %v", err)
	}

	verifiable, ok := tx.(Verifiable)
	if !ok {
		promTxs.WithLabelValues("invalid").Inc()
		return Receipt{}, xerrors.Errorf("transaction %T is not verifiable", tx)
	}

	err = verifiable.Verify()
	if err != nil {
		promTxs.WithLabelValues("invalid").Inc()
		return Receipt{}, xerrors.Errorf("failed to verify tx: %v", err)
	}

	ident, err := access.Bytes(tx.GetIdentity())
	if err != nil {
		promTxs.WithLabelValues("invalid").Inc()
		return Receipt{}, xerrors.Errorf("identity: %v", err)
	}

	var receipt Receipt

	err = l.db.Update(func(wtx kv.WritableTx) error {
		nonces, err := wtx.GetBucketOrCreate(nonceBucket)
		if err != nil {
			return xerrors.Errorf("nonces: %v", err)
		}

		state, err := wtx.GetBucketOrCreate(stateBucket)
		if err != nil {
			return xerrors.Errorf("state: %v", err)
		}

		expected := readNonce(nonces, ident)
		if tx.GetNonce() != expected {
			return xerrors.Errorf("nonce mismatch: %d != %d", tx.GetNonce(), expected)
		}

		snap := mem.NewSnapshot(bucketStore{bucket: state})

		res, err := l.exec.Execute(snap, execution.Step{Current: tx})
		if err != nil {
			return xerrors.Errorf("failed to execute tx: %v", err)
		}

		if res.Accepted {
			err = snap.Apply(bucketStore{bucket: state})
			if err != nil {
				return xerrors.Errorf("failed to apply: %v", err)
			}
		}

		err = writeNonce(nonces, ident, expected+1)
		if err != nil {
			return xerrors.Errorf("failed to write nonce: %v", err)
		}

		receipt = Receipt{
			ID:       tx.GetID(),
			Accepted: res.Accepted,
			Message:  res.Message,
			Err:      res.Err,
		}

		wtx.OnCommit(func() {
			status := "rejected"
			if receipt.Accepted {
				status = "accepted"
			}

			promTxs.WithLabelValues(status).Inc()
		})

		return nil
	})
	if err != nil {
		promTxs.WithLabelValues("invalid").Inc()
		return Receipt{}, xerrors.Errorf("failed to submit: %v", err)
	}

	ballot.Logger.Debug().
		Hex("tx", receipt.ID).
		Uint64("nonce", tx.GetNonce()).
		Bool("accepted", receipt.Accepted).
		Str("message", receipt.Message).
		Msg("transaction executed")

	return receipt, nil
}

// GetNonce implements signed.Client. It returns the next nonce expected for
// the identity.
func (l *Ledger) GetNonce(ident access.Identity) (uint64, error) {
	key, err := access.Bytes(ident)
	if err != nil {
		return 0, xerrors.Errorf("identity: %v", err)
	}

	var nonce uint64

	err = l.db.View(func(rtx kv.ReadableTx) error {
		bucket := rtx.GetBucket(nonceBucket)
		if bucket != nil {
			nonce = readNonce(bucket, key)
		}

		return nil
	})
	if err != nil {
		return 0, xerrors.Errorf("failed to read db: %v", err)
	}

	return nonce, nil
}

// View executes the function with a read-only view of the current state.
func (l *Ledger) View(fn func(store.Readable) error) error {
	return l.db.View(func(rtx kv.ReadableTx) error {
		return fn(bucketStore{bucket: rtx.GetBucket(stateBucket)})
	})
}

func readNonce(bucket kv.Bucket, key []byte) uint64 {
	value := bucket.Get(key)
	if len(value) != 8 {
		return 0
	}

	return binary.LittleEndian.Uint64(value)
}

func writeNonce(bucket kv.Bucket, key []byte, nonce uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	return bucket.Set(key, buffer)
}

// bucketStore is the adapter of a database bucket to a store. A nil bucket is
// an empty store.
//
// - implements store.Snapshot
type bucketStore struct {
	bucket kv.Bucket
}

// Get implements store.Readable. The value is copied as it is only valid for
// the life of the database transaction.
func (s bucketStore) Get(key []byte) ([]byte, error) {
	if s.bucket == nil {
		return nil, nil
	}

	value := s.bucket.Get(key)
	if value == nil {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

// Set implements store.Writable.
func (s bucketStore) Set(key, value []byte) error {
	if s.bucket == nil {
		return xerrors.New("read-only store")
	}

	return s.bucket.Set(key, value)
}

// Delete implements store.Writable.
func (s bucketStore) Delete(key []byte) error {
	if s.bucket == nil {
		return xerrors.New("read-only store")
	}

	return s.bucket.Delete(key)
}
