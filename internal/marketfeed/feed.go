// Package marketfeed is a supplemented feature (SPEC_FULL.md §12): a
// synthetic tick generator that gives gateway.Registry.Broadcast an
// actual caller, since spec.md's distillation scopes "realistic
// market-data generation" out but still defines the broadcast sink
// its end-to-end scenarios assume is fed by something. Grounded on the
// teacher's periodic-refresh goroutine shape (pkg/kgo/consumer.go's
// background loop driven by a ticker, not a blocking sleep).
package marketfeed

import (
	"bytes"
	"context"
	"encoding/gob"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/ibsim/gateway/internal/gateway"
	"github.com/ibsim/gateway/internal/ibproto"
	"github.com/ibsim/gateway/internal/logging"
)

// Feed drives a bounded random walk around each symbol's seed price
// and broadcasts the resulting tick on every interval. It is
// deliberately unrealistic (spec.md §1 excludes realistic market-data
// generation) — its only job is to give REQ_MKT_DATA subscribers more
// than the one-shot initial burst.
type Feed struct {
	reg      *gateway.Registry
	log      logging.Logger
	symbols  []string
	interval time.Duration
	snapPath string

	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
}

// New builds a Feed over symbols, seeding each at a deterministic
// opening price (or from a prior snapshot at snapPath, if present).
// snapPath may be empty to disable snapshotting entirely.
func New(reg *gateway.Registry, log logging.Logger, symbols []string, interval time.Duration, snapPath string) *Feed {
	if log == nil {
		log = logging.Nop{}
	}
	f := &Feed{
		reg: reg, log: log, symbols: symbols, interval: interval, snapPath: snapPath,
		prices: make(map[string]float64, len(symbols)),
		rng:    rand.New(rand.NewSource(1)),
	}
	if !f.loadSnapshot() {
		for _, symbol := range symbols {
			f.prices[symbol] = seedPrice(symbol)
		}
	}
	return f
}

func seedPrice(symbol string) float64 {
	var h int
	for _, c := range symbol {
		h = h*31 + int(c)
	}
	if h < 0 {
		h = -h
	}
	return 50 + float64(h%500)
}

// Run ticks every f.interval, updating and broadcasting one symbol's
// price per tick (round-robin), until ctx is cancelled. On exit it
// persists a final snapshot if snapshotting is enabled.
func (f *Feed) Run(ctx context.Context) {
	if f.interval <= 0 {
		f.interval = time.Second
	}
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			f.saveSnapshot()
			return
		case <-ticker.C:
			if len(f.symbols) == 0 {
				continue
			}
			symbol := f.symbols[i%len(f.symbols)]
			i++
			f.tick(symbol)
		}
	}
}

func (f *Feed) tick(symbol string) {
	f.mu.Lock()
	price := f.prices[symbol]
	step := (f.rng.Float64() - 0.5) * 0.5
	price += step
	if price < 1 {
		price = 1
	}
	f.prices[symbol] = price
	bidSize := int64(100 + f.rng.Intn(400))
	askSize := int64(100 + f.rng.Intn(400))
	vol := int64(100000 + f.rng.Intn(900000))
	f.mu.Unlock()

	bid, ask, last := price-0.01, price+0.01, price
	f.reg.Broadcast(symbol, gateway.BroadcastTicks{
		Bid: ibproto.F64(bid), Ask: ibproto.F64(ask), Last: ibproto.F64(last),
		BidSize: ibproto.I64(bidSize), AskSize: ibproto.I64(askSize), Vol: ibproto.I64(vol),
	})
}

func (f *Feed) saveSnapshot() {
	if f.snapPath == "" {
		return
	}
	f.mu.Lock()
	snapshot := make(map[string]float64, len(f.prices))
	for k, v := range f.prices {
		snapshot[k] = v
	}
	f.mu.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(snapshot); err != nil {
		f.log.Log(logging.LevelWarn, "marketfeed: snapshot encode failed", "err", err)
		return
	}

	file, err := os.Create(f.snapPath)
	if err != nil {
		f.log.Log(logging.LevelWarn, "marketfeed: snapshot create failed", "err", err)
		return
	}
	defer file.Close()

	w := snappy.NewBufferedWriter(file)
	defer w.Close()
	if _, err := w.Write(raw.Bytes()); err != nil {
		f.log.Log(logging.LevelWarn, "marketfeed: snapshot write failed", "err", err)
	}
}

func (f *Feed) loadSnapshot() bool {
	if f.snapPath == "" {
		return false
	}
	raw, err := os.Open(f.snapPath)
	if err != nil {
		return false
	}
	defer raw.Close()

	r := snappy.NewReader(raw)
	var snapshot map[string]float64
	if err := gob.NewDecoder(r).Decode(&snapshot); err != nil {
		f.log.Log(logging.LevelWarn, "marketfeed: snapshot decode failed", "err", err)
		return false
	}
	f.prices = snapshot
	return true
}
