package service

import (
	"context"
	"sync"
	"sync/atomic"

	perr "mintwatch/internal/platform/errors"
	dom "mintwatch/internal/services/watcher/domain"

	"github.com/gagliardetto/solana-go"
)

func testSig(b byte) string {
	var s solana.Signature
	for i := range s {
		s[i] = b
	}
	return s.String()
}

func testKey(b byte) string {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k.String()
}

func createEvent(sig string) dom.RawLogEvent {
	return dom.RawLogEvent{Signature: sig, Logs: []string{"Program 6EF8 invoke [1]", "Program log: Create"}}
}

// fakeStream hands events to Next until closed, then fails with a transport error
type fakeStream struct {
	events chan dom.RawLogEvent
	closed atomic.Int32
}

func newStream() *fakeStream { return &fakeStream{events: make(chan dom.RawLogEvent, 16)} }

func (f *fakeStream) Next(ctx context.Context) (dom.RawLogEvent, error) {
	select {
	case ev, ok := <-f.events:
		if !ok {
			return dom.RawLogEvent{}, perr.Transportf("connection reset")
		}
		return ev, nil
	case <-ctx.Done():
		return dom.RawLogEvent{}, ctx.Err()
	}
}

func (f *fakeStream) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeSubscriber struct {
	stream     *fakeStream
	err        error
	account    string
	commitment string
}

func (f *fakeSubscriber) Subscribe(_ context.Context, account, commitment string) (dom.Subscription, error) {
	f.account, f.commitment = account, commitment
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// fakeExtractor returns mints[sig]; signatures with a gate block until it is closed
type fakeExtractor struct {
	mu      sync.Mutex
	mints   map[string]string
	gates   map[string]chan struct{}
	started atomic.Int32
	active  atomic.Int32
	peak    atomic.Int32
}

func newExtractor() *fakeExtractor {
	return &fakeExtractor{mints: map[string]string{}, gates: map[string]chan struct{}{}}
}

func (f *fakeExtractor) gate(sig string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[sig] = g
	return g
}

func (f *fakeExtractor) Variant() dom.Variant { return dom.VariantSolanaExplorer }

func (f *fakeExtractor) SourceURL(sig string) string { return "https://explorer.solana.com/tx/" + sig + "?cluster=mainnet" }

func (f *fakeExtractor) Extract(_ context.Context, sig string) (string, bool) {
	f.started.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	g := f.gates[sig]
	mint, ok := f.mints[sig]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
	return mint, ok
}

type memStore struct {
	mu      sync.Mutex
	recs    []dom.ResultRecord
	failN   int
	failErr error
}

func (m *memStore) Append(_ context.Context, rec dom.ResultRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failN > 0 {
		m.failN--
		return m.failErr
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) List(context.Context) ([]dom.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dom.ResultRecord(nil), m.recs...), nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}
