// Package pseudonymizer — ledger.go
//
// ledgerStore is an optional, opt-in audit trail: token -> (entity type,
// normalized original value, document-key fingerprint). It exists so an
// authorized operator can look up what a pseudonym stood for after the
// fact; the deterministic HMAC pseudonymization itself never depends on
// it, and it never feeds back into detection or masking output, so it
// does not affect document processing determinism.
//
// Adapted from the teacher's internal/anonymizer/cache.go (bbolt-backed
// key-value store) and internal/anonymizer/s3fifo_cache.go (S3-FIFO
// eviction layer), repointed from "Ollama response cache" to "pseudonym
// ledger". See DESIGN.md and SPEC_FULL.md §11.
package pseudonymizer

import (
	"container/list"
	"encoding/json"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"

	"ai-anonymizing-proxy/internal/span"
)

// ledgerBucket is the bbolt bucket name holding ledger entries.
const ledgerBucket = "pseudonym_ledger"

// ledgerEntry is the JSON-encoded value stored per token.
type ledgerEntry struct {
	EntityType    span.Type `json:"entityType"`
	Normalized    string    `json:"normalizedValue"`
	DocKeyHash    string    `json:"docKeyHash"`
}

// ledgerStore persists pseudonym -> ledgerEntry mappings, bounded by an
// S3-FIFO in-memory eviction layer in front of a bbolt file.
type ledgerStore struct {
	mu sync.Mutex

	db       *bolt.DB
	capacity int
	sTarget  int

	entries map[string]*ledgerListEntry
	sQueue  *list.List
	mQueue  *list.List

	ghostBuf   []string
	ghostSet   map[string]struct{}
	ghostHead  int
	ghostCount int
	ghostCap   int
}

type ledgerListEntry struct {
	value ledgerEntry
	freq  uint8
	elem  *list.Element
	inM   bool
}

// EnableLedger opens (or creates) a bbolt-backed pseudonym ledger at path,
// bounded to capacity entries in memory (and, transitively, on disk —
// evicted entries are deleted from bbolt). Returns an error if the file
// cannot be opened; the pseudonymizer remains fully functional without a
// ledger if this is never called.
func (p *Pseudonymizer) EnableLedger(path string, capacity int) error {
	if capacity < 2 {
		capacity = 2
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("open pseudonym ledger %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ledgerBucket))
		return err
	}); err != nil {
		db.Close() //nolint:errcheck // best-effort close on init failure
		return fmt.Errorf("create pseudonym ledger bucket: %w", err)
	}

	sTarget := capacity / 10
	if sTarget < 1 {
		sTarget = 1
	}
	ghostCap := 2 * sTarget
	if ghostCap < 4 {
		ghostCap = 4
	}

	p.mu.Lock()
	p.ledger = &ledgerStore{
		db:       db,
		capacity: capacity,
		sTarget:  sTarget,
		entries:  make(map[string]*ledgerListEntry, capacity),
		sQueue:   list.New(),
		mQueue:   list.New(),
		ghostBuf: make([]string, ghostCap),
		ghostSet: make(map[string]struct{}, ghostCap),
		ghostCap: ghostCap,
	}
	p.mu.Unlock()
	return nil
}

// CloseLedger releases the ledger's bbolt handle. A no-op if no ledger was
// enabled.
func (p *Pseudonymizer) CloseLedger() error {
	p.mu.Lock()
	l := p.ledger
	p.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// LookupPseudonym returns the ledger entry recorded for token, if a ledger
// is enabled and the token was recorded (and not evicted).
func (p *Pseudonymizer) LookupPseudonym(token string) (entityType span.Type, normalizedValue, docKeyHash string, ok bool) {
	p.mu.Lock()
	l := p.ledger
	p.mu.Unlock()
	if l == nil {
		return "", "", "", false
	}
	e, found := l.get(token)
	if !found {
		return "", "", "", false
	}
	return e.EntityType, e.Normalized, e.DocKeyHash, true
}

// record stores token -> entry in the ledger, if one is enabled.
func (p *Pseudonymizer) record(token string, entityType span.Type, normalized, docKeyHash string) {
	p.mu.Lock()
	l := p.ledger
	p.mu.Unlock()
	if l == nil {
		return
	}
	l.set(token, ledgerEntry{EntityType: entityType, Normalized: normalized, DocKeyHash: docKeyHash})
}

func (l *ledgerStore) get(token string) (ledgerEntry, bool) {
	l.mu.Lock()
	if e, ok := l.entries[token]; ok {
		if e.freq < 3 {
			e.freq++
		}
		v := e.value
		l.mu.Unlock()
		return v, true
	}
	l.mu.Unlock()

	var out ledgerEntry
	found := false
	_ = l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(token))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &out); err == nil {
			found = true
		}
		return nil
	})
	if !found {
		return ledgerEntry{}, false
	}
	l.insertLocked(token, out)
	return out, true
}

func (l *ledgerStore) set(token string, entry ledgerEntry) {
	l.insertLocked(token, entry)
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", ledgerBucket)
		}
		return b.Put([]byte(token), data)
	})
}

// insertLocked performs the in-memory S3-FIFO insert/update. See the
// teacher's s3fifo_cache.go for the full algorithm description — this is
// the same policy applied to ledger entries instead of cache tokens.
func (l *ledgerStore) insertLocked(key string, value ledgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		e.value = value
		return
	}

	inM := l.ghostContains(key)
	var elem *list.Element
	if inM {
		elem = l.mQueue.PushBack(key)
	} else {
		elem = l.sQueue.PushBack(key)
	}
	l.entries[key] = &ledgerListEntry{value: value, freq: 0, elem: elem, inM: inM}

	for l.sQueue.Len()+l.mQueue.Len() > l.capacity {
		l.evictOne()
	}
}

func (l *ledgerStore) evictOne() {
	if l.sQueue.Len() > 0 {
		l.evictFromS()
		return
	}
	l.evictFromM()
}

func (l *ledgerStore) evictFromS() {
	front := l.sQueue.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	l.sQueue.Remove(front)

	e, ok := l.entries[key]
	if !ok {
		return
	}
	if e.freq > 0 {
		e.freq = 0
		e.inM = true
		e.elem = l.mQueue.PushBack(key)
		mTarget := l.capacity - l.sTarget
		if l.mQueue.Len() > mTarget {
			l.evictFromM()
		}
	} else {
		delete(l.entries, key)
		l.ghostAdd(key)
		go l.deleteFromDisk(key)
	}
}

func (l *ledgerStore) evictFromM() {
	front := l.mQueue.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	l.mQueue.Remove(front)
	delete(l.entries, key)
	go l.deleteFromDisk(key)
}

func (l *ledgerStore) deleteFromDisk(key string) {
	_ = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (l *ledgerStore) ghostContains(key string) bool {
	_, ok := l.ghostSet[key]
	return ok
}

func (l *ledgerStore) ghostAdd(key string) {
	if _, exists := l.ghostSet[key]; exists {
		return
	}
	if l.ghostCount == l.ghostCap {
		oldest := l.ghostBuf[l.ghostHead]
		delete(l.ghostSet, oldest)
		l.ghostHead = (l.ghostHead + 1) % l.ghostCap
		l.ghostCount--
	}
	writeIdx := (l.ghostHead + l.ghostCount) % l.ghostCap
	l.ghostBuf[writeIdx] = key
	l.ghostSet[key] = struct{}{}
	l.ghostCount++
}
