package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/hyperview/internal/graph"
)

// Key prefixes for different data types. Every segment is NUL separated so
// that one node ID can never be a key prefix of another.
const (
	prefixNode      = "n\x00" // node data
	prefixOrder     = "o\x00" // enumeration order: seq -> node ID
	prefixAdjacency = "a\x00" // adjacency: id \x00 seq -> neighbor ID
	prefixRel       = "r\x00" // relation records by seq
	prefixEmbedding = "e\x00" // entity embeddings by seq
)

// BadgerBackend is a BadgerDB-backed snapshot store.
type BadgerBackend struct {
	db                *badger.DB
	initialized       bool
	mu                sync.RWMutex
	nodeCount         int
	relationshipCount int
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR)

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	return b.recount()
}

// recount refreshes the cached counters from the database.
func (b *BadgerBackend) recount() error {
	return b.db.View(func(txn *badger.Txn) error {
		b.nodeCount = countPrefix(txn, prefixOrder)
		b.relationshipCount = countPrefix(txn, prefixRel)
		return nil
	})
}

func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	count := 0
	for it.Rewind(); it.Valid(); it.Next() {
		count++
	}
	return count
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// BulkLoad replaces the entire store with the contents of the graph.
// Embeddings are dropped along with the old snapshot. A context that is
// already done leaves the old snapshot untouched; a failure once the old
// snapshot is dropped leaves the store empty.
func (b *BadgerBackend) BulkLoad(ctx context.Context, g *graph.KnowledgeGraph) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("dropping previous snapshot: %w", err)
	}
	b.nodeCount = 0
	b.relationshipCount = 0

	nodes, rels, err := b.writeGraph(ctx, g)
	if err != nil {
		return err
	}
	b.nodeCount = nodes
	b.relationshipCount = rels
	return nil
}

// writeGraph writes g into an empty store and returns the node and relation
// record counts it flushed.
func (b *BadgerBackend) writeGraph(ctx context.Context, g *graph.KnowledgeGraph) (int, int, error) {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for seq, node := range g.Nodes() {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		data, err := json.Marshal(node)
		if err != nil {
			return 0, 0, fmt.Errorf("marshaling node: %w", err)
		}
		if err := wb.Set(nodeKey(node.ID), data); err != nil {
			return 0, 0, fmt.Errorf("setting node: %w", err)
		}
		if err := wb.Set(seqKey(prefixOrder, uint64(seq)), []byte(node.ID)); err != nil {
			return 0, 0, fmt.Errorf("setting node order: %w", err)
		}
		for i, neighbor := range g.Neighbors(node.ID) {
			if err := wb.Set(adjacencyKey(node.ID, uint64(i)), []byte(neighbor)); err != nil {
				return 0, 0, fmt.Errorf("setting adjacency: %w", err)
			}
		}
	}

	for seq, rel := range g.Relationships() {
		data, err := json.Marshal(rel)
		if err != nil {
			return 0, 0, fmt.Errorf("marshaling relationship: %w", err)
		}
		if err := wb.Set(seqKey(prefixRel, uint64(seq)), data); err != nil {
			return 0, 0, fmt.Errorf("setting relationship: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return 0, 0, fmt.Errorf("flushing snapshot: %w", err)
	}
	return len(g.Nodes()), len(g.Relationships()), nil
}

// ready must be called with the lock held.
func (b *BadgerBackend) ready() error {
	if b.db == nil {
		return fmt.Errorf("badger backend not initialized")
	}
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (b *BadgerBackend) HasNode(ctx context.Context, nodeID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return false, err
	}

	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(nodeKey(nodeID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking node: %w", err)
	}
	return found, nil
}

// GetNode returns a single node by ID, or nil if not found.
func (b *BadgerBackend) GetNode(ctx context.Context, nodeID string) (*graph.GraphNode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	var node *graph.GraphNode
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		node, err = getNode(txn, nodeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// getNode must be called inside a read transaction.
func getNode(txn *badger.Txn, nodeID string) (*graph.GraphNode, error) {
	item, err := txn.Get(nodeKey(nodeID))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}

	var node graph.GraphNode
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &node)
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling node: %w", err)
	}
	return &node, nil
}

// Neighbors returns the IDs adjacent to nodeID in the order they were written.
func (b *BadgerBackend) Neighbors(ctx context.Context, nodeID string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	var neighbors []string
	err := b.db.View(func(txn *badger.Txn) error {
		return scanValues(txn, adjacencyPrefix(nodeID), func(val []byte) error {
			neighbors = append(neighbors, string(val))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading adjacency: %w", err)
	}
	return neighbors, nil
}

// Nodes returns every node in the order the snapshot was loaded.
func (b *BadgerBackend) Nodes(ctx context.Context) ([]*graph.GraphNode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	nodes := make([]*graph.GraphNode, 0, b.nodeCount)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanValues(txn, []byte(prefixOrder), func(val []byte) error {
			node, err := getNode(txn, string(val))
			if err != nil {
				return err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	return nodes, nil
}

// Relationships returns every relation record in the order it was loaded.
func (b *BadgerBackend) Relationships(ctx context.Context) ([]*graph.GraphRelationship, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	rels := make([]*graph.GraphRelationship, 0, b.relationshipCount)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanValues(txn, []byte(prefixRel), func(val []byte) error {
			var rel graph.GraphRelationship
			if err := json.Unmarshal(val, &rel); err != nil {
				return fmt.Errorf("unmarshaling relationship: %w", err)
			}
			rels = append(rels, &rel)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	return rels, nil
}

// StoreEmbeddings persists entity embeddings. A node that already has an
// embedding keeps its position and gets the new vector; new nodes are
// appended.
func (b *BadgerBackend) StoreEmbeddings(ctx context.Context, embeddings []EntityEmbedding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}

	existing, err := b.loadEmbeddings()
	if err != nil {
		return err
	}
	pos := make(map[string]uint64, len(existing))
	for i, emb := range existing {
		pos[emb.NodeID] = uint64(i)
	}
	next := uint64(len(existing))

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, emb := range embeddings {
		if err := ctx.Err(); err != nil {
			return err
		}
		seq, ok := pos[emb.NodeID]
		if !ok {
			seq = next
			pos[emb.NodeID] = seq
			next++
		}
		data, err := json.Marshal(emb)
		if err != nil {
			return fmt.Errorf("marshaling embedding: %w", err)
		}
		if err := wb.Set(seqKey(prefixEmbedding, seq), data); err != nil {
			return fmt.Errorf("setting embedding: %w", err)
		}
	}

	return wb.Flush()
}

// Embeddings returns all stored embeddings in the order they were first stored.
func (b *BadgerBackend) Embeddings(ctx context.Context) ([]EntityEmbedding, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}
	return b.loadEmbeddings()
}

func (b *BadgerBackend) loadEmbeddings() ([]EntityEmbedding, error) {
	var out []EntityEmbedding
	err := b.db.View(func(txn *badger.Txn) error {
		return scanValues(txn, []byte(prefixEmbedding), func(val []byte) error {
			var emb EntityEmbedding
			if err := json.Unmarshal(val, &emb); err != nil {
				return fmt.Errorf("unmarshaling embedding: %w", err)
			}
			out = append(out, emb)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing embeddings: %w", err)
	}
	return out, nil
}

// NodeCount returns the node count.
func (b *BadgerBackend) NodeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nodeCount
}

// RelationshipCount returns the relation record count.
func (b *BadgerBackend) RelationshipCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.relationshipCount
}

// scanValues calls fn with each value under prefix in key order.
func scanValues(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// nodeKey returns the BadgerDB key for a node.
func nodeKey(nodeID string) []byte {
	return []byte(prefixNode + nodeID)
}

// seqKey appends a big-endian sequence number so keys sort in load order.
func seqKey(prefix string, seq uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], seq)
	return key
}

func adjacencyPrefix(nodeID string) []byte {
	return []byte(prefixAdjacency + nodeID + "\x00")
}

func adjacencyKey(nodeID string, seq uint64) []byte {
	return seqKey(string(adjacencyPrefix(nodeID)), seq)
}
