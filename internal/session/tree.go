package session

import (
	"aspd/internal/asp"

	"github.com/pkg/errors"
)

type key interface {
	~uint32 | ~uint64
}

// KeyReader is a key space that can be walked from a root key.
type KeyReader[K key, V any] interface {
	Kind(k K) (NodeType, error)
	Value(k K) (V, error)
	ArraySize(k K) (K, error)
	ArrayAt(k, offset K) (K, error)
	MapSize(k K) (K, error)
	MapSubkeyName(k, offset K) (string, error)
	MapAt(k K, name string) (K, error)
}

// KeyWriter is a key space whose leaves can be updated.
type KeyWriter[K key, V any] interface {
	KeyReader[K, V]
	SetValue(k K, v V) error
}

// ReadTree copies the subtree below k.
func ReadTree[K key, V any](src KeyReader[K, V], k K) (Tree[V], error) {
	kind, err := src.Kind(k)
	if err != nil {
		return Tree[V]{}, err
	}
	switch kind {
	case NodeValue:
		v, err := src.Value(k)
		if err != nil {
			return Tree[V]{}, err
		}
		return Leaf(v), nil
	case NodeArray:
		n, err := src.ArraySize(k)
		if err != nil {
			return Tree[V]{}, err
		}
		tree := Tree[V]{Type: NodeArray, Items: make([]Tree[V], 0, n)}
		for i := K(0); i < n; i++ {
			sub, err := src.ArrayAt(k, i)
			if err != nil {
				return Tree[V]{}, err
			}
			item, err := ReadTree(src, sub)
			if err != nil {
				return Tree[V]{}, err
			}
			tree.Items = append(tree.Items, item)
		}
		return tree, nil
	case NodeMap:
		n, err := src.MapSize(k)
		if err != nil {
			return Tree[V]{}, err
		}
		tree := Tree[V]{Type: NodeMap, Entries: make([]Entry[V], 0, n)}
		for i := K(0); i < n; i++ {
			name, err := src.MapSubkeyName(k, i)
			if err != nil {
				return Tree[V]{}, err
			}
			sub, err := src.MapAt(k, name)
			if err != nil {
				return Tree[V]{}, err
			}
			item, err := ReadTree(src, sub)
			if err != nil {
				return Tree[V]{}, err
			}
			tree.Entries = append(tree.Entries, Entry[V]{Name: name, Tree: item})
		}
		return tree, nil
	}
	return Tree[V]{}, nil
}

// WriteTree stores tree below k. Every leaf of tree must exist in dst.
func WriteTree[K key, V any](dst KeyWriter[K, V], k K, tree Tree[V]) error {
	switch tree.Type {
	case NodeValue:
		return dst.SetValue(k, tree.Value)
	case NodeArray:
		n, err := dst.ArraySize(k)
		if err != nil {
			return err
		}
		if uint64(len(tree.Items)) > uint64(n) {
			return errors.Errorf("array holds %d entries, got %d", n, len(tree.Items))
		}
		for i, item := range tree.Items {
			sub, err := dst.ArrayAt(k, K(i))
			if err != nil {
				return err
			}
			if err := WriteTree(dst, sub, item); err != nil {
				return err
			}
		}
		return nil
	case NodeMap:
		for _, e := range tree.Entries {
			sub, err := dst.MapAt(k, e.Name)
			if err != nil {
				return err
			}
			if err := WriteTree(dst, sub, e.Tree); err != nil {
				return errors.Wrap(err, e.Name)
			}
		}
		return nil
	}
	return errors.New("cannot write an empty tree")
}

type statistics struct {
	*asp.Statistics
}

func (s statistics) Kind(k uint64) (NodeType, error) {
	t, err := s.Type(k)
	if err != nil {
		return NodeEmpty, err
	}
	switch t {
	case asp.StatisticsValue:
		return NodeValue, nil
	case asp.StatisticsArray:
		return NodeArray, nil
	case asp.StatisticsMap:
		return NodeMap, nil
	}
	return NodeEmpty, nil
}

type configuration struct {
	*asp.Configuration
}

// Kind prefers values over arrays over maps for entries carrying several
// flags.
func (c configuration) Kind(k uint32) (NodeType, error) {
	t, err := c.Type(k)
	if err != nil {
		return NodeEmpty, err
	}
	switch {
	case t&asp.ConfigurationValue != 0:
		return NodeValue, nil
	case t&asp.ConfigurationArray != 0:
		return NodeArray, nil
	case t&asp.ConfigurationMap != 0:
		return NodeMap, nil
	}
	return NodeEmpty, nil
}

func readStatistics(s *asp.Statistics) (StatisticsTree, error) {
	return ReadTree[uint64, float64](statistics{s}, s.Root())
}

func readConfiguration(c *asp.Configuration) (ConfigurationTree, error) {
	return ReadTree[uint32, string](configuration{c}, c.Root())
}

func writeConfiguration(c *asp.Configuration, tree ConfigurationTree) error {
	return WriteTree[uint32, string](configuration{c}, c.Root(), tree)
}
