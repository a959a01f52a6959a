package session

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type ModelStatus int

const (
	ModelRunning ModelStatus = iota
	ModelFound
	ModelDone
)

// ModelResult is the outcome of one poll for a model.
type ModelResult struct {
	Status  ModelStatus
	Payload []byte
}

func (r ModelResult) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case ModelRunning:
		return []byte(`"Running"`), nil
	case ModelDone:
		return []byte(`"Done"`), nil
	}
	var buf bytes.Buffer
	buf.WriteString(`{"Model":[`)
	for i, b := range r.Payload {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(b)))
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

func (r *ModelResult) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case "Running":
			*r = ModelResult{Status: ModelRunning}
			return nil
		case "Done":
			*r = ModelResult{Status: ModelDone}
			return nil
		}
		return errors.Errorf("unknown model result %q", tag)
	}
	var m struct {
		Model []int
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "model result")
	}
	payload := make([]byte, len(m.Model))
	for i, b := range m.Model {
		if b < 0 || b > 255 {
			return errors.Errorf("model byte %d out of range", b)
		}
		payload[i] = byte(b)
	}
	*r = ModelResult{Status: ModelFound, Payload: payload}
	return nil
}

type NodeType int

const (
	NodeEmpty NodeType = iota
	NodeValue
	NodeArray
	NodeMap
)

// Tree is a snapshot of a statistics or configuration key space. Map
// entries keep the order of the key space.
type Tree[V any] struct {
	Type    NodeType
	Value   V
	Items   []Tree[V]
	Entries []Entry[V]
}

type Entry[V any] struct {
	Name string
	Tree Tree[V]
}

type (
	StatisticsTree    = Tree[float64]
	ConfigurationTree = Tree[string]
)

func Leaf[V any](v V) Tree[V] {
	return Tree[V]{Type: NodeValue, Value: v}
}

func Array[V any](items ...Tree[V]) Tree[V] {
	return Tree[V]{Type: NodeArray, Items: items}
}

func Map[V any](entries ...Entry[V]) Tree[V] {
	return Tree[V]{Type: NodeMap, Entries: entries}
}

// Get follows a path of map names.
func (t Tree[V]) Get(names ...string) (Tree[V], bool) {
	cur := t
	for _, name := range names {
		found := false
		for _, e := range cur.Entries {
			if e.Name == name {
				cur, found = e.Tree, true
				break
			}
		}
		if !found {
			return Tree[V]{}, false
		}
	}
	return cur, true
}

func (t Tree[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t Tree[V]) encode(buf *bytes.Buffer) error {
	switch t.Type {
	case NodeEmpty:
		buf.WriteString("null")
	case NodeValue:
		b, err := json.Marshal(t.Value)
		if err != nil {
			return err
		}
		buf.Write(b)
	case NodeArray:
		buf.WriteByte('[')
		for i, item := range t.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case NodeMap:
		buf.WriteByte('{')
		for i, e := range t.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, _ := json.Marshal(e.Name)
			buf.Write(name)
			buf.WriteByte(':')
			if err := e.Tree.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

var errConfigurationData = NewError(TransportError, "Could not parse configuration data")

// ParseConfiguration decodes a configuration tree. Object keys keep their
// order and all leaves must be strings.
func ParseConfiguration(data []byte) (ConfigurationTree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tree, err := decodeTree(dec)
	if err != nil {
		return ConfigurationTree{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return ConfigurationTree{}, errConfigurationData
	}
	return tree, nil
}

func decodeTree(dec *json.Decoder) (ConfigurationTree, error) {
	tok, err := dec.Token()
	if err != nil {
		return ConfigurationTree{}, errConfigurationData
	}
	switch tok := tok.(type) {
	case string:
		return Leaf(tok), nil
	case json.Delim:
		switch tok {
		case '[':
			tree := Array[string]()
			for dec.More() {
				item, err := decodeTree(dec)
				if err != nil {
					return ConfigurationTree{}, err
				}
				tree.Items = append(tree.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return ConfigurationTree{}, errConfigurationData
			}
			return tree, nil
		case '{':
			tree := Map[string]()
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return ConfigurationTree{}, errConfigurationData
				}
				sub, err := decodeTree(dec)
				if err != nil {
					return ConfigurationTree{}, err
				}
				tree.Entries = append(tree.Entries, Entry[string]{Name: key.(string), Tree: sub})
			}
			if _, err := dec.Token(); err != nil {
				return ConfigurationTree{}, errConfigurationData
			}
			return tree, nil
		}
	}
	return ConfigurationTree{}, errConfigurationData
}
