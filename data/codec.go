package data

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Envelope is the tagged wire form of an IndexStruct.
type Envelope struct {
	Type Type            `json:"type"`
	Body json.RawMessage `json:"body"`
}

var (
	registryMu sync.RWMutex
	creators   = map[Type]func() IndexStruct{
		TypeList:         func() IndexStruct { return &List{} },
		TypeTree:         func() IndexStruct { return &Tree{} },
		TypeKeywordTable: func() IndexStruct { return &KeywordTable{} },
		TypeDict:         func() IndexStruct { return &Dict{} },
		TypeVectorStore:  func() IndexStruct { return &VectorStore{} },
	}
)

// RegisterType makes a struct type decodable under tag. Registering an existing tag
// with a different constructor is an error.
func RegisterType(tag Type, create func() IndexStruct) error {
	if tag == "" || create == nil {
		return fmt.Errorf("%w: empty registration", ErrInvalidStruct)
	}
	if got := create().Type(); got != tag {
		return fmt.Errorf("%w: constructor for %s builds %s", ErrInvalidStruct, tag, got)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := creators[tag]; ok {
		return fmt.Errorf("type %s already registered", tag)
	}
	creators[tag] = create
	return nil
}

// RegisteredTypes returns every decodable tag, sorted.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tags := make([]Type, 0, len(creators))
	for t := range creators {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// New creates an empty struct of the given type.
func New(tag Type) (IndexStruct, error) {
	registryMu.RLock()
	create, ok := creators[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return create(), nil
}

// Encode wraps s in its envelope.
func Encode(s IndexStruct) (Envelope, error) {
	if err := s.Validate(); err != nil {
		return Envelope{}, err
	}
	body, err := json.Marshal(s)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s %s: %w", s.Type(), s.IndexID(), err)
	}
	return Envelope{Type: s.Type(), Body: body}, nil
}

// Decode rebuilds a struct from its envelope. Unknown fields are rejected and the
// result is validated.
func Decode(env Envelope) (IndexStruct, error) {
	s, err := New(env.Type)
	if err != nil {
		return nil, err
	}
	if err := decodeStrict(env.Body, s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
