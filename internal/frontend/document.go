// Package frontend decodes syntax trees produced by the external C++ front
// end. A document is one translation unit serialized as JSON or msgpack;
// decoding fills a fresh ast.Builder.
package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion identifies the interchange schema understood here.
const FormatVersion = "idiomlint-ast/1"

var (
	ErrFormat   = errors.New("unsupported interchange format")
	ErrEncoding = errors.New("unknown interchange encoding")
)

type Encoding uint8

const (
	EncodingJSON Encoding = iota + 1
	EncodingMsgpack
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingMsgpack:
		return "msgpack"
	}
	return "unknown"
}

// EncodingForPath picks the decoder from the file extension.
func EncodingForPath(path string) (Encoding, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return EncodingJSON, true
	case ".msgpack", ".mpk":
		return EncodingMsgpack, true
	}
	return 0, false
}

// Document is the top-level interchange object.
type Document struct {
	Format string     `json:"format"`
	Path   string     `json:"path"`
	Source *string    `json:"source,omitempty"`
	Error  *ErrorInfo `json:"error,omitempty"`
	Decls  []Node     `json:"decls"`
}

// ErrorInfo is the front end's own parse failure.
type ErrorInfo struct {
	Message string `json:"message"`
	Offset  uint32 `json:"offset"`
}

// Node is one serialized syntax node. Which role fields are meaningful
// depends on Kind; the rest stay empty.
type Node struct {
	Kind      string   `json:"kind"`
	Span      []uint32 `json:"span"`
	NameSpan  []uint32 `json:"name_span,omitempty"`
	Name      string   `json:"name,omitempty"`
	Op        string   `json:"op,omitempty"`
	Value     string   `json:"value,omitempty"`
	Type      string   `json:"type,omitempty"`
	Qualifier string   `json:"qualifier,omitempty"`
	Flags     []string `json:"flags,omitempty"`
	Bases     []string `json:"bases,omitempty"`

	Cond    *Node `json:"cond,omitempty"`
	Then    *Node `json:"then,omitempty"`
	Else    *Node `json:"else,omitempty"`
	Init    *Node `json:"init,omitempty"`
	Post    *Node `json:"post,omitempty"`
	Body    *Node `json:"body,omitempty"`
	Range   *Node `json:"range,omitempty"`
	Lhs     *Node `json:"lhs,omitempty"`
	Rhs     *Node `json:"rhs,omitempty"`
	Operand *Node `json:"operand,omitempty"`
	Callee  *Node `json:"callee,omitempty"`

	Args    []Node `json:"args,omitempty"`
	Stmts   []Node `json:"stmts,omitempty"`
	Params  []Node `json:"params,omitempty"`
	Members []Node `json:"members,omitempty"`
	Inits   []Node `json:"inits,omitempty"`
	Decls   []Node `json:"decls,omitempty"`
}

func (n *Node) hasFlag(flag string) bool {
	for _, f := range n.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Decode parses a document in the given encoding and checks its format tag.
func Decode(data []byte, enc Encoding) (*Document, error) {
	var doc Document
	switch enc {
	case EncodingJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case EncodingMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		dec.DisallowUnknownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrEncoding, enc)
	}
	if doc.Format != FormatVersion {
		return nil, fmt.Errorf("%w: %q", ErrFormat, doc.Format)
	}
	return &doc, nil
}

// Encode serializes a document; the front end's tests and the cache use it.
func Encode(doc *Document, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingJSON:
		return json.Marshal(doc)
	case EncodingMsgpack:
		var buf bytes.Buffer
		e := msgpack.NewEncoder(&buf)
		e.SetCustomStructTag("json")
		e.SetOmitEmpty(true)
		if err := e.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrEncoding, enc)
}
