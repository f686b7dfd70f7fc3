package frontend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"

	"idiomlint/internal/ast"
	"idiomlint/internal/source"
)

// Unit is one translation unit ready for analysis. A unit with Err set
// carries no tree and is reported with a single ParseError.
type Unit struct {
	File source.FileID
	Tree *ast.Builder
	Root ast.FileID
	Err  *ParseError
}

// Input is a decoded interchange file before it is registered in a FileSet.
// Reading and decoding touch no shared state and may run concurrently.
type Input struct {
	Origin string
	Raw    []byte
	Doc    *Document
	Err    error
}

// Read loads and decodes the interchange file at path.
func Read(path string) Input {
	in := Input{Origin: path}
	enc, ok := EncodingForPath(path)
	if !ok {
		in.Err = fmt.Errorf("%w: %s", ErrEncoding, filepath.Ext(path))
		return in
	}
	// #nosec G304 -- path comes from the command line
	raw, err := os.ReadFile(path)
	if err != nil {
		in.Err = err
		return in
	}
	in.Raw = raw
	in.Doc, in.Err = Decode(raw, enc)
	return in
}

// Materialize registers the unit's source text in fs and converts the tree.
// It must not run concurrently with other FileSet writers.
func Materialize(fs *source.FileSet, in Input) *Unit {
	if in.Err != nil || in.Doc == nil {
		msg := "empty interchange document"
		if in.Err != nil {
			msg = in.Err.Error()
		}
		id := fs.Add(sourcePath(in.Origin, ""), nil, source.FileNoText)
		return &Unit{File: id, Err: &ParseError{Path: in.Origin, Message: msg, Span: source.At(id, 0)}}
	}
	doc := in.Doc
	path := sourcePath(in.Origin, doc.Path)
	content, flags := sourceText(in.Origin, doc)
	id := fs.Add(path, content, flags)
	size, err := safecast.Conv[uint32](len(content))
	if err != nil {
		panic(fmt.Errorf("source size overflow: %w", err))
	}
	if doc.Error != nil {
		off := doc.Error.Offset
		if flags&source.FileNoText == 0 && off > size {
			off = size
		}
		return &Unit{File: id, Err: &ParseError{Path: path, Message: doc.Error.Message, Span: source.At(id, off)}}
	}
	b := ast.NewBuilder(ast.Hints{}, source.NewInterner())
	c := &converter{b: b, file: id, limit: size, text: flags&source.FileNoText == 0}
	root, perr := c.build(doc)
	if perr != nil {
		perr.Path = path
		return &Unit{File: id, Err: perr}
	}
	return &Unit{File: id, Tree: b, Root: root}
}

// Load reads and materializes one file.
func Load(fs *source.FileSet, path string) *Unit {
	return Materialize(fs, Read(path))
}

func sourcePath(origin, declared string) string {
	if declared != "" {
		return declared
	}
	for _, ext := range []string{".json", ".msgpack", ".mpk"} {
		if strings.HasSuffix(strings.ToLower(origin), ext) {
			return origin[:len(origin)-len(ext)]
		}
	}
	return origin
}

// sourceText prefers the embedded source, then the file named by the
// document relative to the interchange file. Offsets refer to the front
// end's bytes, so the text is kept exactly as read.
func sourceText(origin string, doc *Document) ([]byte, source.FileFlags) {
	if doc.Source != nil {
		return []byte(*doc.Source), 0
	}
	if doc.Path == "" {
		return nil, source.FileNoText
	}
	p := doc.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(origin), p)
	}
	// #nosec G304 -- the path is named by the interchange document
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, source.FileNoText
	}
	return content, 0
}
