// Package astbank owns parse trees keyed by file path, plus an ordered bag
// of anonymous trees produced for synthetic sources (macro-argument
// reparses, seeded fragments). Grounded in original_source/src/ASTBank.hpp.
package astbank

import (
	"fmt"
	"os"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/hayroll-dev/hayroll/internal/parser"
)

// Bank owns every syntax tree parsed for a pipeline run. Trees stay alive
// (and any node pointers handed out from them stay valid) for the life of
// the Bank; call Close to release the underlying tree-sitter parser state.
type Bank struct {
	mu sync.RWMutex

	parser *parser.Parser

	byPath    map[string]*tree_sitter.Tree
	srcByPath map[string][]byte

	anonymous    []*tree_sitter.Tree
	anonymousSrc [][]byte
}

// New creates an empty Bank backed by a fresh C/C++ parser.
func New() (*Bank, error) {
	p, err := parser.New()
	if err != nil {
		return nil, fmt.Errorf("astbank: %w", err)
	}
	return &Bank{
		parser:    p,
		byPath:    make(map[string]*tree_sitter.Tree),
		srcByPath: make(map[string][]byte),
	}, nil
}

// Close releases the Bank's parser and every tree it produced.
func (b *Bank) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.byPath {
		t.Close()
	}
	for _, t := range b.anonymous {
		t.Close()
	}
	b.parser.Close()
}

// AddFile reads and parses path, storing the resulting tree under it. A
// second call for the same path replaces the previous tree.
func (b *Bank) AddFile(path string) (*tree_sitter.Tree, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("astbank: read %s: %w", path, err)
	}
	return b.AddFileWithSource(path, src)
}

// AddFileWithSource stores tree+src for path without touching the
// filesystem, used when the source came from a macro expansion pass rather
// than disk.
func (b *Bank) AddFileWithSource(path string, src []byte) (*tree_sitter.Tree, []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tree := b.parser.Parse(src)
	if tree == nil {
		return nil, nil, fmt.Errorf("astbank: failed to parse %s", path)
	}
	if old, ok := b.byPath[path]; ok {
		old.Close()
	}
	b.byPath[path] = tree
	b.srcByPath[path] = src
	return tree, src, nil
}

// AddAnonymousSource parses src without associating it with a path,
// appending it to the anonymous bag. Used for reparsing macro-expanded
// argument text and seeded fragments.
func (b *Bank) AddAnonymousSource(src []byte) *tree_sitter.Tree {
	b.mu.Lock()
	defer b.mu.Unlock()

	tree := b.parser.Parse(src)
	b.anonymous = append(b.anonymous, tree)
	b.anonymousSrc = append(b.anonymousSrc, src)
	return tree
}

// Find returns the tree and source stored for path, if any.
func (b *Bank) Find(path string) (*tree_sitter.Tree, []byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tree, ok := b.byPath[path]
	if !ok {
		return nil, nil, false
	}
	return tree, b.srcByPath[path], true
}

// Paths returns every file path currently held in the bank.
func (b *Bank) Paths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.byPath))
	for p := range b.byPath {
		out = append(out, p)
	}
	return out
}
