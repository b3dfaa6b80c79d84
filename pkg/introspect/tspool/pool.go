// Package tspool provides tree-sitter PHP parsers for concurrent parsing.
//
// Parsers are not pooled. A parser whose ParseCtx was cancelled keeps its
// internal cancel flag set and fails later parses with "operation limit was
// hit", so every parse gets a fresh parser.
//
// Thread-safety: Parsers returned by Get are NOT safe for concurrent use.
// Each goroutine must Get its own parser or use the Parse helper.
package tspool

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

var (
	phpLang  *sitter.Language
	langOnce sync.Once
)

// Language returns the tree-sitter PHP language.
func Language() *sitter.Language {
	langOnce.Do(func() {
		phpLang = php.GetLanguage()
	})
	return phpLang
}

// Get returns a PHP parser.
// Caller MUST call parser.Close() when done to free resources.
func Get() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(Language())
	return parser
}

// Parse parses PHP source using a fresh parser.
// Caller MUST call tree.Close() to free resources.
func Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := Get()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse php failed: %w", err)
	}

	return tree, nil
}
