package token

import "testing"

func TestCursorPeekPopAdvancesAndStopsAtEOF(t *testing.T) {
	c := NewCursor([]Token{
		{Kind: Identifier, Literal: "a"},
		{Kind: Identifier, Literal: "b"},
	})
	if got := c.Peek(0).Literal; got != "a" {
		t.Fatalf("Peek(0) = %q, want a", got)
	}
	if got := c.Peek(1).Literal; got != "b" {
		t.Fatalf("Peek(1) = %q, want b", got)
	}
	if c.Done() {
		t.Fatalf("Done() = true before consuming any tokens")
	}
	if got := c.Pop().Literal; got != "a" {
		t.Fatalf("Pop() = %q, want a", got)
	}
	if got := c.Pop().Literal; got != "b" {
		t.Fatalf("Pop() = %q, want b", got)
	}
	if !c.Done() {
		t.Fatalf("Done() = false after consuming every token")
	}
	if c.Pop().Kind != EOF {
		t.Errorf("popping past the end should keep returning EOF")
	}
}

func TestNewCursorAppendsMissingEOF(t *testing.T) {
	c := NewCursor([]Token{{Kind: Identifier, Literal: "a"}})
	c.Pop()
	if c.Peek(0).Kind != EOF {
		t.Fatalf("expected an EOF token to be synthesized, got %v", c.Peek(0).Kind)
	}
}

func TestSliceExtractsBalancedRangeAndConsumesCloser(t *testing.T) {
	toks := []Token{
		{Kind: Keyword, Literal: "{"},
		{Kind: Identifier, Literal: "x"},
		{Kind: Keyword, Literal: "}"},
		{Kind: Keyword, Literal: ";"},
	}
	c := NewCursor(toks[1:]) // caller already consumed the opening "{"
	body := Slice(c, "{", "}")
	if len(body) != 1 || body[0].Literal != "x" {
		t.Fatalf("Slice body = %+v, want [x]", body)
	}
	if c.Peek(0).Literal != ";" {
		t.Fatalf("Slice should consume the closing brace, next token = %q", c.Peek(0).Literal)
	}
}

func TestSliceTracksNestedDelimiterDepth(t *testing.T) {
	toks := []Token{
		{Kind: Identifier, Literal: "a"},
		{Kind: Keyword, Literal: "{"},
		{Kind: Identifier, Literal: "b"},
		{Kind: Keyword, Literal: "}"},
		{Kind: Identifier, Literal: "c"},
		{Kind: Keyword, Literal: "}"},
	}
	c := NewCursor(toks)
	body := Slice(c, "{", "}")
	if len(body) != 5 {
		t.Fatalf("expected the inner {}  pair to be included in the sliced body, got %+v", body)
	}
	if !c.Done() {
		t.Fatalf("expected the outer closing brace to be consumed, leaving the stream exhausted")
	}
}

func TestTokenIsMatchesOnlyKeywordKind(t *testing.T) {
	kw := Token{Kind: Keyword, Literal: "if"}
	ident := Token{Kind: Identifier, Literal: "if"}
	if !kw.Is("if") {
		t.Errorf("expected a Keyword token with matching literal to match Is")
	}
	if ident.Is("if") {
		t.Errorf("an Identifier token should never match Is, even with the same literal")
	}
}

func TestPosStringFormatsFileLineColumn(t *testing.T) {
	p := Pos{File: "a.script", Line: 3, Column: 7}
	if got, want := p.String(), "a.script:3:7"; got != want {
		t.Errorf("Pos.String() = %q, want %q", got, want)
	}
}
