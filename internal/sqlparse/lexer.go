package sqlparse

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies the kind of a lexical token.
type TokenType int

const (
	TokenWord    TokenType = iota // bare identifier, keyword or number
	TokenQuoted                   // "double quoted" identifier, unquoted
	TokenString                   // 'single quoted' or q'[alternative]' literal
	TokenComma
	TokenDot
	TokenAt
	TokenLParen
	TokenRParen
	TokenSemicolon
	TokenOther
)

// Token is one lexical unit. Depth is the parenthesis nesting level the token
// sits at; both parentheses of a group carry the outer level.
type Token struct {
	Type    TokenType
	Literal string
	Depth   int
}

// Upper returns the literal uppercased, used for keyword matching.
func (t Token) Upper() string {
	return strings.ToUpper(t.Literal)
}

// IsKeyword reports whether t is the bare word kw (case-insensitive).
func (t Token) IsKeyword(kw string) bool {
	return t.Type == TokenWord && strings.EqualFold(t.Literal, kw)
}

// Lexer splits Oracle SQL into tokens, dropping whitespace and comments.
// It reads UTF-8 runes and never fails: unterminated strings and comments run
// to end of input.
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      rune
	depth   int
}

// NewLexer creates a Lexer over input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	l.pos = l.readPos
	if l.readPos >= len(l.input) {
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.readPos += size
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// Tokenize returns every token of the input.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok, ok := l.NextToken()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

// NextToken returns the next token, or false at end of input.
func (l *Lexer) NextToken() (Token, bool) {
	l.skipWhitespaceAndComments()
	if l.atEOF() {
		return Token{}, false
	}

	tok := Token{Depth: l.depth}
	switch l.ch {
	case ',':
		tok.Type, tok.Literal = TokenComma, ","
	case '.':
		tok.Type, tok.Literal = TokenDot, "."
	case '@':
		tok.Type, tok.Literal = TokenAt, "@"
	case ';':
		tok.Type, tok.Literal = TokenSemicolon, ";"
	case '(':
		tok.Type, tok.Literal = TokenLParen, "("
		l.depth++
	case ')':
		if l.depth > 0 {
			l.depth--
		}
		tok.Type, tok.Literal, tok.Depth = TokenRParen, ")", l.depth
	case '\'':
		tok.Type, tok.Literal = TokenString, l.readQuoted('\'')
		return tok, true
	case '"':
		tok.Type, tok.Literal = TokenQuoted, l.readQuoted('"')
		return tok, true
	default:
		if (l.ch == 'q' || l.ch == 'Q') && l.peekChar() == '\'' {
			tok.Type, tok.Literal = TokenString, l.readAltQuoted()
			return tok, true
		}
		if isWordChar(l.ch) {
			tok.Type, tok.Literal = TokenWord, l.readWord()
			return tok, true
		}
		tok.Type, tok.Literal = TokenOther, string(l.ch)
	}
	l.readChar()
	return tok, true
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !l.atEOF() && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if !l.atEOF() {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

// readQuoted consumes a quoted run; a doubled quote is an escaped quote.
func (l *Lexer) readQuoted(quote rune) string {
	var b strings.Builder
	l.readChar() // opening quote
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				b.WriteRune(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // closing quote
			break
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	return b.String()
}

// readAltQuoted consumes q'<d>...<d>'. Bracket delimiters close with their
// pair; any other delimiter closes with itself.
func (l *Lexer) readAltQuoted() string {
	l.readChar() // q
	l.readChar() // opening quote
	if l.atEOF() {
		return ""
	}
	closer := l.ch
	switch l.ch {
	case '[':
		closer = ']'
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	case '<':
		closer = '>'
	}
	l.readChar()

	var b strings.Builder
	for !l.atEOF() {
		if l.ch == closer && l.peekChar() == '\'' {
			l.readChar()
			l.readChar()
			break
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	return b.String()
}

func (l *Lexer) readWord() string {
	start := l.pos
	for !l.atEOF() && isWordChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// isWordChar accepts Oracle identifier characters: letters, digits and
// _ $ #, in any script.
func isWordChar(ch rune) bool {
	return ch == '_' || ch == '$' || ch == '#' ||
		unicode.IsLetter(ch) || unicode.IsDigit(ch) || unicode.IsMark(ch)
}
