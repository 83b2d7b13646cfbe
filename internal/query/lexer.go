package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes filter expression text. It holds the current token and the
// offset just past it. Lookahead rescans from that offset without touching
// the lexer, so a peek never needs to be undone.
type Lexer struct {
	text  string
	next  int
	token Token
}

// NewLexer creates a lexer positioned on the first token of text.
func NewLexer(text string) (*Lexer, error) {
	l := &Lexer{text: text}
	if _, err := l.NextToken(); err != nil {
		return nil, err
	}
	return l, nil
}

// CurrentToken returns the token the lexer is positioned on.
func (l *Lexer) CurrentToken() Token {
	return l.token
}

// NextToken advances to the next token, skipping whitespace, and returns it.
func (l *Lexer) NextToken() (Token, error) {
	tok, next, err := scan(l.text, l.next)
	if err != nil {
		return Token{}, err
	}
	l.token, l.next = tok, next
	return tok, nil
}

// PeekNextToken returns the token after the current one without advancing.
func (l *Lexer) PeekNextToken() (Token, error) {
	tok, _, err := scan(l.text, l.next)
	return tok, err
}

// ValidateToken fails with a syntax error unless the current token has kind k.
func (l *Lexer) ValidateToken(k TokenKind) error {
	if l.token.Kind != k {
		return newError(KindSyntax, CodeTokenExpected, l.token.Position,
			"syntax error: expected %s, found %s", k, describeToken(l.token))
	}
	return nil
}

// ReadDottedIdentifier consumes identifier ('.' identifier)* and returns the
// joined name, leaving the lexer on the token that follows it.
func (l *Lexer) ReadDottedIdentifier() (string, error) {
	if err := l.ValidateToken(TokenIdentifier); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(l.token.Text)
	if _, err := l.NextToken(); err != nil {
		return "", err
	}
	for l.token.Kind == TokenDot {
		if _, err := l.NextToken(); err != nil {
			return "", err
		}
		if err := l.ValidateToken(TokenIdentifier); err != nil {
			return "", err
		}
		b.WriteByte('.')
		b.WriteString(l.token.Text)
		if _, err := l.NextToken(); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Tokenize returns every token of text up to and including End.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	pos := 0
	for {
		tok, next, err := scan(text, pos)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEnd {
			return tokens, nil
		}
		pos = next
	}
}

func describeToken(t Token) string {
	if t.Kind == TokenEnd {
		return "end of expression"
	}
	return "'" + t.Text + "'"
}

// scan reads one token starting at pos and returns it with the offset just
// past it. It is a pure function of its arguments.
func scan(text string, pos int) (Token, int, error) {
	s := scanner{text: text, pos: pos}
	s.skipWhitespace()
	start := s.pos

	kind, err := s.scanKind()
	if err != nil {
		return Token{}, 0, err
	}

	tok := Token{Kind: kind, Text: text[start:s.pos], Position: start}
	if tok.Kind == TokenIdentifier {
		if err := s.handleTypePrefixedLiteral(&tok); err != nil {
			return Token{}, 0, err
		}
		handleKeywordLiteral(&tok)
	}
	return tok, s.pos, nil
}

type scanner struct {
	text string
	pos  int
}

func (s *scanner) atEnd() bool { return s.pos >= len(s.text) }

// ch returns the rune at the current position, or utf8.RuneError at the end.
func (s *scanner) ch() rune {
	if s.atEnd() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.text[s.pos:])
	return r
}

// peek returns the rune after the current one.
func (s *scanner) peek() rune {
	if s.atEnd() {
		return utf8.RuneError
	}
	_, size := utf8.DecodeRuneInString(s.text[s.pos:])
	if s.pos+size >= len(s.text) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.text[s.pos+size:])
	return r
}

func (s *scanner) advance() {
	if s.atEnd() {
		return
	}
	_, size := utf8.DecodeRuneInString(s.text[s.pos:])
	s.pos += size
}

func (s *scanner) skipWhitespace() {
	for !s.atEnd() && unicode.IsSpace(s.ch()) {
		s.advance()
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentifierStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentifierPart(r rune) bool { return isIdentifierStart(r) || unicode.IsDigit(r) }

func (s *scanner) scanKind() (TokenKind, error) {
	if s.atEnd() {
		return TokenEnd, nil
	}

	switch r := s.ch(); {
	case r == '(':
		s.advance()
		return TokenOpenParen, nil
	case r == ')':
		s.advance()
		return TokenCloseParen, nil
	case r == ',':
		s.advance()
		return TokenComma, nil
	case r == '=':
		s.advance()
		return TokenEqual, nil
	case r == '/':
		s.advance()
		return TokenSlash, nil
	case r == '?':
		s.advance()
		return TokenQuestion, nil
	case r == '.':
		s.advance()
		return TokenDot, nil
	case r == '*':
		s.advance()
		return TokenStar, nil
	case r == '!':
		s.advance()
		return TokenExclamation, nil
	case r == '-':
		return s.scanMinus()
	case r == '\'':
		if err := s.scanQuoted(s.pos); err != nil {
			return TokenUnknown, err
		}
		return TokenStringLiteral, nil
	case isIdentifierStart(r):
		s.scanIdentifier()
		return TokenIdentifier, nil
	case isDigit(r):
		return s.scanFromDigit()
	default:
		return TokenUnknown, newError(KindLexical, CodeInvalidCharacter, s.pos,
			"invalid character '%c'", r)
	}
}

// scanMinus handles '-' which may start a negative number or -INF.
func (s *scanner) scanMinus() (TokenKind, error) {
	start := s.pos
	next := s.peek()

	if isDigit(next) {
		s.advance()
		kind, err := s.scanFromDigit()
		if err != nil {
			return TokenUnknown, err
		}
		if kind.IsNumeric() {
			return kind, nil
		}
		s.pos = start
	} else if next == 'I' {
		s.advance()
		identStart := s.pos
		s.scanIdentifier()
		switch ident := s.text[identStart:s.pos]; {
		case isInfinityDouble(ident):
			return TokenDoubleLiteral, nil
		case isInfinitySingle(ident):
			return TokenSingleLiteral, nil
		}
		s.pos = start
	}

	s.advance()
	return TokenMinus, nil
}

// scanQuoted consumes from the opening quote through the closing quote.
// There is no escape sequence: the first quote after the opening one ends
// the literal. quotePos is reported when the closing quote is missing.
func (s *scanner) scanQuoted(quotePos int) error {
	s.advance()
	for !s.atEnd() && s.ch() != '\'' {
		s.advance()
	}
	if s.atEnd() {
		return newError(KindLexical, CodeUnterminatedStringLiteral, quotePos,
			"unterminated string literal")
	}
	s.advance()
	return nil
}

func (s *scanner) scanIdentifier() {
	for !s.atEnd() && isIdentifierPart(s.ch()) {
		s.advance()
	}
}

func (s *scanner) validateDigit() error {
	if !isDigit(s.ch()) {
		return newError(KindLexical, CodeDigitExpected, s.pos, "digit expected")
	}
	return nil
}

// scanFromDigit scans a numeric literal or a 0x binary literal.
func (s *scanner) scanFromDigit() (TokenKind, error) {
	startChar := s.ch()
	s.advance()

	if startChar == '0' && (s.ch() == 'x' || s.ch() == 'X') {
		s.advance()
		for isHexDigit(s.ch()) {
			s.advance()
		}
		return TokenBinaryLiteral, nil
	}

	kind := TokenIntegerLiteral
	for isDigit(s.ch()) {
		s.advance()
	}

	if s.ch() == '.' {
		kind = TokenDoubleLiteral
		s.advance()
		if err := s.validateDigit(); err != nil {
			return TokenUnknown, err
		}
		for isDigit(s.ch()) {
			s.advance()
		}
	}

	if s.ch() == 'E' || s.ch() == 'e' {
		kind = TokenDoubleLiteral
		s.advance()
		if s.ch() == '+' || s.ch() == '-' {
			s.advance()
		}
		if err := s.validateDigit(); err != nil {
			return TokenUnknown, err
		}
		for isDigit(s.ch()) {
			s.advance()
		}
	}

	switch s.ch() {
	case 'M', 'm':
		kind = TokenDecimalLiteral
		s.advance()
	case 'd', 'D':
		kind = TokenDoubleLiteral
		s.advance()
	case 'L', 'l':
		kind = TokenInt64Literal
		s.advance()
	case 'f', 'F':
		kind = TokenSingleLiteral
		s.advance()
	}

	return kind, nil
}

// handleTypePrefixedLiteral turns datetime'..', guid'..', binary'..' and X'..'
// into a single literal token spanning prefix and quotes.
func (s *scanner) handleTypePrefixedLiteral(tok *Token) error {
	if s.atEnd() || s.ch() != '\'' {
		return nil
	}

	var kind TokenKind
	switch strings.ToLower(tok.Text) {
	case "datetime":
		kind = TokenDateTimeLiteral
	case "guid":
		kind = TokenGuidLiteral
	case "binary", "x":
		kind = TokenBinaryLiteral
	default:
		return nil
	}

	if err := s.scanQuoted(s.pos); err != nil {
		return err
	}
	tok.Kind = kind
	tok.Text = s.text[tok.Position:s.pos]
	return nil
}

func isInfinityDouble(text string) bool {
	return text == "INF"
}

func isInfinitySingle(text string) bool {
	return text == "INFf" || text == "INFF"
}

func handleKeywordLiteral(tok *Token) {
	switch text := tok.Text; {
	case text == "NaN" || isInfinityDouble(text):
		tok.Kind = TokenDoubleLiteral
	case text == "NaNf" || text == "NaNF" || isInfinitySingle(text):
		tok.Kind = TokenSingleLiteral
	case text == "true" || text == "false":
		tok.Kind = TokenBooleanLiteral
	case text == "null":
		tok.Kind = TokenNullLiteral
	}
}
