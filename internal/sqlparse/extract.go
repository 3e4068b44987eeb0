// Package sqlparse pulls the base tables out of the main FROM clause of an
// Oracle SQL statement. It is a top-level scanner, not a SQL parser: strings,
// comments and parenthesized subqueries are skipped, and malformed input
// simply yields fewer tables.
package sqlparse

// terminators end the main FROM clause when found at depth zero.
var terminators = map[string]bool{
	"WHERE":     true,
	"GROUP":     true,
	"ORDER":     true,
	"HAVING":    true,
	"CONNECT":   true,
	"START":     true,
	"UNION":     true,
	"MINUS":     true,
	"INTERSECT": true,
	"MODEL":     true,
}

// ExtractTables returns the tables referenced at the top level of the main
// FROM clause of sql (comma list and JOINs), uppercased, unique, in
// first-seen order. It never fails.
func ExtractTables(sql string) []string {
	toks := NewLexer(sql).Tokenize()

	// 1. Locate the main FROM clause.
	span := fromClause(toks)
	if len(span) == 0 {
		return []string{}
	}

	// 2. Walk each comma segment: its leading table, then every JOIN target.
	tables := make([]string, 0, 4)
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}
	for _, seg := range splitTopLevel(span) {
		add(readTable(seg, 0))
		for i, tok := range seg {
			if tok.Depth == 0 && tok.IsKeyword("JOIN") {
				add(readTable(seg, i+1))
			}
		}
	}
	return tables
}

func fromClause(toks []Token) []Token {
	start := -1
	for i, tok := range toks {
		if tok.Depth == 0 && tok.IsKeyword("FROM") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}
	end := len(toks)
	for i := start; i < len(toks); i++ {
		tok := toks[i]
		if tok.Depth != 0 {
			continue
		}
		if tok.Type == TokenSemicolon || (tok.Type == TokenWord && terminators[tok.Upper()]) {
			end = i
			break
		}
	}
	return toks[start:end]
}

func splitTopLevel(span []Token) [][]Token {
	var segs [][]Token
	last := 0
	for i, tok := range span {
		if tok.Depth == 0 && tok.Type == TokenComma {
			segs = append(segs, span[last:i])
			last = i + 1
		}
	}
	return append(segs, span[last:])
}

// readTable reads the table reference starting at seg[i]. Derived tables,
// table functions and anything that is not an identifier yield "".
func readTable(seg []Token, i int) string {
	if i < len(seg) && seg[i].IsKeyword("ONLY") {
		i++
	}
	if i < len(seg) && seg[i].IsKeyword("LATERAL") {
		i++
	}
	if i >= len(seg) || !isIdent(seg[i]) {
		return ""
	}

	last := seg[i]
	i++
	for i+1 < len(seg) && seg[i].Type == TokenDot && isIdent(seg[i+1]) {
		last = seg[i+1]
		i += 2
	}
	// TABLE(...) and other functions in FROM position are not base tables.
	if i < len(seg) && seg[i].Type == TokenLParen {
		return ""
	}

	// A trailing @dblink is left unread.
	return last.Upper()
}

func isIdent(t Token) bool {
	return t.Type == TokenWord || (t.Type == TokenQuoted && t.Literal != "")
}
