package migrations

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var errSemicolonInString = errors.New("semicolon inside string literal")

// migrationFile is one embedded file split into executable statements.
type migrationFile struct {
	name  string
	stmts []string
}

// loadStatements reads every .sql file of dir and splits it for drivers that
// execute one statement per call (ClickHouse, SQLite).
func loadStatements(fsys fs.FS, dir string) ([]migrationFile, error) {
	names, err := sqlFiles(fsys, dir)
	if err != nil {
		return nil, err
	}
	out := make([]migrationFile, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		stmts, err := statements(string(data))
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		out = append(out, migrationFile{name: name, stmts: stmts})
	}
	return out, nil
}

// statements splits input on semicolons after dropping "--" comment lines.
// String literals may not contain a semicolon; a doubled single quote is an
// escaped quote.
func statements(input string) ([]string, error) {
	var body strings.Builder
	for _, line := range strings.Split(input, "\n") {
		if t := strings.TrimSpace(line); t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	var (
		stmts    []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}
	src := body.String()
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '\'' && inString && i+1 < len(src) && src[i+1] == '\'':
			cur.WriteString("''")
			i++
		case ch == '\'':
			inString = !inString
			cur.WriteByte(ch)
		case ch == ';' && inString:
			return nil, errSemicolonInString
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return stmts, nil
}
