package sqlgen

import (
	"strings"
)

// Clause is a SQL fragment with the arguments for its ? placeholders, in
// placeholder order.
type Clause struct {
	SQL  string
	Args []interface{}

	// operands is set on comparator calls (strcmp and friends) so that the
	// enclosing comparison can compare the operands directly.
	operands []Clause
}

func raw(sql string) Clause {
	return Clause{SQL: sql}
}

// compose expands {N} markers in tmpl with parts[N]. A part may appear more
// than once; its arguments are repeated with it.
func compose(tmpl string, parts ...Clause) Clause {
	var b strings.Builder
	var args []interface{}
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '{' && i+2 < len(tmpl) && tmpl[i+2] == '}' && tmpl[i+1] >= '0' && tmpl[i+1] <= '9' {
			part := parts[tmpl[i+1]-'0']
			b.WriteString(part.SQL)
			args = append(args, part.Args...)
			i += 2
			continue
		}
		b.WriteByte(tmpl[i])
	}
	return Clause{SQL: b.String(), Args: args}
}

func infix(left Clause, op string, right Clause) Clause {
	return compose("({0} "+op+" {1})", left, right)
}
