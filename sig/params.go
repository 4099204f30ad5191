package sig

import (
	"strings"
	"unicode"

	"github.com/shibukawa/simal/ast"
)

// type-modifier tokens that whitespace splitting may misattribute to the
// name side of a segment; they belong as a prefix of the type
var modifierTokens = []string{"[]", "*", "&", "..."}

// ParseParamList parses a Go-style raw parameter string into ordered
// parameter descriptors. It accepts "name: Type" segments as well as the
// whitespace form "name Type" and grouped "a, b Type", where names lacking
// an explicit type borrow it from the next typed segment. It is total:
// unparsable segments degrade to name-only or type-only descriptors.
func ParseParamList(params string) []*ast.Param {
	s := strings.TrimSpace(params)
	if s == "" {
		return nil
	}

	var (
		out     []*ast.Param
		pending []string
	)
	emit := func(names []string, typeName string) {
		for _, name := range names {
			out = append(out, &ast.Param{Name: name, TypeName: typeName})
		}
	}

	for _, segment := range splitTopLevel(s) {
		if name, typeName, ok := splitTopLevelColon(segment); ok {
			if len(pending) > 0 {
				emit(pending, typeName)
				pending = nil
			}
			emit([]string{name}, typeName)
			continue
		}

		if idx := lastSpaceIndex(segment); idx >= 0 {
			name := strings.TrimSpace(segment[:idx])
			typeName := strings.TrimSpace(segment[idx+1:])
			name, typeName = normalizeNameType(name, typeName)

			names := pending
			pending = nil
			if name != "" {
				names = append(names, name)
			}
			if len(names) == 0 {
				names = []string{""}
			}
			emit(names, typeName)
			continue
		}

		// bare name: borrows the type of the next typed segment
		pending = append(pending, segment)
	}

	for _, name := range pending {
		out = append(out, &ast.Param{Name: name})
	}
	return out
}

// ParseReturns parses a Go-style raw return string, optionally wrapped in
// one pair of parentheses, into ordered descriptors. Unnamed returns get an
// empty name.
func ParseReturns(returns string) []*ast.Param {
	s := strings.TrimSpace(returns)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	var out []*ast.Param
	for _, segment := range splitTopLevel(s) {
		if name, typeName, ok := splitTopLevelColon(segment); ok {
			out = append(out, &ast.Param{Name: name, TypeName: typeName})
			continue
		}
		if idx := lastSpaceIndex(segment); idx >= 0 {
			name := strings.TrimSpace(segment[:idx])
			typeName := strings.TrimSpace(segment[idx+1:])
			name, typeName = normalizeNameType(name, typeName)
			out = append(out, &ast.Param{Name: name, TypeName: typeName})
			continue
		}
		out = append(out, &ast.Param{TypeName: segment})
	}
	return out
}

// normalizeNameType relocates modifier tokens ([], *, &, ...) that ended up
// on the name side to prefix the type instead.
func normalizeNameType(name, typeName string) (string, string) {
	name = strings.TrimSpace(name)
	typeName = strings.TrimSpace(typeName)

	for _, token := range modifierTokens {
		if name == token && typeName != "" {
			name = ""
			typeName = token + typeName
			break
		}
	}
	for _, token := range modifierTokens {
		if strings.HasSuffix(name, token) && name != token {
			name = strings.TrimSpace(strings.TrimSuffix(name, token))
			if typeName != "" {
				typeName = token + typeName
			} else {
				typeName = token
			}
		}
	}
	for _, token := range modifierTokens {
		if strings.HasPrefix(typeName, token+" ") {
			typeName = token + typeName[len(token)+1:]
		}
	}
	return name, typeName
}

// splitTopLevel splits on commas that are not nested inside (), [], {}, <>.
// Parts are trimmed; empty parts are dropped.
func splitTopLevel(s string) []string {
	var (
		parts []string
		start int
		paren, brack, brace, angle int
	)
	flush := func(end int) {
		if part := strings.TrimSpace(s[start:end]); part != "" {
			parts = append(parts, part)
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			paren++
		case ')':
			if paren > 0 {
				paren--
			}
		case '[':
			brack++
		case ']':
			if brack > 0 {
				brack--
			}
		case '{':
			brace++
		case '}':
			if brace > 0 {
				brace--
			}
		case '<':
			angle++
		case '>':
			if angle > 0 {
				angle--
			}
		case ',':
			if paren == 0 && brack == 0 && brace == 0 && angle == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(s))
	return parts
}

// splitTopLevelColon splits a segment at its first colon outside any
// nesting; ok is false when no such colon exists.
func splitTopLevelColon(s string) (name, typeName string, ok bool) {
	var paren, brack, brace, angle int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			paren++
		case ')':
			if paren > 0 {
				paren--
			}
		case '[':
			brack++
		case ']':
			if brack > 0 {
				brack--
			}
		case '{':
			brace++
		case '}':
			if brace > 0 {
				brace--
			}
		case '<':
			angle++
		case '>':
			if angle > 0 {
				angle--
			}
		case ':':
			if paren == 0 && brack == 0 && brace == 0 && angle == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return "", "", false
}

func lastSpaceIndex(s string) int {
	return strings.LastIndexFunc(s, unicode.IsSpace)
}
