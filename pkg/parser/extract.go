package parser

import (
	"strconv"
	"strings"
)

// quotedArgs returns the contents of single- or double-quoted spans in
// order of appearance.
func quotedArgs(text string) []string {
	var args []string
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\'' && c != '"' {
			continue
		}
		end := strings.IndexByte(text[i+1:], c)
		if end < 0 {
			break
		}
		args = append(args, text[i+1:i+1+end])
		i += end + 1
	}
	return args
}

// urlToken returns the first whitespace-delimited token that looks like a
// URL: an explicit scheme, a dotted host, or localhost. Surrounding quotes
// and trailing punctuation are stripped.
func urlToken(text string) string {
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, `"'`)
		tok = strings.TrimRight(tok, ".,;!?")
		if tok == "" {
			continue
		}
		if looksLikeURL(tok) {
			return tok
		}
	}
	return ""
}

func looksLikeURL(tok string) bool {
	if strings.Contains(tok, "://") {
		return true
	}
	if strings.HasPrefix(tok, "localhost") {
		return true
	}
	// Dotted host such as example.com or news.ycombinator.com/item?id=1.
	dot := strings.IndexByte(tok, '.')
	return dot > 0 && dot < len(tok)-1
}

// trailingInt returns the last integer-like token. Ordinal suffixes are
// tolerated so "switch to the 2nd tab" works.
func trailingInt(text string) (int, bool) {
	fields := strings.Fields(text)
	for i := len(fields) - 1; i >= 0; i-- {
		tok := strings.TrimRight(fields[i], ".,;!?")
		for _, suffix := range []string{"st", "nd", "rd", "th"} {
			if len(tok) > len(suffix) && strings.HasSuffix(tok, suffix) {
				if _, err := strconv.Atoi(tok[:len(tok)-len(suffix)]); err == nil {
					tok = tok[:len(tok)-len(suffix)]
				}
				break
			}
		}
		if n, err := strconv.Atoi(tok); err == nil {
			return n, true
		}
	}
	return 0, false
}

// afterTrigger strips the leading trigger words plus filler ("the", "on",
// "a", "an", "to") and returns the remainder. Used by rules whose argument
// is simply "everything after the verb".
func afterTrigger(segment string, triggers ...string) string {
	lowered := strings.ToLower(segment)
	for _, trig := range triggers {
		idx := strings.Index(lowered, trig)
		if idx < 0 {
			continue
		}
		rest := segment[idx+len(trig):]
		return strings.TrimSpace(trimFiller(rest))
	}
	return strings.TrimSpace(segment)
}

var fillerWords = []string{"the ", "on ", "a ", "an ", "to ", "element ", "button "}

func trimFiller(text string) string {
	rest := strings.TrimSpace(text)
	for {
		trimmed := false
		lowered := strings.ToLower(rest)
		for _, filler := range fillerWords {
			if strings.HasPrefix(lowered, filler) {
				rest = strings.TrimSpace(rest[len(filler):])
				trimmed = true
				break
			}
		}
		if !trimmed {
			return rest
		}
	}
}

// cutOutsideQuotes splits text at the first occurrence of sep that is not
// inside a quoted span. The match against sep is case-insensitive.
func cutOutsideQuotes(text, sep string) (before, after string, found bool) {
	lowered := strings.ToLower(text)
	sep = strings.ToLower(sep)
	for i := 0; i+len(sep) <= len(lowered); i++ {
		if inQuotes(lowered[:i]) {
			continue
		}
		if lowered[i:i+len(sep)] == sep {
			return text[:i], text[i+len(sep):], true
		}
	}
	return text, "", false
}

// unquote strips one pair of matching surrounding quotes.
func unquote(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if first == last && (first == '"' || first == '\'') {
			return text[1 : len(text)-1]
		}
	}
	return text
}
