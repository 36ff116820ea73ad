package text

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var disallowedNodes = map[string]struct{}{
	"audio":    {},
	"head":     {},
	"noscript": {},
	"script":   {},
	"style":    {},
	"textarea": {},
	"title":    {},
	"video":    {},
}

// elements without an end tag
var voidNodes = map[string]struct{}{
	"area":   {},
	"br":     {},
	"hr":     {},
	"img":    {},
	"input":  {},
	"link":   {},
	"meta":   {},
	"source": {},
	"wbr":    {},
}

var nonBreakingNodes = map[string]struct{}{
	"span":   {},
	"sub":    {},
	"sup":    {},
	"b":      {},
	"del":    {},
	"i":      {},
	"ins":    {},
	"mark":   {},
	"q":      {},
	"s":      {},
	"strike": {},
	"strong": {},
	"u":      {},
	"big":    {},
	"small":  {},
	"a":      {},
	"em":     {},
	"code":   {},
}

// HtmlToText extracts the visible text of an HTML document so it can be sent to TERMite
// as plain text. Block level elements end with a newline, inline elements don't break the text.
func HtmlToText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)
	var out bytes.Buffer
	disallowedDepth := 0

	newline := func() {
		if out.Len() == 0 {
			return
		}
		if lastByte(&out) == ' ' {
			out.Truncate(out.Len() - 1)
		}
		if out.Len() > 0 && lastByte(&out) != '\n' {
			out.WriteByte('\n')
		}
	}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return "", err
			}
			return strings.TrimSpace(out.String()), nil
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if _, ok := voidNodes[tag]; ok {
				if tag == "br" || tag == "hr" {
					newline()
				}
				continue
			}
			if _, ok := disallowedNodes[tag]; ok {
				disallowedDepth++
				continue
			}
			if _, ok := nonBreakingNodes[tag]; !ok {
				newline()
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if _, ok := disallowedNodes[tag]; ok {
				if disallowedDepth > 0 {
					disallowedDepth--
				}
				continue
			}
			if _, ok := nonBreakingNodes[tag]; !ok {
				newline()
			}
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "br" || tag == "hr" {
				newline()
			}
		case html.TextToken:
			if disallowedDepth > 0 {
				continue
			}
			text := collapseSpace(string(tokenizer.Text()))
			if out.Len() == 0 || lastByte(&out) == '\n' || lastByte(&out) == ' ' {
				text = strings.TrimLeft(text, " ")
			}
			out.WriteString(text)
		}
	}
}

func lastByte(b *bytes.Buffer) byte {
	return b.Bytes()[b.Len()-1]
}

// collapseSpace replaces runs of whitespace with a single space. Leading and
// trailing space is kept so inline elements stay separated.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	fields := strings.Fields(s)
	res := strings.Join(fields, " ")
	if isSpace(s[0]) {
		res = " " + res
	}
	if isSpace(s[len(s)-1]) {
		res += " "
	}
	return res
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}
