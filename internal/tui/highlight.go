package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlight colours source for the terminal. lang is a chroma lexer name
// ("json", "graphql"). The source is returned unchanged when it cannot be
// tokenised.
func highlight(source, lang string) string {
	if source == "" {
		return source
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		return source
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get(highlightFormatter)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return source
	}
	return sb.String()
}
