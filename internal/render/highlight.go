package render

import (
	chtml "github.com/alecthomas/chroma/v2/formatters/html"
)

var formatter = chtml.New(
	chtml.WithClasses(true),
	chtml.TabWidth(4),
	chtml.WithLineNumbers(true),
	chtml.WrapLongLines(true),
)
