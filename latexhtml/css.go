package latexhtml

var cssRules = map[string]string{
	"body":  "max-width: 40em; margin: 0 auto; line-height: 1.4;",
	"bf":    "font-weight: bold;",
	"md":    "font-weight: normal;",
	"it":    "font-style: italic;",
	"sl":    "font-style: oblique;",
	"up":    "font-style: normal;",
	"sc":    "font-variant: small-caps;",
	"tt":    "font-family: monospace;",
	"rm":    "font-family: serif;",
	"sf":    "font-family: sans-serif;",
	"u":     "text-decoration: underline;",
	"latex": "font-family: serif;",
	"tex":   "font-family: serif;",

	"tiny":         "font-size: 0.5em;",
	"scriptsize":   "font-size: 0.7em;",
	"footnotesize": "font-size: 0.8em;",
	"small":        "font-size: 0.9em;",
	"normalsize":   "font-size: 1em;",
	"large":        "font-size: 1.2em;",
	"Large":        "font-size: 1.44em;",
	"LARGE":        "font-size: 1.728em;",
	"huge":         "font-size: 2.074em;",
	"Huge":         "font-size: 2.488em;",

	"center":     "text-align: center;",
	"flushleft":  "text-align: left;",
	"flushright": "text-align: right;",
	"noindent":   "text-indent: 0;",
	"quote":      "margin: 0 2.5em;",
	"quotation":  "margin: 0 2.5em; text-indent: 1.5em;",
	"verse":      "margin: 0 2.5em; white-space: pre-line;",
	"abstract":   "margin: 1em 3em; font-size: 0.9em;",
	"minipage":   "display: inline-block; vertical-align: top;",

	"list":      "padding-left: 2.5em;",
	"itemlabel": "position: relative;",
	"hbox":      "display: inline-block;",
	"llap":      "position: absolute; right: 0.5em; text-align: right;",

	"verb":      "font-family: monospace; white-space: pre;",
	"math":      "font-family: serif; font-style: italic;",
	"inline":    "white-space: nowrap;",
	"display":   "display: block; text-align: center; margin: 1em 0;",
	"eqno":      "float: right;",
	"figure":    "margin: 1em 0; text-align: center;",
	"table":     "margin: 1em 0; text-align: center;",
	"caption":   "margin-top: 0.5em;",
	"tabular":   "border-collapse: collapse; margin: 0 auto;",
	"l":         "text-align: left;",
	"c":         "text-align: center;",
	"r":         "text-align: right;",
	"footnotes": "border-top: 1px solid; margin-top: 2em; font-size: 0.9em;",
	"ref":       "text-decoration: none;",
	"url":       "font-family: monospace;",
	"hspace":    "display: inline-block;",
	"vspace":    "display: block;",
	"titlepage": "text-align: center; margin-bottom: 2em;",
	"title":     "font-size: 1.728em;",
	"author":    "font-size: 1.2em;",
	"date":      "font-size: 1.2em;",
}
