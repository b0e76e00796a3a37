package engine

import (
	"strings"

	"github.com/andybalholm/cascadia"
)

// hidingRules scans CSS text for top-level style rules whose declarations
// include display:none or visibility:hidden and returns their selectors.
//
// Rules nested in at-rules (@media, @supports, ...) are ignored since
// whether they apply depends on the viewport. Later rules that re-show an
// element are not considered.
func hidingRules(css string) []cascadia.SelectorGroup {
	css = stripComments(css)

	type frame struct {
		prelude string
		ignored bool
	}
	var (
		stack []frame
		buf   strings.Builder
		rules []cascadia.SelectorGroup
	)

	for i := 0; i < len(css); i++ {
		switch ch := css[i]; ch {
		case '{':
			prelude := strings.TrimSpace(buf.String())
			buf.Reset()
			ignored := strings.HasPrefix(prelude, "@")
			if n := len(stack); n > 0 && stack[n-1].ignored {
				ignored = true
			}
			stack = append(stack, frame{prelude: prelude, ignored: ignored})
		case '}':
			if n := len(stack); n > 0 {
				f := stack[n-1]
				stack = stack[:n-1]
				if !f.ignored && hides(buf.String()) {
					if sel, err := cascadia.ParseGroup(f.prelude); err == nil {
						rules = append(rules, sel)
					}
				}
			}
			buf.Reset()
		case ';':
			// Top-level statements such as @import or @charset.
			if len(stack) == 0 {
				buf.Reset()
				continue
			}
			buf.WriteByte(ch)
		default:
			buf.WriteByte(ch)
		}
	}
	return rules
}

// hides reports whether a declaration block removes its element from view.
func hides(block string) bool {
	for _, decl := range strings.Split(block, ";") {
		d := strings.ToLower(strings.Join(strings.Fields(decl), ""))
		d = strings.TrimSuffix(d, "!important")
		if d == "display:none" || d == "visibility:hidden" {
			return true
		}
	}
	return false
}

func stripComments(css string) string {
	var b strings.Builder
	for {
		start := strings.Index(css, "/*")
		if start < 0 {
			b.WriteString(css)
			return b.String()
		}
		b.WriteString(css[:start])
		end := strings.Index(css[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		css = css[start+2+end+2:]
	}
}
