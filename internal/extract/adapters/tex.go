package adapters

import (
	"regexp"
	"strings"
)

var (
	texStyle   = regexp.MustCompile(`^\{\\(?:displaystyle|textstyle|scriptstyle)\s*(.*)\}$`)
	texFrac    = regexp.MustCompile(`\\[dt]?frac\s*\{([^{}]*)\}\s*\{([^{}]*)\}`)
	texSqrt    = regexp.MustCompile(`\\sqrt\s*\{([^{}]*)\}`)
	texGroup   = regexp.MustCompile(`\^\s*\{([^{}]*)\}`)
	texBareExp = regexp.MustCompile(`\^\((\w+)\)`)
	texSpacing = regexp.MustCompile(`\\[,;:! ]|\\(?:left|right|quad|qquad|big|Big|displaystyle|textstyle)\b`)
	texEquals  = regexp.MustCompile(`\s*=\s*`)
	texBinary  = regexp.MustCompile(`([0-9a-zA-Z)])\s*([+\-])\s*`)
	texSpaces  = regexp.MustCompile(`\s+`)

	texSymbols = strings.NewReplacer(
		`\cdot`, "*",
		`\times`, "*",
		`\div`, "/",
		`\ast`, "*",
		`\pi`, "π",
	)
)

// TexToText turns a TeX math snippet into the plain notation lessons use
// in running text, e.g. `{\displaystyle y=x^{2}+\frac{1}{2}}` becomes
// "y = x^2 + (1)/(2)". Unknown commands are left as they are.
func TexToText(tex string) string {
	s := strings.TrimSpace(tex)
	if m := texStyle.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	// Inner groups first; a few passes cover ordinary nesting.
	for range 4 {
		next := texFrac.ReplaceAllString(s, "($1)/($2)")
		next = texSqrt.ReplaceAllString(next, "sqrt($1)")
		next = texGroup.ReplaceAllString(next, "^($1)")
		if next == s {
			break
		}
		s = next
	}

	s = texSymbols.Replace(s)
	s = texSpacing.ReplaceAllString(s, " ")
	s = strings.NewReplacer("{", "", "}", "").Replace(s)

	// x^(2) reads better as x^2
	s = texBareExp.ReplaceAllString(s, "^$1")

	s = texEquals.ReplaceAllString(s, " = ")
	s = texBinary.ReplaceAllString(s, "$1 $2 ")
	return strings.TrimSpace(texSpaces.ReplaceAllString(s, " "))
}
