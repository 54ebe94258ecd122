package schema

import (
	"fmt"
	"strings"
)

// print renders every generated type as SDL, sorted by type name, with
// fields in emission order.
func (c *BuildContext) print() string {
	var b strings.Builder
	for i, name := range c.sortedNames() {
		if i > 0 {
			b.WriteByte('\n')
		}
		printType(&b, c.types[name])
	}
	return b.String()
}

func printType(b *strings.Builder, t *TypeDef) {
	printDescription(b, t.Description, "")
	b.WriteString(t.Kind.keyword())
	b.WriteByte(' ')
	b.WriteString(t.Name)

	switch t.Kind {
	case KindScalar:
		b.WriteByte('\n')
		return
	case KindUnion:
		b.WriteString(" = ")
		b.WriteString(strings.Join(t.Members, " | "))
		b.WriteByte('\n')
		return
	case KindEnum:
		b.WriteString(" {\n")
		for _, v := range t.Values {
			b.WriteString("  ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
		b.WriteString("}\n")
		return
	}

	if len(t.Interfaces) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(t.Interfaces, " & "))
	}
	b.WriteString(" {\n")
	for _, f := range t.Fields {
		printDescription(b, f.Description, "  ")
		b.WriteString("  ")
		b.WriteString(f.Name)
		if len(f.Args) > 0 {
			args := make([]string, len(f.Args))
			for i, a := range f.Args {
				args[i] = a.Name + ": " + a.Type.String()
			}
			b.WriteString("(" + strings.Join(args, ", ") + ")")
		}
		b.WriteString(": ")
		b.WriteString(f.Type.String())
		if f.Deprecated {
			fmt.Fprintf(b, " @deprecated(reason: %s)", quote(f.Reason))
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
}

func printDescription(b *strings.Builder, desc, indent string) {
	if desc == "" {
		return
	}
	desc = strings.ReplaceAll(desc, `"""`, `\"""`)
	b.WriteString(indent + `"""` + "\n")
	for _, line := range strings.Split(desc, "\n") {
		if line != "" {
			b.WriteString(indent + line)
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent + `"""` + "\n")
}

// quote renders s as a GraphQL string value.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
