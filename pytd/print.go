package pytd

import (
	"fmt"
	"strings"
)

const indent = "    "

// PrintType renders t in pytd syntax. The result doubles as a canonical key for t.
func PrintType(t Type) string {
	switch t := t.(type) {
	case NamedType:
		return t.Name
	case TypeParameter:
		return t.Name
	case AnythingType:
		return "?"
	case NothingType:
		return "nothing"
	case UnionType:
		parts := make([]string, len(t.Types))
		for i, member := range t.Types {
			parts[i] = PrintType(member)
		}
		return strings.Join(parts, " or ")
	case GenericType:
		parts := make([]string, len(t.Parameters))
		for i, p := range t.Parameters {
			parts[i] = PrintType(p)
		}
		return t.Base.Name + "[" + strings.Join(parts, ", ") + "]"
	case HomogeneousContainerType:
		return t.Base.Name + "[" + PrintType(t.Element) + ", ...]"
	case nil:
		return "<nil>"
	default:
		panic(fmt.Sprintf("unexpected type %T", t))
	}
}

// PrintSignature renders the part of a function definition after its name
func PrintSignature(sig Signature) string {
	params := make([]string, 0, len(sig.Params)+1)
	for _, p := range sig.Params {
		if p.Name == "self" && p.Type == (NamedType{Name: "object"}) {
			params = append(params, p.Name)
			continue
		}
		params = append(params, p.Name+": "+PrintType(p.Type))
	}
	if sig.HasOptional {
		params = append(params, "...")
	}
	return "(" + strings.Join(params, ", ") + ") -> " + PrintType(sig.Return)
}

func PrintFunction(f Function) string {
	lines := make([]string, len(f.Signatures))
	for i, sig := range f.Signatures {
		lines[i] = "def " + f.Name + PrintSignature(sig)
	}
	return strings.Join(lines, "\n")
}

func PrintConstant(c Constant) string {
	return c.Name + " = ...  # type: " + PrintType(c.Type)
}

func PrintClass(c Class) string {
	parents := make([]string, 0, len(c.Parents)+1)
	if len(c.Template) > 0 {
		params := make([]string, len(c.Template))
		for i, p := range c.Template {
			params[i] = p.Name
		}
		parents = append(parents, "Generic["+strings.Join(params, ", ")+"]")
	}
	for _, p := range c.Parents {
		parents = append(parents, PrintType(p))
	}
	sb := &strings.Builder{}
	sb.WriteString("class " + c.Name)
	if len(parents) > 0 {
		sb.WriteString("(" + strings.Join(parents, ", ") + ")")
	}
	sb.WriteString(":\n")
	if len(c.Methods) == 0 && len(c.Constants) == 0 {
		sb.WriteString(indent + "pass\n")
		return sb.String()
	}
	for _, constant := range c.Constants {
		sb.WriteString(indent + PrintConstant(constant) + "\n")
	}
	for _, m := range c.Methods {
		for _, line := range strings.Split(PrintFunction(m), "\n") {
			sb.WriteString(indent + line + "\n")
		}
	}
	return sb.String()
}

// Print renders a whole unit: constants, then functions, then classes
func Print(u *Unit) string {
	var sections []string
	if len(u.Constants) > 0 {
		lines := make([]string, len(u.Constants))
		for i, c := range u.Constants {
			lines[i] = PrintConstant(c)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(u.Functions) > 0 {
		lines := make([]string, len(u.Functions))
		for i, f := range u.Functions {
			lines[i] = PrintFunction(f)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(u.Classes) > 0 {
		classes := make([]string, len(u.Classes))
		for i, c := range u.Classes {
			classes[i] = strings.TrimSuffix(PrintClass(c), "\n")
		}
		sections = append(sections, strings.Join(classes, "\n\n"))
	}
	return strings.Join(sections, "\n\n")
}
