package game

import (
	"strings"

	"kifu/internal/domain/sgf"
)

// Root properties come first in this order, the rest keep their own order.
var rootKeyOrder = []string{"GM", "FF", "CA", "SZ", "KM", "RU", "HA", "PB", "PW", "BR", "WR", "DT", "EV", "RO", "PC", "RE", "PL"}

// SaveSGF writes the trees under roots as one SGF collection.
func SaveSGF(f *sgf.Forest, roots ...sgf.NodeID) string {
	var builder strings.Builder
	for _, id := range roots {
		if !f.Contains(id) {
			continue
		}
		builder.WriteString("(")
		serializeGameTree(&builder, f, id)
		builder.WriteString(")\n")
	}
	return builder.String()
}

// serializeGameTree writes the line starting at id and recurses only at forks.
func serializeGameTree(builder *strings.Builder, f *sgf.Forest, id sgf.NodeID) {
	node := f.Node(id)
	for {
		serializeNode(builder, node)
		if len(node.Children) != 1 {
			break
		}
		node = f.Node(node.Children[0])
	}
	for _, child := range node.Children {
		builder.WriteString("(")
		serializeGameTree(builder, f, child)
		builder.WriteString(")")
	}
}

func serializeNode(builder *strings.Builder, node *sgf.Node) {
	builder.WriteString(";")

	keys := node.Props.Keys()
	if node.IsRoot() {
		used := make(map[string]bool)
		ordered := make([]string, 0, len(keys))
		for _, key := range rootKeyOrder {
			if node.Props.Has(key) {
				used[key] = true
				ordered = append(ordered, key)
			}
		}
		for _, key := range keys {
			if !used[key] {
				ordered = append(ordered, key)
			}
		}
		keys = ordered
	}

	for _, key := range keys {
		builder.WriteString(key)
		for _, v := range node.Props.Values(key) {
			builder.WriteString("[")
			builder.WriteString(escapeValue(v))
			builder.WriteString("]")
		}
	}
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `]`, `\]`)

func escapeValue(v string) string {
	return valueEscaper.Replace(v)
}
