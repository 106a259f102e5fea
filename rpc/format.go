package rpc

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/bytedance/sonic/ast"
	"github.com/hiverpc/hiverpc/common"
)

var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_]+)\}`)

type bagEntry struct {
	key   string
	value string
}

// renderRpcError turns a node error into ErrRPC. When data.stack[0] is present its format
// string is filled from its data bag and unused bag entries are appended as key=value.
func renderRpcError(jrErr *common.JsonRpcError) error {
	message := jrErr.Message
	if raw := jrErr.RawData(); raw != "" {
		if rendered, ok := renderStackMessage(raw); ok {
			message = rendered
		}
	}
	return common.NewErrRPC(jrErr.Code, message, jrErr.Data)
}

func renderStackMessage(rawData string) (string, bool) {
	top, err := ast.NewSearcher(rawData).GetByPath("stack", 0)
	if err != nil || top.TypeSafe() != ast.V_OBJECT {
		return "", false
	}
	formatNode := top.Get("format")
	if !formatNode.Exists() || formatNode.TypeSafe() != ast.V_STRING {
		return "", false
	}
	format, err := formatNode.String()
	if err != nil {
		return "", false
	}

	bag := readBag(top.Get("data"))
	used := make(map[string]bool, len(bag))
	message := placeholderPattern.ReplaceAllStringFunc(format, func(match string) string {
		key := match[2 : len(match)-1]
		for _, e := range bag {
			if e.key == key {
				used[key] = true
				return e.value
			}
		}
		return match
	})

	var leftovers []string
	for _, e := range bag {
		if !used[e.key] {
			leftovers = append(leftovers, e.key+"="+e.value)
		}
	}
	if len(leftovers) > 0 {
		message += " " + strings.Join(leftovers, " ")
	}
	return message, true
}

// readBag keeps the keys in the order the node sent them.
func readBag(node *ast.Node) []bagEntry {
	if node == nil || !node.Exists() || node.TypeSafe() != ast.V_OBJECT {
		return nil
	}
	it, err := node.Properties()
	if err != nil {
		return nil
	}
	var out []bagEntry
	var pair ast.Pair
	for it.Next(&pair) {
		value := pair.Value
		out = append(out, bagEntry{key: pair.Key, value: formatValue(&value)})
	}
	return out
}

// formatValue writes strings bare, objects and arrays as compact JSON, anything else as is.
func formatValue(node *ast.Node) string {
	switch node.TypeSafe() {
	case ast.V_STRING:
		s, err := node.String()
		if err == nil {
			return s
		}
	}
	raw, err := node.Raw()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
