package formatter

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/pathengine"
)

const (
	// defaultMaxArrayInline is the max number of array elements to show inline.
	defaultMaxArrayInline = 3
)

// TreeOptions controls tree output formatting.
type TreeOptions struct {
	// NoValues hides values at leaf nodes (structure only).
	NoValues bool
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// ExpandArrays shows all array elements instead of "[N items]" summary.
	ExpandArrays bool
	// MaxArrayInline is max items to show inline for scalar arrays (default 3).
	MaxArrayInline int
	// MaxStringLen is max display cells before truncating inline strings.
	// 0 or negative = no truncation.
	MaxStringLen int
	// ArrayStyle controls how array indices are displayed:
	// "index" = [0], [1]; "numbered" = 1, 2; "bullet" = •; "none" = skip index.
	ArrayStyle string
}

// ValidArrayStyles contains all valid array style values.
var ValidArrayStyles = []string{"index", "numbered", "bullet", "none"}

// ValidateArrayStyle returns an error if the style is invalid.
func ValidateArrayStyle(style string) error {
	if style == "" {
		return nil
	}
	for _, valid := range ValidArrayStyles {
		if style == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid array-style %q: valid values are index, numbered, bullet, none", style)
}

// FormatArrayIndex formats an array index based on style.
func FormatArrayIndex(i int, style string) string {
	switch style {
	case "numbered":
		return fmt.Sprintf("%d", i+1)
	case "bullet":
		return "•"
	case "none":
		return ""
	default: // "index" or empty
		return fmt.Sprintf("[%d]", i)
	}
}

func formatKeyValue(key, value string) string {
	if key == "" {
		return value
	}
	return key + ": " + value
}

func formatKeyOnly(key string) string {
	if key == "" {
		return "(item)"
	}
	return key
}

// FormatAsTree renders a document as an ASCII tree. Objects become branches
// in declared key order, arrays get indexed children, scalars sit inline.
func FormatAsTree(node jsonvalue.Value, opts TreeOptions) string {
	if opts.MaxArrayInline == 0 {
		opts.MaxArrayInline = defaultMaxArrayInline
	}
	tree := treeprint.New()
	buildTree(tree, node, opts, 0)
	return tree.String()
}

func buildTree(branch treeprint.Tree, node jsonvalue.Value, opts TreeOptions, depth int) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode("...")
		return
	}
	switch node.Kind() {
	case jsonvalue.Object:
		for _, m := range node.Members() {
			addNodeForValue(branch, m.Key, m.Value, opts, depth)
		}
	case jsonvalue.Array:
		for i, elem := range node.Elements() {
			addNodeForValue(branch, FormatArrayIndex(i, opts.ArrayStyle), elem, opts, depth)
		}
	default:
		branch.AddNode(formatScalar(node, opts))
	}
}

func addNodeForValue(branch treeprint.Tree, key string, val jsonvalue.Value, opts TreeOptions, depth int) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode(formatKeyValue(key, "..."))
		return
	}

	leaf := func(value string) {
		if opts.NoValues {
			branch.AddNode(formatKeyOnly(key))
			return
		}
		branch.AddNode(formatKeyValue(key, value))
	}

	switch val.Kind() {
	case jsonvalue.Object:
		if val.Len() == 0 {
			leaf("{}")
			return
		}
		buildTree(branch.AddBranch(formatKeyOnly(key)), val, opts, depth+1)
	case jsonvalue.Array:
		scalars := isScalarArray(val)
		switch {
		case val.Len() == 0:
			leaf("[]")
		case !opts.ExpandArrays && scalars && val.Len() <= opts.MaxArrayInline:
			leaf(formatInlineArray(val))
		case !opts.ExpandArrays && scalars:
			leaf(fmt.Sprintf("[%d items]", val.Len()))
		default:
			buildTree(branch.AddBranch(formatKeyOnly(key)), val, opts, depth+1)
		}
	default:
		leaf(formatScalar(val, opts))
	}
}

func isScalarArray(arr jsonvalue.Value) bool {
	for _, elem := range arr.Elements() {
		if elem.IsContainer() {
			return false
		}
	}
	return true
}

func formatInlineArray(arr jsonvalue.Value) string {
	parts := make([]string, 0, arr.Len())
	for _, elem := range arr.Elements() {
		parts = append(parts, Stringify(elem))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatScalar(v jsonvalue.Value, opts TreeOptions) string {
	s := Stringify(v)
	if opts.MaxStringLen <= 0 || runewidth.StringWidth(s) <= opts.MaxStringLen {
		return s
	}
	return truncate(s, opts.MaxStringLen)
}

// FormatFieldTree renders enumerated field paths as a tree. Array nodes are
// marked with "[]" and become branches for their element paths.
func FormatFieldTree(fields []pathengine.Field) string {
	root := treeprint.New()
	branches := map[string]treeprint.Tree{}

	for _, f := range fields {
		p, err := pathengine.Parse(f.Path)
		if err != nil || len(p) == 0 {
			continue
		}
		parent := root
		for i := 1; i < len(p); i++ {
			parent = branchFor(branches, parent, p[:i])
		}
		label := segmentLabel(p[len(p)-1])
		if f.Kind == pathengine.FieldArray {
			branches[f.Path] = parent.AddBranch(label + " []")
			continue
		}
		parent.AddNode(label)
	}
	return root.String()
}

func branchFor(branches map[string]treeprint.Tree, parent treeprint.Tree, prefix pathengine.Path) treeprint.Tree {
	key := prefix.String()
	if b, ok := branches[key]; ok {
		return b
	}
	b := parent.AddBranch(segmentLabel(prefix[len(prefix)-1]))
	branches[key] = b
	return b
}

func segmentLabel(s pathengine.Segment) string {
	if s.Kind == pathengine.IndexSegment {
		return fmt.Sprintf("[%d]", s.Index)
	}
	return s.Key
}
