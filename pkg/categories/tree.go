package categories

import (
	"fmt"
	"strings"
)

// TreeOptions controls ShowAsTree.
type TreeOptions struct {
	// Root limits the rendering to the subtree below the given code. When
	// empty, all top-level categories are rendered.
	Root string
	// MaxDepth limits how many levels are shown; 0 means unlimited.
	MaxDepth int
	// Format renders one category line; Category.String is used when nil.
	Format func(*Category) string
}

// ShowAsTree renders the hierarchy as text, one category per line. A category
// with several alternative child-sets is rendered once per child-set, the
// alternatives marked as numbered options.
func (c *Categorization) ShowAsTree(opts TreeOptions) (string, error) {
	if !c.hierarchical {
		return "", c.notHierarchicalError()
	}
	format := opts.Format
	if format == nil {
		format = func(cat *Category) string { return cat.String() }
	}

	var roots []*Category
	if opts.Root != "" {
		root, err := c.Lookup(opts.Root)
		if err != nil {
			return "", err
		}
		roots = []*Category{root}
	} else {
		for _, code := range c.order {
			if len(c.parents[code]) == 0 {
				roots = append(roots, c.byKey[code])
			}
		}
	}

	var sb strings.Builder
	for i, root := range roots {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(format(root))
		sb.WriteString("\n")
		c.renderChildren(&sb, root, "", 1, opts.MaxDepth, format)
	}
	return sb.String(), nil
}

// renderChildren prints the children of cat below an already-printed node
// line, indented with prefix. depth is the depth of cat itself.
func (c *Categorization) renderChildren(sb *strings.Builder, cat *Category, prefix string, depth, maxDepth int, format func(*Category) string) {
	if len(cat.childSets) == 0 || (maxDepth > 0 && depth >= maxDepth) {
		return
	}

	if len(cat.childSets) == 1 {
		c.renderChildSet(sb, cat.childSets[0], prefix, depth, maxDepth, format)
		return
	}

	for i, set := range cat.childSets {
		marker := "╠╕"
		if i == 0 {
			marker = "╠╤══"
		}
		fmt.Fprintf(sb, "%s%s ('%s's children, option %d)\n", prefix, marker, format(cat), i+1)
		c.renderChildSet(sb, set, prefix+"║", depth, maxDepth, format)
	}
	sb.WriteString(prefix + "╚═══\n")
}

func (c *Categorization) renderChildSet(sb *strings.Builder, set []string, prefix string, depth, maxDepth int, format func(*Category) string) {
	for i, code := range set {
		child := c.byKey[code]
		connector, continuation := "├", "│"
		if i == len(set)-1 {
			connector, continuation = "╰", " "
		}
		sb.WriteString(prefix + connector + format(child) + "\n")
		c.renderChildren(sb, child, prefix+continuation, depth+1, maxDepth, format)
	}
}
