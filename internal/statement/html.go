package statement

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// findFirst returns the first node in document order matching pred.
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// findAll appends every descendant of n matching pred, in document order.
func findAll(n *html.Node, pred func(*html.Node) bool, out []*html.Node) []*html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			out = append(out, c)
		}
		out = findAll(c, pred, out)
	}
	return out
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace folds whitespace runs, non-breaking spaces included, into
// single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// tableAfter returns the element that follows the section paragraph. When the
// paragraph was left open, the HTML parser nests the table inside it, so a
// nested table wins over the next sibling.
func tableAfter(p *html.Node) *html.Node {
	if t := findFirst(p, func(n *html.Node) bool { return n.DataAtom == atom.Table }); t != nil {
		return t
	}
	for s := p.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// cells returns the direct td children of a row.
func cells(tr *html.Node) []*html.Node {
	var out []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			out = append(out, c)
		}
	}
	return out
}

// dataRows returns the cell texts of every row under table that is not
// decorated with a bgcolor and has more than one data cell.
func dataRows(table *html.Node) [][]string {
	rows := findAll(table, func(n *html.Node) bool { return n.DataAtom == atom.Tr }, nil)
	var out [][]string
	for _, tr := range rows {
		if hasAttr(tr, "bgcolor") {
			continue
		}
		tds := cells(tr)
		if len(tds) <= 1 {
			continue
		}
		texts := make([]string, len(tds), len(tds)+syntheticFields)
		for i, td := range tds {
			texts[i] = textContent(td)
		}
		out = append(out, texts)
	}
	return out
}
