package trace

import (
	"bytes"
	"sort"
	"strconv"
	"text/template"

	"github.com/awalterschulze/gographviz"
)

// ToDot renders the recorded blocks as a graphviz digraph. Blocks are joined
// in the order they ran within their scope.
func (r *Recorder) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	blocks := r.Blocks()
	var buf bytes.Buffer
	for i := range blocks {
		b := &blocks[i]
		if err := tmpl.Execute(&buf, b); err != nil {
			panic(err)
		}
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		g.AddNode("G", strconv.Quote(b.Name), attrs)
		buf.Reset()
	}

	r.Lock()
	edges := make([][2]string, 0, len(r.edges))
	for e := range r.edges {
		edges = append(edges, e)
	}
	r.Unlock()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	for _, e := range edges {
		g.AddEdge(strconv.Quote(e[0]), strconv.Quote(e[1]), true, nil)
	}
	return g.String()
}

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Block</TD><TD>{{.Name}}</TD></TR>
<TR><TD>Calls</TD><TD>{{.Calls}}</TD></TR>
<TR><TD>In</TD><TD>{{.In}}</TD></TR>
<TR><TD>Out</TD><TD>{{.Out}}</TD></TR>
<TR><TD>Mean</TD><TD>{{printf "%.3f" .OutStats.Mean}}</TD></TR>
<TR><TD>Std</TD><TD>{{printf "%.3f" .OutStats.Std}}</TD></TR>
</TABLE>
>
`

var tmpl = template.Must(template.New("block").Parse(tmplRaw))
