package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// SeriesMarkdown renders a daily series: a summary, then one row per entry
// with its change from the previous row.
func SeriesMarkdown(title string, s valuation.Series) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)
	if len(s) == 0 {
		doc.PlainText("No valuation.")
		return doc.String()
	}

	high, low := s.High(), s.Low()
	change := signed(s.Change())
	if r, ok := s.Return(); ok {
		change = fmt.Sprintf("%s (%s)", change, r.SignedString())
	}
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Period", s.Range().String()},
		Rows: [][]string{
			{"Latest", md.Bold(s.Latest().Value.String())},
			{"Change", change},
			{"High", fmt.Sprintf("%s (%s)", high.Value, high.Date)},
			{"Low", fmt.Sprintf("%s (%s)", low.Value, low.Date)},
		},
	})

	doc.H2("Values")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Value", "Change"},
		Rows:   [][]string{},
	}
	for i, v := range s {
		change := ""
		if i > 0 {
			change = signed(v.Value.Sub(s[i-1].Value))
		}
		table.Rows = append(table.Rows, []string{
			v.Date.String(),
			v.Value.String(),
			change,
		})
	}
	doc.Table(table)

	return doc.String()
}
