package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// PositionsMarkdown renders the per-instrument breakdown of a snapshot.
func PositionsMarkdown(s *valuation.Snapshot) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Positions on %s", s.On()))

	holdings := s.Holdings()
	if len(holdings) == 0 {
		doc.PlainText("No position.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Instrument", "Units", "Price", "Value"},
		Rows:   [][]string{},
	}
	unpriced := 0
	for _, h := range holdings {
		price, value := h.Price.String(), h.Value.String()
		if !h.Priced {
			price, value = "n/a", "n/a"
			if !h.Units.IsZero() {
				unpriced++
			}
		}
		table.Rows = append(table.Rows, []string{
			string(h.Instrument),
			h.Units.String(),
			price,
			value,
		})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", md.Bold(s.Total().String())})
	doc.Table(table)

	if unpriced > 0 {
		doc.PlainText("")
		doc.PlainText(fmt.Sprintf("%d position(s) without a price for the day are left out of the total.", unpriced))
	}
	return doc.String()
}
