package journal

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// previewLen bounds the comment shown in a table row.
const previewLen = 60

// WriteTable prints entries as an aligned table.
func WriteTable(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWHEN\tEVENT\tTARGET\tACTOR\tDETAIL")
	for _, e := range entries {
		target := e.ItemID
		if target == "" {
			target = "brand " + e.BrandID
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq, e.Timestamp.Local().Format("2006-01-02 15:04"), eventLabel(e), target, e.Actor, detail(e))
	}
	return tw.Flush()
}

func eventLabel(e Entry) string {
	return strings.TrimPrefix(string(e.Type), "item_")
}

func detail(e Entry) string {
	d := Comment(e)
	if d == "" {
		d = e.Message
	}
	d = strings.ReplaceAll(d, "\n", " ")
	if len(d) > previewLen {
		d = d[:previewLen] + "..."
	}
	return d
}
