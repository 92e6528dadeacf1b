package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/reviewdesk/journal"
	"github.com/randalmurphal/reviewdesk/notify"
)

var historyTypes = map[string][]notify.EventType{
	"approved": {notify.EventItemApproved},
	"rejected": {notify.EventItemRejected},
	"decision": {notify.EventItemApproved, notify.EventItemRejected},
	"audit":    {notify.EventAuditCompleted},
}

func (c *cli) history(_ context.Context, args []string) error {
	fs := c.flags("history", "[--item ID] [--type approved|rejected|decision|audit] [--since DURATION] [--limit N] [QUERY]")
	item := fs.String("item", "", "only events for this item")
	kind := fs.String("type", "", "only events of this kind")
	since := fs.Duration("since", 0, "only events newer than this, e.g. 24h")
	limit := fs.Int("limit", 20, "maximum number of entries, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := journal.Filter{ItemID: *item, Limit: *limit, Query: strings.Join(fs.Args(), " ")}
	if *kind != "" {
		types, ok := historyTypes[*kind]
		if !ok {
			fs.Usage()
			return errUsage
		}
		f.Types = types
	}
	if *since > 0 {
		f.Since = time.Now().Add(-*since)
	}

	a, err := c.open()
	if err != nil {
		return err
	}
	entries, err := a.Journal.List(f)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.stdout, "No recorded activity.")
		return nil
	}
	return journal.WriteTable(c.stdout, entries)
}
