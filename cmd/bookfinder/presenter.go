package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/openshelf/bookdiscovery/internal/search/engine"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// consolePresenter renders the staged search output as plain text.
// Status lines go to stderr and overwrite in place; results go to
// stdout.
type consolePresenter struct {
	mu      sync.Mutex
	out     io.Writer
	err     io.Writer
	batches int
}

func newConsolePresenter(out, err io.Writer) *consolePresenter {
	return &consolePresenter{out: out, err: err}
}

func (p *consolePresenter) OnStatus(_ engine.Phase, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.err, "\r\033[K%s", message)
}

func (p *consolePresenter) clearStatus() {
	fmt.Fprint(p.err, "\r\033[K")
}

func (p *consolePresenter) OnBookInfoReady(info types.BookInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearStatus()

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, info.Title)
	fmt.Fprintln(p.out, strings.Repeat("=", len(info.Title)))
	fmt.Fprintf(p.out, "  Author:          %s\n", info.Author)
	fmt.Fprintf(p.out, "  First published: %s\n", info.FirstPublished)
	fmt.Fprintf(p.out, "  Language:        %s\n", info.Language)
	fmt.Fprintf(p.out, "  Publisher:       %s\n", info.Publisher)
	if info.Subjects != "" && info.Subjects != types.NotSpecifiedText {
		fmt.Fprintf(p.out, "  Subjects:        %s\n", info.Subjects)
	}
	if cover := info.CoverURL(); cover != "" {
		fmt.Fprintf(p.out, "  Cover:           %s\n", cover)
	}
	fmt.Fprintln(p.out)
}

func (p *consolePresenter) OnLinksReady(_ types.BookInfo, links []types.LinkCandidate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearStatus()
	p.batches++

	if p.batches == 1 {
		fmt.Fprintf(p.out, "Quick results (%d):\n", len(links))
	} else {
		fmt.Fprintf(p.out, "\nAll results (%d):\n", len(links))
	}

	for i, l := range links {
		fmt.Fprintf(p.out, "%3d. %s\n", i+1, l.Title)
		fmt.Fprintf(p.out, "     %s | %s | %s\n", l.Source.DisplayName(), l.Type, l.Size)
		if l.Author != "" {
			fmt.Fprintf(p.out, "     by %s\n", l.Author)
		}
		fmt.Fprintf(p.out, "     %s\n", l.URL)
	}
}

func (p *consolePresenter) OnNoResults(ev engine.NoResultsEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearStatus()

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, ev.Message)
	if !ev.BookFound {
		fmt.Fprintf(p.out, "\nWe couldn't find a book matching %q. Check the spelling, or try the author's name.\n", ev.Query)
	}

	if len(ev.PurchaseLinks) > 0 {
		fmt.Fprintln(p.out, "\nWhere to buy it:")
		for _, pl := range ev.PurchaseLinks {
			fmt.Fprintf(p.out, "  %-16s %s\n", pl.Name, pl.URL)
		}
	}
}
