// Package observability provides logging and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/conversation"
	"github.com/jonathan/site-assistant/internal/source"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer

	// RenderedTurns prints a turn's sanitized HTML instead of its text when one was rendered.
	RenderedTurns bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

var statusIcons = map[source.Status]string{
	source.StatusLoading: "…",
	source.StatusReady:   "✓",
	source.StatusFailed:  "✗",
}

// PrintSources outputs the tracked sources with their status.
func (p *Printer) PrintSources(sources []source.Source) {
	if len(sources) == 0 {
		p.printBox("SOURCES", "No sources yet. Add one with: site_agent add <url>")
		return
	}

	var sb strings.Builder
	ready := 0
	for _, s := range sources {
		if s.Status == source.StatusReady {
			ready++
		}
		line := fmt.Sprintf("%s %-7s %s", statusIcons[s.Status], s.Status, s.Address)
		if s.Discovered {
			line += " (sitemap)"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d ready", ready, len(sources)))
	if ready == 0 {
		sb.WriteString("; chat disabled")
	}

	p.printBox("SOURCES", sb.String())
}

// PrintContent outputs a summary of extracted content.
func (p *Printer) PrintContent(c *content.ExtractedContent) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:       %s\n", c.URL))
	sb.WriteString(fmt.Sprintf("Title:     %s\n", c.Title))
	if c.Strategy != "" {
		sb.WriteString(fmt.Sprintf("Strategy:  %s\n", c.Strategy))
	}
	if c.Description != "" {
		sb.WriteString(fmt.Sprintf("About:     %s\n", c.Description))
	}

	if len(c.Headings) > 0 {
		sb.WriteString("\nHeadings:\n")
		count := min(len(c.Headings), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", c.Headings[i]))
		}
		if len(c.Headings) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(c.Headings)-maxItemsToShow))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%d paragraphs, %d characters of text", len(c.BodyText), len(c.FullText)))

	p.printBox("EXTRACTED CONTENT", sb.String())
}

// PrintDiscovered outputs addresses added from a sitemap.
func (p *Printer) PrintDiscovered(addresses []string) {
	if len(addresses) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Added %d related pages:\n", len(addresses)))
	for _, a := range addresses {
		sb.WriteString(fmt.Sprintf("  • %s\n", a))
	}
	p.printBox("SITEMAP DISCOVERY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTranscript outputs the chat history, wrapping long turns.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTranscript(history []conversation.Turn) {
	if len(history) == 0 {
		fmt.Fprintln(p.out, "(no messages)")
		return
	}
	for _, t := range history {
		p.PrintTurn(t)
	}
}

// PrintTurn outputs one turn with its speaker label.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTurn(t conversation.Turn) {
	label := "You"
	if t.Sender == conversation.SenderAssistant {
		label = "Assistant"
	}
	fmt.Fprintf(p.out, "%s:\n", label)
	body := t.Text
	if p.RenderedTurns && t.HTML != "" {
		body = strings.TrimRight(t.HTML, "\n")
	}
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(p.out, "  %s\n", line)
	}
	fmt.Fprintln(p.out)
}
