package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauern/tmxsync/internal/logging"
	"github.com/klauern/tmxsync/internal/sync"
	"github.com/klauern/tmxsync/internal/ui"
)

// PromptResolver asks the operator on a line-oriented terminal how to
// resolve each tile.
type PromptResolver struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPromptResolver creates a resolver reading answers from in and writing
// menus to out.
func NewPromptResolver(in io.Reader, out io.Writer) *PromptResolver {
	return &PromptResolver{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Resolve implements sync.Resolver. Anything that is neither a listed
// number nor one of c, s and q skips the tile. End of input saves and quits.
func (p *PromptResolver) Resolve(_ context.Context, s sync.Situation) (sync.Outcome, error) {
	p.showMenu(s)

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return sync.Outcome{}, fmt.Errorf("failed to read input: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" && errors.Is(err, io.EOF) {
		_, _ = fmt.Fprintln(p.out)
		logging.Info("input closed, saving and quitting", logging.Tileset(s.Tileset), logging.TileID(s.TileID))
		return sync.Abort(), nil
	}

	return p.parse(s, answer), nil
}

func (p *PromptResolver) parse(s sync.Situation, answer string) sync.Outcome {
	switch answer {
	case "c":
		return sync.Clear()
	case "s":
		return sync.Skip()
	case "q":
		return sync.Abort()
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(s.Variants) {
		_, _ = fmt.Fprintln(p.out, ui.StatusWarning(fmt.Sprintf("Invalid choice %q, skipping tile %d", answer, s.TileID)))
		return sync.Skip()
	}
	return sync.Adopt(s.Variants[n-1].Record)
}

func (p *PromptResolver) showMenu(s sync.Situation) {
	_, _ = fmt.Fprintf(p.out, "\n%s\n", ui.Header(fmt.Sprintf("Tileset %s, tile %d", s.Tileset, s.TileID)))
	_, _ = fmt.Fprintf(p.out, "%s\n", ui.KindLabel(s.Kind))

	for i, v := range s.Variants {
		_, _ = fmt.Fprintf(p.out, "  %d) %s\n", i+1, v.Record.String())
		_, _ = fmt.Fprintf(p.out, "     %s %s\n", ui.Dim("used by:"), strings.Join(s.DocumentLabels(v.Holders), ", "))
	}
	if len(s.Missing) > 0 {
		_, _ = fmt.Fprintf(p.out, "  %s %s\n", ui.Warning("missing in:"), strings.Join(s.DocumentLabels(s.Missing), ", "))
	}

	_, _ = fmt.Fprintf(p.out, "  c) %s\n", sync.ActionClear.Description())
	_, _ = fmt.Fprintf(p.out, "  s) %s\n", sync.ActionSkip.Description())
	_, _ = fmt.Fprintf(p.out, "  q) %s\n", sync.ActionAbort.Description())
	_, _ = fmt.Fprintf(p.out, "Choice [1-%d, c, s, q]: ", len(s.Variants))
}
