package buffer

import (
	"regexp"
	"strconv"
	"sync"

	"gitlab.hive.thyth.com/chronostruct/go-mosh/pkg/mosh/parser"
	"gitlab.hive.thyth.com/chronostruct/go-mosh/pkg/mosh/terminal"

	sioctx "sioba/context"
)

func init() {
	RegisterScheme(newTerminalBuffer, "terminal")
}

// cursorPosPattern matches the trailing CUP escape (\x1b[row;colH) that
// Display.NewFrame emits to park the cursor after a full redraw.
var cursorPosPattern = regexp.MustCompile(`\x1b\[(\d+);(\d+)H`)

// TerminalBuffer maintains VT100/ANSI screen state by running the same
// go-mosh terminal emulator the teacher's predictive Interposer drives, but
// passively: Feed only observes bytes, it never interposes predictions or
// talks back to an upstream. DumpScreenState reuses the Interposer's
// "diff a blank framebuffer against the current one" trick
// (internal/predictive/termemu.go: Interposer.CurrentContents) to produce a
// from-scratch redraw of the live screen, which doubles as our answer to
// "what would dump_screen_state's attribute-diffing render look like" —
// go-mosh's Display already performs exactly that minimal-SGR diffing.
//
// go-mosh's Framebuffer exposes no row/cell accessor in anything grounded
// in this codebase (only MakeFramebuffer/CopyFramebuffer and passing a
// framebuffer to Display), so there is no confirmed way to ask it which
// row just left the visible screen. Scrollback is therefore tracked
// independently of the emulator: every raw byte fed in also goes to an
// embedded LineBuffer, which retires whole newline-terminated lines the
// same way the line:// buffer does. This approximates "a line scrolled
// off the top" with "a line was terminated", which is not pixel/row
// accurate for e.g. full-screen TUI repaints, but satisfies the ordered,
// line-bounded FIFO scrollback a plain shell session produces.
type TerminalBuffer struct {
	mu            sync.Mutex
	width, height int
	emulator      *terminal.Complete
	display       *terminal.Display
	scrollback    *LineBuffer
}

func newTerminalBuffer(uri string, overrides ...sioctx.Option) (Buffer, error) {
	ctx, err := sioctx.FromURI(uri, nil, overrides...)
	if err != nil {
		return nil, err
	}
	rows, cols := 24, 80
	if ctx.Rows != nil {
		rows = *ctx.Rows
	}
	if ctx.Cols != nil {
		cols = *ctx.Cols
	}
	scrollbackSize := 10_000
	if ctx.ScrollbackBufferSize != nil {
		scrollbackSize = *ctx.ScrollbackBufferSize
	}
	return NewTerminalBuffer(rows, cols, scrollbackSize), nil
}

// NewTerminalBuffer constructs a TerminalBuffer directly, bypassing URI
// parsing.
func NewTerminalBuffer(rows, cols, scrollbackSize int) *TerminalBuffer {
	return &TerminalBuffer{
		width:      cols,
		height:     rows,
		emulator:   terminal.MakeComplete(cols, rows),
		display:    terminal.MakeDisplay(true),
		scrollback: NewLineBuffer(scrollbackSize),
	}
}

func (b *TerminalBuffer) Feed(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.scrollback.Feed(data); err != nil {
		return nil, err
	}
	reply := b.emulator.Perform(string(data))
	if reply == "" {
		return nil, nil
	}
	return []byte(reply), nil
}

func (b *TerminalBuffer) SetTerminalSize(rows, cols int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emulator.Act(parser.MakeResize(int64(cols), int64(rows)))
	b.width, b.height = cols, rows
	return nil
}

// liveScreen renders a from-scratch redraw of the current on-screen
// framebuffer only, with no scrollback prefix.
func (b *TerminalBuffer) liveScreen() []byte {
	b.mu.Lock()
	fb := b.emulator.GetFramebuffer()
	width, height := b.width, b.height
	b.mu.Unlock()

	blank := terminal.MakeFramebuffer(width, height)
	return []byte(b.display.NewFrame(false, blank, fb))
}

// DumpScreenState reproduces the retained scrollback followed by a
// from-scratch redraw of the visible screen.
func (b *TerminalBuffer) DumpScreenState() []byte {
	out := b.scrollback.DumpScreenState()
	return append(out, b.liveScreen()...)
}

func (b *TerminalBuffer) CursorPosition() (row, col int) {
	dump := b.liveScreen()
	matches := cursorPosPattern.FindAllSubmatch(dump, -1)
	if len(matches) == 0 {
		return 0, 0
	}
	last := matches[len(matches)-1]
	oneRow, _ := strconv.Atoi(string(last[1]))
	oneCol, _ := strconv.Atoi(string(last[2]))
	if oneRow > 0 {
		oneRow--
	}
	if oneCol > 0 {
		oneCol--
	}
	return oneRow, oneCol
}
