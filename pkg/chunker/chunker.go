// Package chunker splits a line-oriented text document into blank-line
// delimited sections. Fenced code blocks (lines starting with ```) are kept
// whole: blank lines inside a fence never close a section.
package chunker

import "strings"

// CodeFence is the marker that toggles code-block mode when a trimmed line
// starts with it.
const CodeFence = "```"

// State is the chunker's position relative to fenced code blocks.
type State int

const (
	// Accumulating is the initial state; blank lines may close sections.
	Accumulating State = iota

	// InCodeBlock means an unmatched fence has been seen; blank lines are content.
	InCodeBlock
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case InCodeBlock:
		return "in_code_block"
	default:
		return "unknown"
	}
}

// Section is a contiguous run of lines accumulated since the last boundary.
type Section struct {
	// Text holds the section's lines, each followed by "\n".
	Text string

	// InCodeBlock reports the code-block flag at the time the section was
	// emitted. Sections closed by a blank line always carry false; only a
	// flush of an unterminated fence carries true.
	InCodeBlock bool
}

// Chunker is the per-run section state machine. It is driven one line at a
// time by Push and drained with Flush at end of input. The zero value is
// ready to use.
type Chunker struct {
	state State
	buf   strings.Builder
}

// New returns a Chunker in the Accumulating state with an empty buffer.
func New() *Chunker {
	return &Chunker{}
}

// State returns the current state.
func (c *Chunker) State() State {
	return c.state
}

// Push feeds one line (without its trailing newline) to the chunker. When the
// line closes a section, the section is returned with ok set to true.
func (c *Chunker) Push(line string) (Section, bool) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, CodeFence) {
		c.toggle()
		c.appendLine(line)
		return Section{}, false
	}

	if trimmed == "" && c.state == Accumulating && c.hasContent() {
		return c.emit(), true
	}

	c.appendLine(line)
	return Section{}, false
}

// Flush emits whatever is left in the buffer at end of input, regardless of
// state, as long as it is non-empty after trimming.
func (c *Chunker) Flush() (Section, bool) {
	if !c.hasContent() {
		c.buf.Reset()
		return Section{}, false
	}
	return c.emit(), true
}

func (c *Chunker) toggle() {
	if c.state == Accumulating {
		c.state = InCodeBlock
	} else {
		c.state = Accumulating
	}
}

func (c *Chunker) appendLine(line string) {
	c.buf.WriteString(line)
	c.buf.WriteByte('\n')
}

func (c *Chunker) hasContent() bool {
	return strings.TrimSpace(c.buf.String()) != ""
}

func (c *Chunker) emit() Section {
	s := Section{
		Text:        c.buf.String(),
		InCodeBlock: c.state == InCodeBlock,
	}
	c.buf.Reset()
	return s
}
