package chunker

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// Scan returns a lazy sequence of the sections in r. Each call to the
// returned iterator starts a fresh Chunker, so the sequence can be replayed
// over a new reader for every run. The trailing partial section is flushed
// once the reader is exhausted.
//
// A read error is yielded once with an empty Section and ends the sequence.
func Scan(r io.Reader) iter.Seq2[Section, error] {
	return func(yield func(Section, error) bool) {
		c := New()
		br := bufio.NewReader(r)

		for {
			line, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				yield(Section{}, err)
				return
			}

			// A final line without a newline still counts; io.EOF with an
			// empty read means the previous line was the last one.
			if line != "" || err == nil {
				if s, ok := c.Push(trimEOL(line)); ok {
					if !yield(s, nil) {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				break
			}
		}

		if s, ok := c.Flush(); ok {
			yield(s, nil)
		}
	}
}

// trimEOL strips one trailing "\n" or "\r\n".
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
