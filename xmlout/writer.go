// Package xmlout converts an open registry hive into forensic XML. It
// implements the hive.Visitor traversal contract and streams one well-formed
// document to a writer in a single forward pass, recording the on-disk byte
// runs of every key and value alongside their decoded content.
package xmlout

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Writer emits XML incrementally: elements open as soon as they start and
// attributes attach to the most recently opened element until its first
// child or text arrives. Output carries no indentation. The first write
// error sticks and turns all later calls into no-ops.
type Writer struct {
	out   *bufio.Writer
	stack []string
	inTag bool // start tag emitted but not yet closed with '>'
	err   error
}

// NewWriter wraps out in a buffered XML stream.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(out)}
}

// Err returns the first error encountered on the stream.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) setErr(err error) error {
	if w.err == nil && err != nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) write(s string) error {
	if w.err != nil {
		return w.err
	}
	_, err := w.out.WriteString(s)
	return w.setErr(err)
}

// StartDocument writes the XML declaration.
func (w *Writer) StartDocument() error {
	return w.write("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
}

// closePending terminates an open start tag before content follows it.
func (w *Writer) closePending() error {
	if !w.inTag {
		return w.err
	}
	w.inTag = false
	return w.write(">")
}

// StartElement opens a new element nested in the current one.
func (w *Writer) StartElement(name string) error {
	if err := w.closePending(); err != nil {
		return err
	}
	if err := w.write("<" + name); err != nil {
		return err
	}
	w.stack = append(w.stack, name)
	w.inTag = true
	return nil
}

// WriteAttribute attaches an attribute to the element whose start tag is
// still open. Calling it after the tag closed is a programming error.
func (w *Writer) WriteAttribute(name, value string) error {
	if w.err != nil {
		return w.err
	}
	if !w.inTag {
		return w.setErr(fmt.Errorf("xmlout: attribute %q outside a start tag", name))
	}
	return w.write(" " + name + "=\"" + escapeAttr(value) + "\"")
}

// WriteAttributeBase64 attaches an attribute whose value is the standard
// base64 encoding of data. Base64 output never needs XML escaping.
func (w *Writer) WriteAttributeBase64(name string, data []byte) error {
	if w.err != nil {
		return w.err
	}
	if !w.inTag {
		return w.setErr(fmt.Errorf("xmlout: attribute %q outside a start tag", name))
	}
	return w.write(" " + name + "=\"" + base64.StdEncoding.EncodeToString(data) + "\"")
}

// WriteString writes escaped character data inside the current element.
func (w *Writer) WriteString(text string) error {
	if err := w.closePending(); err != nil {
		return err
	}
	return w.write(escapeText(text))
}

// EndElement closes the current element, collapsing it to an empty-element
// tag when nothing was written inside.
func (w *Writer) EndElement() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) == 0 {
		return w.setErr(errors.New("xmlout: end element with no element open"))
	}
	name := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	if w.inTag {
		w.inTag = false
		return w.write("/>")
	}
	return w.write("</" + name + ">")
}

// EndDocument closes any elements still open, terminates the document with
// a newline and flushes the stream.
func (w *Writer) EndDocument() error {
	for len(w.stack) > 0 {
		if err := w.EndElement(); err != nil {
			return err
		}
	}
	if err := w.write("\n"); err != nil {
		return err
	}
	return w.setErr(w.out.Flush())
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"\n", "&#10;",
	"\t", "&#9;",
	"\r", "&#13;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#13;",
)

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
