package xmlout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterDocument(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartDocument())
	require.NoError(t, w.StartElement("hive"))
	require.NoError(t, w.StartElement("node"))
	require.NoError(t, w.WriteAttribute("name", "Root"))
	require.NoError(t, w.StartElement("mtime"))
	require.NoError(t, w.WriteString("1970-01-01T00:00:00Z"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	want := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<hive><node name=\"Root\"><mtime>1970-01-01T00:00:00Z</mtime></node></hive>\n"
	require.Equal(t, want, out.String())
}

func TestWriterSelfClosesEmptyElement(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartElement("byte_run"))
	require.NoError(t, w.WriteAttribute("file_offset", "4096"))
	require.NoError(t, w.EndElement())
	require.NoError(t, w.EndDocument())

	require.Equal(t, "<byte_run file_offset=\"4096\"/>\n", out.String())
}

func TestWriterAttributeEscaping(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartElement("e"))
	require.NoError(t, w.WriteAttribute("a", "x<y>&\"z\"\n\t\r"))
	require.NoError(t, w.EndDocument())

	require.Equal(t, "<e a=\"x&lt;y&gt;&amp;&quot;z&quot;&#10;&#9;&#13;\"/>\n", out.String())
}

func TestWriterTextEscaping(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartElement("e"))
	require.NoError(t, w.WriteString("a<b>&c\r"))
	require.NoError(t, w.EndDocument())

	require.Equal(t, "<e>a&lt;b&gt;&amp;c&#13;</e>\n", out.String())
}

func TestWriterAttributeBase64(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartElement("value"))
	require.NoError(t, w.WriteAttributeBase64("value", []byte{0xDE, 0xAD}))
	require.NoError(t, w.EndDocument())

	require.Equal(t, "<value value=\"3q0=\"/>\n", out.String())
}

func TestWriterAttributeOutsideStartTag(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartElement("e"))
	require.NoError(t, w.WriteString("text"))
	require.Error(t, w.WriteAttribute("late", "1"))
	require.Error(t, w.Err())
}

func TestWriterEndWithoutStart(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	require.Error(t, w.EndElement())
}

func TestWriterEndDocumentClosesOpenElements(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.StartElement("a"))
	require.NoError(t, w.StartElement("b"))
	require.NoError(t, w.EndDocument())

	require.Equal(t, "<a><b/></a>\n", out.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink closed")
}

func TestWriterStickyError(t *testing.T) {
	w := NewWriter(failWriter{})

	// bufio absorbs small writes; the flush surfaces the sink error and it
	// sticks for every later call.
	w.StartElement("e")
	require.Error(t, w.EndDocument())
	require.Error(t, w.Err())
	require.Error(t, w.StartElement("f"))
	require.Error(t, w.WriteAttribute("a", "1"))
}
