package xmlout

import (
	"log/slog"
	"strconv"

	"github.com/joshuapare/hivexml/hive"
	"github.com/joshuapare/hivexml/internal/format"
)

// Serializer renders traversal events as XML elements. It implements
// hive.Visitor; the traversal owns the document between the <hive> open and
// close tags, and every callback leaves the stream balanced.
type Serializer struct {
	w   *Writer
	log *slog.Logger
}

// NewSerializer builds a Serializer over an open writer.
func NewSerializer(w *Writer, log *slog.Logger) *Serializer {
	if log == nil {
		log = slog.Default()
	}
	return &Serializer{w: w, log: log}
}

// safeStringAttribute writes data as the attrName attribute, classifying it
// first: printable text goes in directly, everything else is base64-escaped
// with a companion encAttrName="base64" attribute written before it. An
// unrecognized classification drops the attribute; callers treat that as a
// warning, not a failure.
func (s *Serializer) safeStringAttribute(attrName, encAttrName, data string) {
	data = TruncateAtNUL(data)
	switch enc := Classify(data); enc {
	case EncodingDirect:
		s.w.WriteAttribute(attrName, data)
	case EncodingBase64:
		s.w.WriteAttribute(encAttrName, "base64")
		s.w.WriteAttributeBase64(attrName, []byte(data))
	default:
		s.log.Warn("unexpected encoding classification, dropping attribute",
			"attr", attrName, "encoding", int(enc))
	}
}

// NodeStart opens the node element with its name, root marker, mtime and
// byte run. Children stream in before the matching NodeEnd.
func (s *Serializer) NodeStart(n hive.Node) error {
	s.w.StartElement("node")
	s.safeStringAttribute("name", "name_encoding", n.Name)
	if n.Root {
		s.w.WriteAttribute("root", "1")
	}
	if mtime := int64(n.LastWriteRaw); mtime >= 0 {
		stamp, err := FiletimeTo8601(mtime)
		if err != nil {
			return err
		}
		if stamp != "" {
			s.w.StartElement("mtime")
			s.w.WriteString(stamp)
			s.w.EndElement()
		}
	}
	s.nodeByteRuns(n)
	return s.w.Err()
}

// NodeEnd closes the node element.
func (s *Serializer) NodeEnd(n hive.Node) error {
	return s.w.EndElement()
}

// nodeByteRuns emits the single provenance run covering the key record.
func (s *Serializer) nodeByteRuns(n hive.Node) {
	s.w.StartElement("byte_runs")
	s.w.StartElement("byte_run")
	s.w.WriteAttribute("file_offset", strconv.FormatUint(n.FileOffset(), 10))
	s.w.WriteAttribute("len", strconv.Itoa(n.StructLen))
	s.w.EndElement()
	s.w.EndElement()
}

// valueByteRuns emits provenance for a value: always one run covering the
// value record, plus a second covering the data cell when the payload is
// stored out of line (more than 4 bytes).
func (s *Serializer) valueByteRuns(v hive.Value) {
	s.w.StartElement("byte_runs")
	s.w.StartElement("byte_run")
	s.w.WriteAttribute("file_offset", strconv.FormatUint(v.FileOffset(), 10))
	s.w.WriteAttribute("len", strconv.Itoa(v.StructLen))
	s.w.EndElement()
	if v.DataCellLen > 4 {
		s.w.StartElement("byte_run")
		s.w.WriteAttribute("file_offset", strconv.FormatUint(v.DataCellFileOffset(), 10))
		s.w.WriteAttribute("len", strconv.Itoa(v.DataCellLen))
		s.w.EndElement()
	}
	s.w.EndElement()
}

// startValue opens a value element: type tag first, then a forced encoding
// marker when the content is unconditionally escaped, then the key
// attribute, or default="1" when the value is the key's default one.
func (s *Serializer) startValue(v hive.Value, typeTag, forcedEncoding string) {
	s.w.StartElement("value")
	s.w.WriteAttribute("type", typeTag)
	if forcedEncoding != "" {
		s.w.WriteAttribute("value_encoding", forcedEncoding)
	}
	if v.Key != "" {
		s.safeStringAttribute("key", "key_encoding", v.Key)
	} else {
		s.w.WriteAttribute("default", "1")
	}
}

// ValueString emits plain, expandable and link strings with a
// safety-classified value attribute.
func (s *Serializer) ValueString(v hive.Value, str string) error {
	var typeTag string
	switch v.Type {
	case format.RegSz:
		typeTag = "string"
	case format.RegExpandSz:
		typeTag = "expand"
	case format.RegLink:
		typeTag = "link"
	default:
		typeTag = "unknown"
	}
	s.startValue(v, typeTag, "")
	s.safeStringAttribute("value", "value_encoding", str)
	s.valueByteRuns(v)
	return s.w.EndElement()
}

// ValueMultiString emits one string child per list item.
func (s *Serializer) ValueMultiString(v hive.Value, ss []string) error {
	s.startValue(v, "string-list", "")
	for _, item := range ss {
		s.w.StartElement("string")
		s.safeStringAttribute("value", "value_encoding", item)
		s.w.EndElement()
	}
	s.valueByteRuns(v)
	return s.w.EndElement()
}

// ValueStringInvalid emits malformed text values verbatim: the raw payload
// bytes are always base64-escaped, never run through the classifier, and
// the type tag is prefixed to mark the data as bad.
func (s *Serializer) ValueStringInvalid(v hive.Value, raw []byte) error {
	var typeTag string
	switch v.Type {
	case format.RegSz:
		typeTag = "bad-string"
	case format.RegExpandSz:
		typeTag = "bad-expand"
	case format.RegLink:
		typeTag = "bad-link"
	case format.RegMultiSz:
		typeTag = "bad-string-list"
	default:
		typeTag = "unknown"
	}
	s.startValue(v, typeTag, "base64")
	s.w.WriteAttributeBase64("value", raw)
	s.valueByteRuns(v)
	return s.w.EndElement()
}

// ValueInt32 emits REG_DWORD values as signed decimal.
func (s *Serializer) ValueInt32(v hive.Value, x int32) error {
	s.startValue(v, "int32", "")
	s.w.WriteAttribute("value", strconv.FormatInt(int64(x), 10))
	s.valueByteRuns(v)
	return s.w.EndElement()
}

// ValueInt64 emits REG_QWORD values as signed decimal.
func (s *Serializer) ValueInt64(v hive.Value, x int64) error {
	s.startValue(v, "int64", "")
	s.w.WriteAttribute("value", strconv.FormatInt(x, 10))
	s.valueByteRuns(v)
	return s.w.EndElement()
}

// ValueBinary emits binary blobs base64-escaped, including empty ones.
func (s *Serializer) ValueBinary(v hive.Value, raw []byte) error {
	s.startValue(v, "binary", "base64")
	s.w.WriteAttributeBase64("value", raw)
	s.valueByteRuns(v)
	return s.w.EndElement()
}

// ValueNone emits typeless values. The value attribute and byte runs appear
// only when a payload exists; the encoding marker is written regardless.
func (s *Serializer) ValueNone(v hive.Value, raw []byte) error {
	s.startValue(v, "none", "base64")
	if v.Len > 0 {
		s.w.WriteAttributeBase64("value", raw)
		s.valueByteRuns(v)
	}
	return s.w.EndElement()
}

// ValueOther emits the resource-descriptor types and unknown type codes the
// same way as ValueNone, distinguished only by tag.
func (s *Serializer) ValueOther(v hive.Value, raw []byte) error {
	var typeTag string
	switch v.Type {
	case format.RegResourceList:
		typeTag = "resource-list"
	case format.RegFullResourceDescriptor:
		typeTag = "resource-description"
	case format.RegResourceRequirementsList:
		typeTag = "resource-requirements"
	default:
		typeTag = "unknown"
	}
	s.startValue(v, typeTag, "base64")
	if v.Len > 0 {
		s.w.WriteAttributeBase64("value", raw)
		s.valueByteRuns(v)
	}
	return s.w.EndElement()
}
