package hive

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivexml/internal/format"
	"github.com/joshuapare/hivexml/internal/testutil"
)

type event struct {
	kind string
	name string // node name or value key
	str  string
	ss   []string
	raw  []byte
	num  int64
	val  Value
	node Node
}

type recordingVisitor struct {
	events []event
}

func (r *recordingVisitor) NodeStart(n Node) error {
	r.events = append(r.events, event{kind: "start", name: n.Name, node: n})
	return nil
}

func (r *recordingVisitor) NodeEnd(n Node) error {
	r.events = append(r.events, event{kind: "end", name: n.Name, node: n})
	return nil
}

func (r *recordingVisitor) ValueString(v Value, s string) error {
	r.events = append(r.events, event{kind: "string", name: v.Key, str: s, val: v})
	return nil
}

func (r *recordingVisitor) ValueMultiString(v Value, ss []string) error {
	r.events = append(r.events, event{kind: "multi", name: v.Key, ss: ss, val: v})
	return nil
}

func (r *recordingVisitor) ValueStringInvalid(v Value, raw []byte) error {
	r.events = append(r.events, event{kind: "invalid", name: v.Key, raw: raw, val: v})
	return nil
}

func (r *recordingVisitor) ValueInt32(v Value, x int32) error {
	r.events = append(r.events, event{kind: "int32", name: v.Key, num: int64(x), val: v})
	return nil
}

func (r *recordingVisitor) ValueInt64(v Value, x int64) error {
	r.events = append(r.events, event{kind: "int64", name: v.Key, num: x, val: v})
	return nil
}

func (r *recordingVisitor) ValueBinary(v Value, raw []byte) error {
	r.events = append(r.events, event{kind: "binary", name: v.Key, raw: raw, val: v})
	return nil
}

func (r *recordingVisitor) ValueNone(v Value, raw []byte) error {
	r.events = append(r.events, event{kind: "none", name: v.Key, raw: raw, val: v})
	return nil
}

func (r *recordingVisitor) ValueOther(v Value, raw []byte) error {
	r.events = append(r.events, event{kind: "other", name: v.Key, raw: raw, val: v})
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVisitOrderAndRootFlag(t *testing.T) {
	grandchild := &testutil.Key{Name: "Grandchild"}
	childA := &testutil.Key{
		Name:    "ChildA",
		Values:  []*testutil.Value{{Name: "V", Type: format.RegDword, Data: []byte{7, 0, 0, 0}}},
		Subkeys: []*testutil.Key{grandchild},
	}
	childB := &testutil.Key{Name: "ChildB"}
	root := &testutil.Key{
		Name:    "Root",
		Values:  []*testutil.Value{{Name: "RootVal", Type: format.RegDword, Data: []byte{1, 0, 0, 0}}},
		Subkeys: []*testutil.Key{childA, childB},
	}
	built := testutil.Build(root, 0)

	h, err := OpenBytes(built.Image)
	require.NoError(t, err)
	defer h.Close()

	rec := &recordingVisitor{}
	require.NoError(t, h.Visit(rec, VisitOptions{Logger: quietLogger()}))

	var got []string
	for _, e := range rec.events {
		got = append(got, e.kind+":"+e.name)
	}
	require.Equal(t, []string{
		"start:Root",
		"int32:RootVal",
		"start:ChildA",
		"int32:V",
		"start:Grandchild",
		"end:Grandchild",
		"end:ChildA",
		"start:ChildB",
		"end:ChildB",
		"end:Root",
	}, got)

	require.True(t, rec.events[0].node.Root)
	for _, e := range rec.events[1:] {
		if e.kind == "start" {
			require.False(t, e.node.Root, "non-root node %s flagged as root", e.name)
		}
	}
}

func TestVisitTypedDispatch(t *testing.T) {
	values := []*testutil.Value{
		{Name: "Str", Type: format.RegSz, Data: testutil.UTF16LEBytes("hello", true)},
		{Name: "Exp", Type: format.RegExpandSz, Data: testutil.UTF16LEBytes("%PATH%", true)},
		{Name: "Lnk", Type: format.RegLink, Data: testutil.UTF16LEBytes("target", true)},
		{Name: "BadStr", Type: format.RegSz, Data: []byte{0x41}},
		{Name: "Multi", Type: format.RegMultiSz, Data: testutil.MultiSZBytes("one", "two")},
		{Name: "BadMulti", Type: format.RegMultiSz, Data: testutil.UTF16LEBytes("noterm", false)},
		{Name: "Dw", Type: format.RegDword, Data: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{Name: "DwBE", Type: format.RegDwordBE, Data: []byte{0, 0, 0, 9}},
		{Name: "Qw", Type: format.RegQword, Data: []byte{1, 0, 0, 0, 0, 0, 0, 0x80}},
		{Name: "Bin", Type: format.RegBinary, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}},
		{Name: "Non", Type: format.RegNone},
		{Name: "Res", Type: format.RegResourceList, Data: []byte{1, 2, 3, 4, 5}},
		{Name: "Odd", Type: 0x7FFF, Data: []byte{9, 9}},
	}
	root := &testutil.Key{Name: "Root", Values: values}
	built := testutil.Build(root, 0)

	h, err := OpenBytes(built.Image)
	require.NoError(t, err)
	defer h.Close()

	rec := &recordingVisitor{}
	require.NoError(t, h.Visit(rec, VisitOptions{Logger: quietLogger()}))

	byKey := make(map[string]event)
	for _, e := range rec.events {
		if e.kind != "start" && e.kind != "end" {
			byKey[e.name] = e
		}
	}
	require.Len(t, byKey, len(values))

	require.Equal(t, "string", byKey["Str"].kind)
	require.Equal(t, "hello", byKey["Str"].str)
	require.Equal(t, "string", byKey["Exp"].kind)
	require.Equal(t, "%PATH%", byKey["Exp"].str)
	require.Equal(t, "string", byKey["Lnk"].kind)
	require.Equal(t, "target", byKey["Lnk"].str)

	require.Equal(t, "invalid", byKey["BadStr"].kind)
	require.Equal(t, []byte{0x41}, byKey["BadStr"].raw)

	require.Equal(t, "multi", byKey["Multi"].kind)
	require.Equal(t, []string{"one", "two"}, byKey["Multi"].ss)
	require.Equal(t, "invalid", byKey["BadMulti"].kind)

	require.Equal(t, "int32", byKey["Dw"].kind)
	require.Equal(t, int64(-1), byKey["Dw"].num)
	require.Equal(t, "int32", byKey["DwBE"].kind)
	require.Equal(t, int64(9), byKey["DwBE"].num)

	require.Equal(t, "int64", byKey["Qw"].kind)
	require.Equal(t, int64(math.MinInt64+1), byKey["Qw"].num)

	require.Equal(t, "binary", byKey["Bin"].kind)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}, byKey["Bin"].raw)

	require.Equal(t, "none", byKey["Non"].kind)
	require.Empty(t, byKey["Non"].raw)

	require.Equal(t, "other", byKey["Res"].kind)
	require.Equal(t, "other", byKey["Odd"].kind)
}

func TestVisitBinaryStartingWithDBSignature(t *testing.T) {
	// An out-of-line payload that begins with the db signature bytes is
	// still plain data unless it is large enough to need Big Data storage.
	payload := []byte{'d', 'b', 0x10, 0x20, 0x30, 0x40, 0x50, 0x60}
	bin := &testutil.Value{Name: "Bin", Type: format.RegBinary, Data: payload}
	root := &testutil.Key{Name: "Root", Values: []*testutil.Value{bin}}
	built := testutil.Build(root, 0)

	h, err := OpenBytes(built.Image)
	require.NoError(t, err)
	defer h.Close()

	rec := &recordingVisitor{}
	require.NoError(t, h.Visit(rec, VisitOptions{Logger: quietLogger()}))
	require.Len(t, rec.events, 3)
	require.Equal(t, "binary", rec.events[1].kind)
	require.Equal(t, payload, rec.events[1].raw)
	require.Equal(t, built.DataOffsets[bin], rec.events[1].val.DataCellOffset)
}

func TestVisitSkipBad(t *testing.T) {
	bad := &testutil.Value{Name: "Bad", Type: format.RegSz, Data: testutil.UTF16LEBytes("x", true)}
	good := &testutil.Value{Name: "Good", Type: format.RegDword, Data: []byte{1, 0, 0, 0}}
	root := &testutil.Key{Name: "Root", Values: []*testutil.Value{bad, good}}
	built := testutil.Build(root, 0)

	// Stomp the VK signature of the first value.
	abs := format.HeaderSize + int(built.ValueOffsets[bad]) + format.CellHeaderSize
	built.Image[abs] = 'x'
	built.Image[abs+1] = 'x'

	h, err := OpenBytes(built.Image)
	require.NoError(t, err)
	defer h.Close()

	rec := &recordingVisitor{}
	err = h.Visit(rec, VisitOptions{Logger: quietLogger()})
	require.ErrorIs(t, err, format.ErrSignatureMismatch)

	rec = &recordingVisitor{}
	require.NoError(t, h.Visit(rec, VisitOptions{SkipBad: true, Logger: quietLogger()}))
	var kinds []string
	for _, e := range rec.events {
		kinds = append(kinds, e.kind)
	}
	require.Equal(t, []string{"start", "int32", "end"}, kinds)
}

func TestVisitDetectsCycle(t *testing.T) {
	child := &testutil.Key{Name: "Child"}
	root := &testutil.Key{Name: "Root", Subkeys: []*testutil.Key{child}}
	built := testutil.Build(root, 0)

	h, err := OpenBytes(built.Image)
	require.NoError(t, err)
	n, err := h.node(h.Root())
	require.NoError(t, err)
	require.NoError(t, h.Close())

	// Point the subkey list's only entry back at the root.
	entry := format.HeaderSize + int(n.subkeyListOffset) + format.CellHeaderSize + format.ListHeaderSize
	format.PutU32(built.Image, entry, built.KeyOffsets[root])

	h, err = OpenBytes(built.Image)
	require.NoError(t, err)
	defer h.Close()

	err = h.Visit(&recordingVisitor{}, VisitOptions{Logger: quietLogger()})
	require.ErrorContains(t, err, "cycle")

	require.NoError(t, h.Visit(&recordingVisitor{}, VisitOptions{SkipBad: true, Logger: quietLogger()}))
}

func TestVisitMalformedDwordFails(t *testing.T) {
	root := &testutil.Key{
		Name:   "Root",
		Values: []*testutil.Value{{Name: "Short", Type: format.RegDword, Data: []byte{1, 2}}},
	}
	built := testutil.Build(root, 0)

	h, err := OpenBytes(built.Image)
	require.NoError(t, err)
	defer h.Close()

	err = h.Visit(&recordingVisitor{}, VisitOptions{Logger: quietLogger()})
	require.ErrorContains(t, err, "dword payload")

	rec := &recordingVisitor{}
	require.NoError(t, h.Visit(rec, VisitOptions{SkipBad: true, Logger: quietLogger()}))
	require.Len(t, rec.events, 2) // start and end only
}
