package hive

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/hivexml/internal/buf"
	"github.com/joshuapare/hivexml/internal/format"
)

// Visitor receives the depth-first traversal of a hive. For each key the
// walk calls NodeStart, then exactly one typed method per value owned by
// that key, then recurses into subkeys, then calls NodeEnd. Any returned
// error aborts the traversal.
//
// String-bearing values whose payload is not well-formed UTF-16LE are
// delivered through ValueStringInvalid with the raw payload bytes; the
// data is never repaired.
type Visitor interface {
	NodeStart(n Node) error
	NodeEnd(n Node) error

	// ValueString receives REG_SZ, REG_EXPAND_SZ and REG_LINK payloads
	// decoded to UTF-8.
	ValueString(v Value, s string) error
	// ValueMultiString receives REG_MULTI_SZ payloads split into their
	// component strings.
	ValueMultiString(v Value, ss []string) error
	// ValueStringInvalid receives the raw payload of any string-bearing
	// type that failed UTF-16LE validation.
	ValueStringInvalid(v Value, raw []byte) error
	// ValueInt32 receives REG_DWORD and REG_DWORD_BIG_ENDIAN payloads.
	ValueInt32(v Value, x int32) error
	// ValueInt64 receives REG_QWORD payloads.
	ValueInt64(v Value, x int64) error
	// ValueBinary receives REG_BINARY payloads.
	ValueBinary(v Value, raw []byte) error
	// ValueNone receives REG_NONE payloads.
	ValueNone(v Value, raw []byte) error
	// ValueOther receives the resource-descriptor types and any type code
	// outside the known vocabulary.
	ValueOther(v Value, raw []byte) error
}

// VisitOptions controls traversal behavior.
type VisitOptions struct {
	// SkipBad makes the walk log and skip unreadable keys and values
	// instead of aborting on the first one.
	SkipBad bool
	// Logger receives skip warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Visit walks the whole tree rooted at the hive's root key and drives v.
func (h *Hive) Visit(v Visitor, opts VisitOptions) error {
	if err := h.ensureOpen(); err != nil {
		return err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	seen := newBitmap(uint32(len(h.buf)))
	return h.visitNode(h.Root(), v, opts, seen)
}

func (h *Hive) visitNode(id NodeID, v Visitor, opts VisitOptions, seen *bitmap) error {
	if seen.isSet(uint32(id)) {
		err := fmt.Errorf("hive: node %#x already visited, subkey lists contain a cycle", uint32(id))
		if opts.SkipBad {
			opts.Logger.Warn("skipping node", "offset", uint32(id), "err", err)
			return nil
		}
		return err
	}
	seen.set(uint32(id))

	node, err := h.node(id)
	if err != nil {
		if opts.SkipBad {
			opts.Logger.Warn("skipping unreadable node", "offset", uint32(id), "err", err)
			return nil
		}
		return err
	}
	if err := v.NodeStart(node); err != nil {
		return err
	}

	valueIDs, err := h.values(node)
	if err != nil {
		if !opts.SkipBad {
			return err
		}
		opts.Logger.Warn("skipping values of node", "node", node.Name, "err", err)
	}
	for _, vid := range valueIDs {
		if err := h.visitValue(vid, v, opts); err != nil {
			return err
		}
	}

	children, err := h.subkeys(node)
	if err != nil {
		if !opts.SkipBad {
			return err
		}
		opts.Logger.Warn("skipping subkeys of node", "node", node.Name, "err", err)
	}
	for _, child := range children {
		if err := h.visitNode(child, v, opts, seen); err != nil {
			return err
		}
	}

	return v.NodeEnd(node)
}

// visitValue loads one value and dispatches it to the typed visitor method
// matching its on-disk type.
func (h *Hive) visitValue(id ValueID, v Visitor, opts VisitOptions) error {
	val, data, err := h.value(id)
	if err != nil {
		if opts.SkipBad {
			opts.Logger.Warn("skipping unreadable value", "offset", uint32(id), "err", err)
			return nil
		}
		return err
	}

	switch val.Type {
	case format.RegSz, format.RegExpandSz, format.RegLink:
		if !ValidUTF16LE(data) {
			return v.ValueStringInvalid(val, data)
		}
		s, err := DecodeUTF16(data)
		if err != nil {
			return v.ValueStringInvalid(val, data)
		}
		return v.ValueString(val, s)

	case format.RegMultiSz:
		ss, err := DecodeMultiString(data)
		if err != nil || !ValidUTF16LE(data) {
			return v.ValueStringInvalid(val, data)
		}
		return v.ValueMultiString(val, ss)

	case format.RegDword, format.RegDwordBE:
		if len(data) < format.OffsetFieldSize {
			err := fmt.Errorf("hive: value %#x: dword payload is %d bytes", uint32(id), len(data))
			if opts.SkipBad {
				opts.Logger.Warn("skipping malformed value", "offset", uint32(id), "err", err)
				return nil
			}
			return err
		}
		var x int32
		if val.Type == format.RegDwordBE {
			x = int32(buf.U32BE(data))
		} else {
			x = buf.I32LE(data)
		}
		return v.ValueInt32(val, x)

	case format.RegQword:
		if len(data) < 8 {
			err := fmt.Errorf("hive: value %#x: qword payload is %d bytes", uint32(id), len(data))
			if opts.SkipBad {
				opts.Logger.Warn("skipping malformed value", "offset", uint32(id), "err", err)
				return nil
			}
			return err
		}
		return v.ValueInt64(val, int64(buf.U64LE(data)))

	case format.RegBinary:
		return v.ValueBinary(val, data)

	case format.RegNone:
		return v.ValueNone(val, data)

	default:
		// Resource-descriptor types and unknown type codes.
		return v.ValueOther(val, data)
	}
}
