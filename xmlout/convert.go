package xmlout

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/hivexml/hive"
)

// Options controls a conversion run.
type Options struct {
	// SkipBad logs and skips unreadable keys and values instead of
	// aborting on the first one.
	SkipBad bool
	// Logger receives warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Convert streams h as a complete XML document to out. The document wraps
// the traversal in a hive element carrying the hive-level mtime when one is
// recorded. The conversion is a single forward pass; the first unrecoverable
// error aborts it.
func Convert(h *hive.Hive, out io.Writer, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := NewWriter(out)
	w.StartDocument()
	w.StartElement("hive")

	if mtime := int64(h.LastWriteRaw()); mtime >= 0 {
		stamp, err := FiletimeTo8601(mtime)
		if err != nil {
			return fmt.Errorf("xmlout: hive mtime: %w", err)
		}
		if stamp != "" {
			w.StartElement("mtime")
			w.WriteString(stamp)
			w.EndElement()
		}
	}

	s := NewSerializer(w, opts.Logger)
	if err := h.Visit(s, hive.VisitOptions{SkipBad: opts.SkipBad, Logger: opts.Logger}); err != nil {
		return err
	}

	w.EndElement()
	return w.EndDocument()
}
