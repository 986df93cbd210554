package files

import (
	"strconv"
	"strings"

	"github.com/scholarsync/scholarsync_server/internal/blob"
)

// parseRange interprets an HTTP Range header against a blob of the given
// size. Malformed or unsatisfiable ranges report ok=false and the caller
// degrades to a full-content response instead of erroring. Only the first
// range of a multi-range request is honored.
func parseRange(header string, size int64) (rng blob.Range, ok bool) {
	if size <= 0 || !strings.HasPrefix(header, "bytes=") {
		return blob.Range{}, false
	}

	spec := strings.TrimPrefix(header, "bytes=")
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}
	spec = strings.TrimSpace(spec)

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return blob.Range{}, false
	}

	switch {
	// bytes=A-B
	case parts[0] != "" && parts[1] != "":
		start, err1 := strconv.ParseInt(parts[0], 10, 64)
		end, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err1 != nil || err2 != nil || start < 0 || end < start || start >= size {
			return blob.Range{}, false
		}
		if end >= size {
			end = size - 1
		}
		return blob.Range{Start: start, End: end}, true

	// bytes=A- (from A to the end)
	case parts[0] != "":
		start, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || start < 0 || start >= size {
			return blob.Range{}, false
		}
		return blob.Range{Start: start, End: size - 1}, true

	// bytes=-N (last N bytes)
	case parts[1] != "":
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n <= 0 {
			return blob.Range{}, false
		}
		if n > size {
			n = size
		}
		return blob.Range{Start: size - n, End: size - 1}, true
	}

	return blob.Range{}, false
}
