package htm

import (
	"fmt"
	"io"
)

const (
	sdrMagic = "SDR"
	sdrEnd   = "~SDR"
)

// Save writes an ASCII, line-based record of the SDR to w: a magic token,
// the rank, that many dimensions, a hasValue flag, and — if set — the
// flat-sparse count followed by that many ascending indices, then an end
// token. Multiple records may be written to the same stream and read back
// with successive Load calls.
func (s *SDR) Save(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s %d", sdrMagic, len(s.dims)); err != nil {
		return err
	}
	for _, d := range s.dims {
		if _, err := fmt.Fprintf(w, " %d", d); err != nil {
			return err
		}
	}
	hasValue := s.hasValue()
	if _, err := fmt.Fprintf(w, " %d", boolToInt(hasValue)); err != nil {
		return err
	}
	if hasValue {
		flat, err := s.GetFlatSparse()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, " %d", len(flat)); err != nil {
			return err
		}
		for _, idx := range flat {
			if _, err := fmt.Fprintf(w, " %d", idx); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, " %s\n", sdrEnd)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Load reads one ASCII record from r (as written by Save) into a fresh SDR.
// It tolerates being called repeatedly against the same stream to read
// consecutive records.
func Load(r io.Reader) (*SDR, error) {
	var magic string
	if _, err := fmt.Fscan(r, &magic); err != nil {
		return nil, err
	}
	if magic != sdrMagic {
		return nil, errShapeMismatch("magic", "expected %q, got %q", sdrMagic, magic)
	}
	var rank int
	if _, err := fmt.Fscan(r, &rank); err != nil {
		return nil, err
	}
	dims := make([]int, rank)
	for i := range dims {
		if _, err := fmt.Fscan(r, &dims[i]); err != nil {
			return nil, err
		}
	}
	var hasValueFlag int
	if _, err := fmt.Fscan(r, &hasValueFlag); err != nil {
		return nil, err
	}
	sdr := New(dims)
	if hasValueFlag != 0 {
		var count int
		if _, err := fmt.Fscan(r, &count); err != nil {
			return nil, err
		}
		flat := make([]int, count)
		for i := range flat {
			if _, err := fmt.Fscan(r, &flat[i]); err != nil {
				return nil, err
			}
		}
		if err := sdr.SetFlatSparse(flat); err != nil {
			return nil, err
		}
	}
	var end string
	if _, err := fmt.Fscan(r, &end); err != nil {
		return nil, err
	}
	if end != sdrEnd {
		return nil, errShapeMismatch("end", "expected %q, got %q", sdrEnd, end)
	}
	return sdr, nil
}
