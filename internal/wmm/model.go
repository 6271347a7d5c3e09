package wmm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Spherical-harmonic truncation degrees for the two model resolutions.
const (
	MaxDegreeStandard       = 12  // WMM
	MaxDegreeHighResolution = 133 // WMMHR
)

// Model holds a loaded coefficient set, fully converted to the unnormalized
// convention, plus the precomputed Legendre recursion factors. A Model is
// immutable after load and safe for concurrent Evaluate calls.
type Model struct {
	maxDegree   int
	epoch       float64
	name        string
	releaseDate string

	// Triangular (degree, order) tables, indexed via triIdx. The g tables
	// hold the cosine-order terms for 0 <= m <= n; the h tables hold the
	// sine-order terms, which exist only for m >= 1.
	g    []float64
	h    []float64
	gDot []float64
	hDot []float64

	// k holds the three-term recursion factor
	// K(n,m) = ((n-1)^2 - m^2) / ((2n-1)(2n-3)), with K(1,1) forced to 0.
	k []float64
}

// triIdx maps a (degree, order) pair with m <= n onto the packed
// triangular table offset.
func triIdx(n, m int) int {
	return n*(n+1)/2 + m
}

// triSize is the table length needed to hold all (n, m) with m <= n <= maxDegree.
func triSize(maxDegree int) int {
	return triIdx(maxDegree, maxDegree) + 1
}

// Epoch returns the model's reference decimal year.
func (m *Model) Epoch() float64 { return m.epoch }

// Name returns the model name from the file header, e.g. "WMM-2025".
func (m *Model) Name() string { return m.name }

// ReleaseDate returns the release tag from the file header.
func (m *Model) ReleaseDate() string { return m.releaseDate }

// MaxDegree returns the truncation degree: 12 standard, 133 high resolution.
func (m *Model) MaxDegree() int { return m.maxDegree }

// HighResolution reports whether the model was loaded at WMMHR resolution.
func (m *Model) HighResolution() bool { return m.maxDegree == MaxDegreeHighResolution }

// LoadModel reads a NOAA-format coefficient file (.COF) from disk.
// The returned error wraps fs.ErrNotExist when the file is missing.
func LoadModel(path string, highResolution bool) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coefficient file: %w", err)
	}
	defer f.Close()

	m, err := ReadModel(f, highResolution)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}

// ReadModel parses a coefficient stream.
//
// The format is whitespace-delimited text: one header record
// (epoch, model name, release date) followed by coefficient records
// (n, m, g, h, gDot, hDot). Reading stops at the 9999 end marker, at end
// of stream, or at the first record whose order exceeds the truncation
// degree (a higher-resolution file read at standard resolution).
func ReadModel(r io.Reader, highResolution bool) (*Model, error) {
	maxDegree := MaxDegreeStandard
	if highResolution {
		maxDegree = MaxDegreeHighResolution
	}

	sc := bufio.NewScanner(r)

	epoch, name, release, err := readHeader(sc)
	if err != nil {
		return nil, err
	}

	size := triSize(maxDegree)
	m := &Model{
		maxDegree:   maxDegree,
		epoch:       epoch,
		name:        name,
		releaseDate: release,
		g:           make([]float64, size),
		h:           make([]float64, size),
		gDot:        make([]float64, size),
		hDot:        make([]float64, size),
		k:           make([]float64, size),
	}

	if err := m.readRecords(sc); err != nil {
		return nil, err
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read coefficient stream: %w", err)
	}

	m.unnormalize()
	return m, nil
}

// readHeader consumes the first non-blank line: <epoch> <name> <release>.
func readHeader(sc *bufio.Scanner) (epoch float64, name, release string, err error) {
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return 0, "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, sc.Text())
		}
		epoch, err = strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, "", "", fmt.Errorf("%w: epoch %q", ErrMalformedHeader, fields[0])
		}
		return epoch, fields[1], fields[2], nil
	}
	return 0, "", "", fmt.Errorf("%w: empty stream", ErrMalformedHeader)
}

// readRecords ingests coefficient records until the end marker, end of
// stream, or model truncation. Records are stored raw (still Schmidt
// semi-normalized); unnormalize runs afterwards.
func (m *Model) readRecords(sc *bufio.Scanner) error {
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		// The end-of-file marker is a line of nines; anything that does not
		// parse as a record terminates ingestion, matching end of stream.
		n, err := strconv.Atoi(fields[0])
		if err != nil || n == 9999 {
			return nil
		}
		if len(fields) < 6 {
			return nil
		}
		order, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil
		}
		var vals [4]float64 // g, h, gDot, hDot
		for i := range vals {
			vals[i], err = strconv.ParseFloat(fields[2+i], 64)
			if err != nil {
				return nil
			}
		}

		// A record past the truncation degree means the file carries more
		// resolution than requested; stop without error.
		if order > m.maxDegree {
			return nil
		}
		if order > n || order < 0 || n < 0 || n > m.maxDegree {
			return fmt.Errorf("%w: n=%d m=%d", ErrCorruptRecord, n, order)
		}

		i := triIdx(n, order)
		m.g[i] = vals[0]
		m.gDot[i] = vals[2]
		if order != 0 {
			m.h[i] = vals[1]
			m.hDot[i] = vals[3]
		}
	}
	return nil
}

// unnormalize converts the Schmidt semi-normalized Gauss coefficients to
// the unnormalized convention and fills the Legendre recursion factor
// table. The normalization scalars form a recursion across (n, m) — each
// value extends the previous order's within the degree, and order zero
// extends the previous degree's — so the accumulation order (increasing m
// within increasing n) must not change.
func (m *Model) unnormalize() {
	sn := make([]float64, triSize(m.maxDegree)) // load-local scratch
	sn[triIdx(0, 0)] = 1.0

	for n := 1; n <= m.maxDegree; n++ {
		sn[triIdx(n, 0)] = sn[triIdx(n-1, 0)] * float64(2*n-1) / float64(n)
		j := 2
		for order := 0; order <= n; order++ {
			i := triIdx(n, order)
			m.k[i] = float64((n-1)*(n-1)-order*order) / float64((2*n-1)*(2*n-3))

			if order > 0 {
				flnmj := float64((n-order+1)*j) / float64(n+order)
				sn[i] = sn[triIdx(n, order-1)] * math.Sqrt(flnmj)
				j = 1
				m.h[i] *= sn[i]
				m.hDot[i] *= sn[i]
			}
			m.g[i] *= sn[i]
			m.gDot[i] *= sn[i]
		}
	}

	// Degenerate base case: K(1,1) never participates in the recursion.
	m.k[triIdx(1, 1)] = 0.0
}
