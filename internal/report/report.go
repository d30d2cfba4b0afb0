// Package report ranks measurement outcomes and exports them as CSV, JSON,
// PNG bar charts and terminal tables.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

// ErrBadShots is returned when probabilities are requested for a
// non-positive shot count.
var ErrBadShots = errors.New("shot count must be positive")

// Entry is one measured bitstring and how often it occurred.
type Entry struct {
	Bitstring string `json:"bitstring"`
	Count     int    `json:"count"`
}

// TopK returns the k most frequent outcomes by descending count. Equal
// counts are ordered by bitstring. k <= 0 returns every outcome.
func TopK(counts map[string]int, k int) []Entry {
	entries := make([]Entry, 0, len(counts))
	for b, n := range counts {
		entries = append(entries, Entry{Bitstring: b, Count: n})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Bitstring, b.Bitstring)
	})
	if k > 0 && len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// Record is one row of the results table.
type Record struct {
	Circuit     string  `json:"circuit"`
	Rank        int     `json:"rank"`
	Bitstring   string  `json:"bitstring"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// Records numbers the entries from rank 1 and attaches count/shots.
func Records(label string, top []Entry, shots int) ([]Record, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadShots, shots)
	}
	rows := make([]Record, len(top))
	for i, e := range top {
		rows[i] = Record{
			Circuit:     label,
			Rank:        i + 1,
			Bitstring:   e.Bitstring,
			Count:       e.Count,
			Probability: float64(e.Count) / float64(shots),
		}
	}
	return rows, nil
}

var csvHeader = []string{"circuit", "rank", "bitstring", "count", "probability"}

// WriteCSV writes the header and one line per record.
func WriteCSV(w io.Writer, rows []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		err := cw.Write([]string{
			r.Circuit,
			strconv.Itoa(r.Rank),
			r.Bitstring,
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Probability, 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the records to path, replacing any existing file.
func WriteCSVFile(path string, rows []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return f.Close()
}

// HellingerFidelity returns (Σ√(p·q))² between two count distributions,
// 1 for identical distributions and 0 for disjoint ones.
func HellingerFidelity(a, b map[string]int) float64 {
	ta, tb := total(a), total(b)
	if ta == 0 || tb == 0 {
		return 0
	}
	bc := 0.0
	for k, na := range a {
		if nb, ok := b[k]; ok {
			bc += math.Sqrt(float64(na) / float64(ta) * float64(nb) / float64(tb))
		}
	}
	return bc * bc
}

// TotalVariation returns half the L1 distance between two count
// distributions.
func TotalVariation(a, b map[string]int) float64 {
	ta, tb := total(a), total(b)
	if ta == 0 || tb == 0 {
		return 1
	}
	d := 0.0
	for k, na := range a {
		d += math.Abs(float64(na)/float64(ta) - float64(b[k])/float64(tb))
	}
	for k, nb := range b {
		if _, ok := a[k]; !ok {
			d += float64(nb) / float64(tb)
		}
	}
	return d / 2
}

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
