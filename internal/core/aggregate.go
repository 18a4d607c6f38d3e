package core

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Bucket holds per-category sums for one period key.
type Bucket struct {
	Key  string
	Sums map[string]decimal.Decimal
}

// Group buckets records by period and sums amounts per category. Buckets are
// returned in order of first occurrence, not chronologically. Records whose
// date cannot be bucketed are skipped.
func Group(records []Record, p Period) []Bucket {
	var buckets []Bucket
	index := make(map[string]int)
	for _, r := range records {
		key, ok := BucketKey(r.Date, p)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Sums: make(map[string]decimal.Decimal)})
		}
		sums := buckets[i].Sums
		sums[r.Category] = sums[r.Category].Add(decimal.NewFromFloat(r.Amount))
	}
	return buckets
}

// LinePoint is one densified chart point: a bucket name plus one value for
// every known category, in category order.
type LinePoint struct {
	Name       string
	Categories []string
	Values     map[string]float64
}

// Value returns the category sum for this point; zero when absent.
func (p LinePoint) Value(category string) float64 {
	return p.Values[category]
}

// MarshalJSON renders {"name": ..., "<category>": value, ...} with the
// categories in their list order.
func (p LinePoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	name, err := json.Marshal(p.Name)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"name":`)
	buf.Write(name)
	for _, c := range p.Categories {
		if c == ReservedCategory {
			continue
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Values[c])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LineSeries densifies buckets against the full category list so every point
// exposes exactly the known categories, zero-filled. Categories seen in a
// bucket but missing from the list are dropped.
func LineSeries(buckets []Bucket, categories []string) []LinePoint {
	points := make([]LinePoint, 0, len(buckets))
	cats := append([]string(nil), categories...)
	for _, b := range buckets {
		values := make(map[string]float64, len(cats))
		for _, c := range cats {
			values[c] = b.Sums[c].InexactFloat64()
		}
		points = append(points, LinePoint{Name: b.Key, Categories: cats, Values: values})
	}
	return points
}
