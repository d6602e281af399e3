package source

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

// DecodeJSON reads a payload document:
//
//	{"variable": "t2m", "extents": [4, 256, 256], "time": 0, "latitude": 2,
//	 "longitude": 1, "level": null, "values": [...], "bound": [-180, -90, 180, 90]}
//
// Missing, null, and -1 axes are absent.
func DecodeJSON(b []byte) (*Payload, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: malformed json", ErrPayload)
	}
	doc := gjson.ParseBytes(b)
	p := &Payload{Variable: doc.Get("variable").String()}

	extents := doc.Get("extents")
	if !extents.IsArray() {
		return nil, fmt.Errorf("%w: extents must be an array", ErrPayload)
	}
	for _, e := range extents.Array() {
		n, ok := jsonInt(e)
		if !ok {
			return nil, fmt.Errorf("%w: extent %s is not an integer", ErrPayload, e.Raw)
		}
		p.Extents = append(p.Extents, n)
	}

	values := doc.Get("values")
	if !values.IsArray() {
		return nil, fmt.Errorf("%w: values must be an array", ErrPayload)
	}
	var bad error
	values.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.Number {
			bad = fmt.Errorf("%w: value %s is not a number", ErrPayload, v.Raw)
			return false
		}
		p.Values = append(p.Values, v.Float())
		return true
	})
	if bad != nil {
		return nil, bad
	}

	for key, dst := range map[string]**int{
		"time":      &p.Time,
		"level":     &p.Level,
		"latitude":  &p.Latitude,
		"longitude": &p.Longitude,
	} {
		v := doc.Get(key)
		switch v.Type {
		case gjson.Null:
		case gjson.Number:
			n, ok := jsonInt(v)
			if !ok {
				return nil, fmt.Errorf("%w: %s axis %s is not an integer", ErrPayload, key, v.Raw)
			}
			*dst = Index(n)
		default:
			return nil, fmt.Errorf("%w: %s axis must be an integer or null", ErrPayload, key)
		}
	}

	if b := doc.Get("bound"); b.Exists() {
		a := b.Array()
		if len(a) != 4 {
			return nil, fmt.Errorf("%w: bound must be [minLon, minLat, maxLon, maxLat]", ErrPayload)
		}
		p.Bound = &orb.Bound{
			Min: orb.Point{a[0].Float(), a[1].Float()},
			Max: orb.Point{a[2].Float(), a[3].Float()},
		}
	}
	return p, nil
}

// jsonInt reports whether v is a whole number that fits an int.
func jsonInt(v gjson.Result) (int, bool) {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, false
	}
	if v.Num >= math.MaxInt64 || v.Num < math.MinInt64 {
		return 0, false
	}
	return int(v.Int()), true
}

// JSONFile loads a payload document from disk on every Load.
type JSONFile struct {
	Path string
}

func (j *JSONFile) Name() string {
	return "json:" + j.Path
}

func (j *JSONFile) Load(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(j.Path)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(b)
}

var _ Source = (*JSONFile)(nil)
