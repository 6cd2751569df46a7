package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/spf13/cast"
)

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool { return hasExt(filename, ".json") }

func (jsonLoader) Load(path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open json: %w", err)
	}
	defer f.Close()
	return ReadJSON(f, opt)
}

// ReadJSON reads an array of flat objects. Columns appear in the order keys
// are first seen; absent keys are missing.
func ReadJSON(r io.Reader, opt Options) (*dataset.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var order []string
	seen := map[string]bool{}
	var records []map[string]any
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		rec := map[string]any{}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
			}
			key, _ := tok.(string)
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", len(records)+1, key, err)
			}
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
			rec[key] = v
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	if len(order) == 0 {
		return dataset.Empty(), nil
	}
	cols := make([]*dataset.Column, len(order))
	for j, key := range order {
		vals := make([]dataset.Value, len(records))
		for i, rec := range records {
			v, err := jsonValue(rec[key], opt)
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", i+1, key, err)
			}
			vals[i] = v
		}
		cols[j] = dataset.NewColumn(key, vals...)
	}
	return dataset.New(cols...)
}

func jsonValue(v any, opt Options) (dataset.Value, error) {
	switch x := v.(type) {
	case nil:
		return dataset.Missing(), nil
	case bool:
		return dataset.Bool(x), nil
	case json.Number:
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return dataset.Missing(), fmt.Errorf("convert number: %w", err)
		}
		return dataset.Number(f), nil
	case string:
		return ParseCell(x, opt), nil
	default:
		// nested values are kept as their JSON text
		b, err := json.Marshal(x)
		if err != nil {
			return dataset.Missing(), fmt.Errorf("encode nested value: %w", err)
		}
		return dataset.String(cast.ToString(b)), nil
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected end of input, want %q", want)
	}
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
