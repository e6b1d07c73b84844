package database

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	dayLayout,
}

// Decode copies a row onto a struct using its db tags. Storage engines disagree on how
// flags, decimals and timestamps come back, so conversion is weakly typed.
func Decode(row Row, out any) error {
	dec, err := newDecoder(out)
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(row))
}

// DecodeAll decodes rows into a pointer to a slice of structs.
func DecodeAll(rows []Row, out any) error {
	plain := make([]map[string]any, len(rows))
	for i, r := range rows {
		plain[i] = r
	}
	dec, err := newDecoder(out)
	if err != nil {
		return err
	}
	return dec.Decode(plain)
}

func newDecoder(out any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			numberHook,
			timeHook,
		),
	})
}

func numberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	case reflect.String:
		return n.String(), nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	return n.Float64()
}

func timeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as a timestamp", s)
}
