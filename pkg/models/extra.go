package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Extra keeps the JSON members a struct does not model, so fields added by
// newer tools survive a load/save cycle untouched.
type Extra map[string]json.RawMessage

var knownKeysCache sync.Map // reflect.Type -> map[string]bool

// knownKeys lists the lowercased json names of t's fields. encoding/json
// matches keys case-insensitively, so the extra bucket has to as well.
func knownKeys(t reflect.Type) map[string]bool {
	if cached, ok := knownKeysCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = f.Name
		}
		keys[strings.ToLower(name)] = true
	}
	knownKeysCache.Store(t, keys)
	return keys
}

// decodeWithExtra unmarshals data into dst (a pointer to a struct) and returns
// the members dst has no field for.
func decodeWithExtra(data []byte, dst interface{}) (Extra, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	known := knownKeys(reflect.TypeOf(dst).Elem())
	var extra Extra
	for k, v := range raw {
		if known[strings.ToLower(k)] {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = v
	}
	return extra, nil
}

// marshalPlain is json.Marshal without HTML escaping, so SQL comparison
// operators stay readable in the written file.
func marshalPlain(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeWithExtra marshals v and appends the extra members in key order.
func encodeWithExtra(v interface{}, extra Extra) ([]byte, error) {
	b, err := marshalPlain(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	first := len(b) <= 2
	for _, k := range keys {
		val := extra[k]
		if len(bytes.TrimSpace(val)) == 0 {
			val = json.RawMessage("null")
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, _ := json.Marshal(k)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
