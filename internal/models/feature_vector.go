package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// FeatureVector carries one value for every schema field, in schema order.
// Its key set cannot differ from the schema's.
type FeatureVector struct {
	values [FeatureCount]float64
}

// Get returns the value for key; ok is false for keys outside the schema.
func (v FeatureVector) Get(key FieldKey) (float64, bool) {
	i, ok := schemaIndex[key]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Value is Get for keys known to be in the schema.
func (v FeatureVector) Value(key FieldKey) float64 {
	val, _ := v.Get(key)
	return val
}

// Set is used by the normalizer; it ignores keys outside the schema.
func (v *FeatureVector) Set(key FieldKey, val float64) {
	if i, ok := schemaIndex[key]; ok {
		v.values[i] = val
	}
}

func (v FeatureVector) Map() map[string]interface{} {
	out := make(map[string]interface{}, FeatureCount)
	for i, spec := range featureSchema {
		out[string(spec.Key)] = v.jsonValue(i)
	}
	return out
}

func (v FeatureVector) jsonValue(i int) interface{} {
	if featureSchema[i].Type == FieldTypeDecimal {
		return v.values[i]
	}
	return int64(math.Round(v.values[i]))
}

// MarshalJSON writes the keys in schema order. Binary and integer fields are
// written as integers.
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, spec := range featureSchema {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v.values[i]) || math.IsInf(v.values[i], 0) {
			return nil, fmt.Errorf("field %s: non-finite value", spec.Key)
		}
		buf.WriteString(strconv.Quote(string(spec.Key)))
		buf.WriteByte(':')
		val, err := json.Marshal(v.jsonValue(i))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", spec.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MissingKeysError reports a decoded vector that lacks schema keys.
type MissingKeysError struct {
	Keys []FieldKey
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("feature vector is missing %d schema keys: %v", len(e.Keys), e.Keys)
}

// UnmarshalJSON requires every schema key to be present with a numeric
// value. Keys outside the schema are ignored.
func (v *FeatureVector) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out FeatureVector
	var missing []FieldKey
	for i, spec := range featureSchema {
		msg, ok := raw[string(spec.Key)]
		if !ok || string(msg) == "null" {
			missing = append(missing, spec.Key)
			continue
		}
		var f float64
		if err := json.Unmarshal(msg, &f); err != nil {
			return fmt.Errorf("field %s: %w", spec.Key, err)
		}
		out.values[i] = f
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(a, b int) bool { return missing[a] < missing[b] })
		return &MissingKeysError{Keys: missing}
	}
	*v = out
	return nil
}
