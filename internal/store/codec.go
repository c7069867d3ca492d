package store

import "encoding/json"

// marshalJSON and unmarshalJSON centralize the encoding this package
// uses for every bucket value, matching the teacher's JSON-per-record
// BoltDB convention.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
