// Package json is a drop-in for encoding/json backed by bytedance/sonic.
package json

import (
	"io"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func MarshalToString(v interface{}) (string, error) {
	return api.MarshalToString(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}

func UnmarshalFromString(data string, v interface{}) error {
	return api.UnmarshalFromString(data, v)
}

func Valid(data []byte) bool {
	return api.Valid(data)
}

func NewEncoder(w io.Writer) sonic.Encoder {
	return api.NewEncoder(w)
}

func NewDecoder(r io.Reader) sonic.Decoder {
	return api.NewDecoder(r)
}
