// Package safetensors reads F32 tensors from files in the safetensors format:
// an 8-byte little-endian header length, a JSON header, then raw tensor data.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
)

// File is a parsed safetensors file held in memory.
type File struct {
	Metadata map[string]string

	tensors map[string]tensorInfo
	data    []byte // tensor payload, offsets are relative to its start
}

type tensorInfo struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

// Open reads and parses the file at path.
func Open(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: %w", err)
	}
	return Parse(raw)
}

// Parse parses an in-memory safetensors blob.
func Parse(raw []byte) (*File, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("safetensors: file too small: %d bytes", len(raw))
	}

	headerLen := binary.LittleEndian.Uint64(raw[:8])
	if headerLen > uint64(len(raw)-8) {
		return nil, fmt.Errorf("safetensors: header length %d exceeds file size", headerLen)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("safetensors: failed to parse header: %w", err)
	}

	f := &File{
		tensors: make(map[string]tensorInfo, len(header)),
		data:    raw[8+headerLen:],
	}
	for name, msg := range header {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &f.Metadata); err != nil {
				return nil, fmt.Errorf("safetensors: bad __metadata__: %w", err)
			}
			continue
		}
		var info tensorInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, fmt.Errorf("safetensors: bad metadata for %q: %w", name, err)
		}
		f.tensors[name] = info
	}
	return f, nil
}

// Has reports whether the file contains a tensor with the given name.
func (f *File) Has(name string) bool {
	_, ok := f.tensors[name]
	return ok
}

// Float32 decodes the named F32 tensor and returns its values (row-major)
// together with its shape.
func (f *File) Float32(name string) ([]float32, []int, error) {
	info, ok := f.tensors[name]
	if !ok {
		return nil, nil, fmt.Errorf("safetensors: tensor %q not found", name)
	}
	if info.Dtype != "F32" {
		return nil, nil, fmt.Errorf("safetensors: tensor %q has dtype %s, want F32", name, info.Dtype)
	}

	n := 1
	for _, d := range info.Shape {
		if d < 0 {
			return nil, nil, fmt.Errorf("safetensors: tensor %q has negative dimension in shape %v", name, info.Shape)
		}
		n *= d
	}
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end > len(f.data) || start > end {
		return nil, nil, fmt.Errorf("safetensors: tensor %q range [%d:%d] exceeds data size %d",
			name, start, end, len(f.data))
	}
	if end-start != n*4 {
		return nil, nil, fmt.Errorf("safetensors: tensor %q data size %d doesn't match shape %v",
			name, end-start, info.Shape)
	}

	out := make([]float32, n)
	for i := range out {
		off := start + i*4
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.data[off : off+4]))
	}
	return out, info.Shape, nil
}

// Encode builds a safetensors blob from F32 tensors. Tensor shapes are given
// alongside the flat values; metadata may be nil.
func Encode(tensors map[string]Tensor, metadata map[string]string) ([]byte, error) {
	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	var payload []byte
	for _, name := range slices.Sorted(maps.Keys(tensors)) {
		t := tensors[name]
		n := 1
		for _, d := range t.Shape {
			n *= d
		}
		if n != len(t.Values) {
			return nil, fmt.Errorf("safetensors: tensor %q has %d values for shape %v", name, len(t.Values), t.Shape)
		}
		start := len(payload)
		for _, v := range t.Values {
			payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(v))
		}
		header[name] = tensorInfo{Dtype: "F32", Shape: t.Shape, DataOffsets: [2]int{start, len(payload)}}
	}

	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}
	out := binary.LittleEndian.AppendUint64(nil, uint64(len(hdr)))
	out = append(out, hdr...)
	return append(out, payload...), nil
}

// Tensor is an F32 tensor to be written by Encode.
type Tensor struct {
	Shape  []int
	Values []float32
}
