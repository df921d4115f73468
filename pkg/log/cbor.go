package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Encoder and decoder modes shared by the file logger and reader.
//
// Timestamps are written as tag 0 RFC 3339 strings with nanoseconds so a
// generic CBOR dump of a .clog stays readable; durations stay plain
// nanosecond integers. Map keys are sorted canonically so identical events
// encode to identical bytes. The decoder is strict about what the encoder
// never produces (duplicate keys, indefinite lengths) so a torn or foreign
// file fails loudly, and its limits are sized to the flat event schema.
var (
	traceEncMode cbor.EncMode
	traceDecMode cbor.DecMode
)

const (
	maxTraceNesting  = 8
	maxTraceMapPairs = 32
)

func init() {
	var err error

	traceEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
		TimeTag:       cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}

	traceDecMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		TimeTag:          cbor.DecTagOptional,
		MaxNestedLevels:  maxTraceNesting,
		MaxMapPairs:      maxTraceMapPairs,
		MaxArrayElements: maxTraceMapPairs,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR.
func EncodeEvent(event Event) ([]byte, error) {
	return traceEncMode.Marshal(event)
}

// DecodeEvent decodes a single CBOR-encoded Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := traceDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns a streaming trace encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return traceEncMode.NewEncoder(w)
}

// NewDecoder returns a streaming trace decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return traceDecMode.NewDecoder(r)
}
