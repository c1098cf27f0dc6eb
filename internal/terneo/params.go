package terneo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Codec errors. Validation failures are surfaced before any network call.
var (
	ErrUnsupportedType = errors.New("unsupported parameter type")
	ErrOutOfRange      = errors.New("value out of range")
	ErrDecode          = errors.New("cannot decode parameter value")
)

// TypeTag is the wire type of a parameter tuple. The integer values are the
// vendor protocol's; anything outside the known set is Unknown and refuses
// to decode rather than guessing a width.
type TypeTag int

const (
	TypeString TypeTag = 0
	TypeInt8   TypeTag = 1
	TypeUInt8  TypeTag = 2
	TypeInt16  TypeTag = 3
	TypeUInt16 TypeTag = 4
	TypeInt32  TypeTag = 5
	TypeUInt32 TypeTag = 6
	TypeBool   TypeTag = 7
)

// Known reports whether the tag belongs to the supported set.
func (t TypeTag) Known() bool {
	return t >= TypeString && t <= TypeBool
}

func (t TypeTag) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt8:
		return "int8"
	case TypeUInt8:
		return "uint8"
	case TypeInt16:
		return "int16"
	case TypeUInt16:
		return "uint16"
	case TypeInt32:
		return "int32"
	case TypeUInt32:
		return "uint32"
	case TypeBool:
		return "bool"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// bounds returns the representable integer range of a numeric tag.
func (t TypeTag) bounds() (min, max int64, ok bool) {
	switch t {
	case TypeInt8:
		return math.MinInt8, math.MaxInt8, true
	case TypeUInt8:
		return 0, math.MaxUint8, true
	case TypeInt16:
		return math.MinInt16, math.MaxInt16, true
	case TypeUInt16:
		return 0, math.MaxUint16, true
	case TypeInt32:
		return math.MinInt32, math.MaxInt32, true
	case TypeUInt32:
		return 0, math.MaxUint32, true
	}
	return 0, 0, false
}

// Parameter is one raw (id, type, value) wire tuple. Values stay strings on
// the wire; Decode turns them into typed Go values.
type Parameter struct {
	ID   int
	Type TypeTag
	Raw  string
}

// ParameterMap is a device's parameter set keyed by id. Wire order carries
// no meaning.
type ParameterMap map[int]Parameter

// Decode converts a raw wire value into its typed native form: string,
// int64 or bool. Unknown tags fail with ErrUnsupportedType, unparseable
// values with ErrDecode.
func Decode(tag TypeTag, raw string) (any, error) {
	switch tag {
	case TypeString:
		return raw, nil
	case TypeBool:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as bool", ErrDecode, raw)
		}
		return n != 0, nil
	case TypeInt8, TypeUInt8, TypeInt16, TypeUInt16, TypeInt32, TypeUInt32:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as %s", ErrDecode, raw, tag)
		}
		min, max, _ := tag.bounds()
		if n < min || n > max {
			return nil, fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, n, tag)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedType, int(tag))
}

// EncodeInt renders an integer for the given numeric tag, failing with
// ErrOutOfRange when the value does not fit the tag's width. The device
// performs no bounds checking of its own and would silently accept garbage.
func EncodeInt(tag TypeTag, v int64) (string, error) {
	min, max, ok := tag.bounds()
	if !ok {
		return "", fmt.Errorf("%w: tag %d is not numeric", ErrUnsupportedType, int(tag))
	}
	if v < min || v > max {
		return "", fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, v, tag)
	}
	return strconv.FormatInt(v, 10), nil
}

// EncodeBool always emits canonical "0"/"1".
func EncodeBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// Temperatures travel as integers scaled by ten: "220" means 22.0 °C.
const temperatureScale = 10

// DecodeTemperature decodes a temperature-tenths value into °C.
func DecodeTemperature(tag TypeTag, raw string) (float64, error) {
	v, err := Decode(tag, raw)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: tag %s is not numeric", ErrUnsupportedType, tag)
	}
	return float64(n) / temperatureScale, nil
}

// EncodeTemperature renders °C as temperature tenths, enforcing both the
// caller-supplied device limits and the tag's integer width.
func EncodeTemperature(tag TypeTag, celsius, min, max float64) (string, error) {
	if celsius < min || celsius > max {
		return "", fmt.Errorf("%w: %.1f °C outside device limits [%.1f, %.1f]", ErrOutOfRange, celsius, min, max)
	}
	return EncodeInt(tag, int64(math.Round(celsius*temperatureScale)))
}

// DecodeAll decodes every parameter of a read, dropping individually
// undecodable entries so one bad tuple never invalidates the whole read.
// The returned slice lists the ids that were dropped.
func DecodeAll(params ParameterMap) (map[int]any, []int) {
	decoded := make(map[int]any, len(params))
	var dropped []int
	for id, p := range params {
		v, err := Decode(p.Type, p.Raw)
		if err != nil {
			dropped = append(dropped, id)
			continue
		}
		decoded[id] = v
	}
	return decoded, dropped
}
