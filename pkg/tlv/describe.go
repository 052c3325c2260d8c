package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// WriteStructFields inspects a struct and writes its fields to the strings.Builder.
// Nested templates (tagged struct fields and slices of them) are written under
// "prefix.Field" and "prefix.Field[i]".
// It joins lines with newlines but DOES NOT add a trailing newline, preventing artifacts in strings.Split.
// If the builder is not empty, it prepends a newline to separate this block from previous content.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	lines := structLines(prefix, reflect.ValueOf(s))

	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}
}

func structLines(prefix string, val reflect.Value) []string {
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		tagged := fieldType.Tag.Get("tlv") != ""

		switch {
		case field.Type() == reflect.TypeOf([]bertlv.TLV{}):
			lines = append(lines, formatUnknownField(prefix, field)...)

		case isByteSlice(field):
			if line := formatByteSliceField(prefix, field, fieldType); line != "" {
				lines = append(lines, line)
			}

		case !tagged:

		case field.Kind() == reflect.String:
			if field.Len() > 0 {
				lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, fieldName(fieldType), field.String()))
			}

		case isUnsigned(field):
			lines = append(lines, fmt.Sprintf("    - %s.%s: %d", prefix, fieldName(fieldType), field.Uint()))

		case isSigned(field):
			lines = append(lines, fmt.Sprintf("    - %s.%s: %d", prefix, fieldName(fieldType), field.Int()))

		case isStructOrPtrToStruct(field):
			lines = append(lines, structLines(prefix+"."+fieldType.Name, field)...)

		case field.Kind() == reflect.Slice:
			for j := 0; j < field.Len(); j++ {
				lines = append(lines, structLines(fmt.Sprintf("%s.%s[%d]", prefix, fieldType.Name, j), field.Index(j))...)
			}
		}
	}

	return lines
}

func fieldName(fieldType reflect.StructField) string {
	tlvTag := strings.Split(fieldType.Tag.Get("tlv"), ",")[0]
	if tlvTag == "" {
		return fieldType.Name
	}
	return fmt.Sprintf("%s (%s)", fieldType.Name, tlvTag)
}

func formatByteSliceField(prefix string, field reflect.Value, fieldType reflect.StructField) string {
	if field.IsNil() || field.Len() == 0 {
		return ""
	}

	displayVal := formatByteValue(field.Bytes(), fieldType.Tag.Get("fmt"))
	return fmt.Sprintf("    - %s.%s: %s", prefix, fieldName(fieldType), displayVal)
}

func formatUnknownField(prefix string, field reflect.Value) []string {
	if field.IsNil() || field.Len() == 0 {
		return nil
	}

	var lines []string
	for _, t := range field.Interface().([]bertlv.TLV) {
		raw := getPacketRawData(t)
		lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %s", prefix, t.Tag, strings.ToUpper(hex.EncodeToString(raw))))
	}
	return lines
}

func formatByteValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "int":
		var integer int
		for _, b := range data {
			integer = (integer << 8) | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	case "len":
		return fmt.Sprintf("%d bytes", len(data))
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// MakeSafeASCII replaces non-printable bytes with '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
