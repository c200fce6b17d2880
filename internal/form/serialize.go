package form

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/GriffinCanCode/webclient/internal/apierror"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
)

// TokenField is the form field that carries the credential.
const TokenField = "token"

// FilenameField names the argument used as the default filename of binary parts.
const FilenameField = "filename"

// JSONFields lists the arguments the API documents as JSON text inside a
// single form field. For these names a string, []byte or json.RawMessage is
// taken as already-encoded JSON (validated, never sent as a file part).
// Other structured values are JSON-encoded whatever their name.
var JSONFields = map[string]bool{
	"attachments": true, // chat.postMessage, chat.postEphemeral, chat.update
	"unfurls":     true, // chat.unfurl
}

// Serialize turns a flat argument map into a Body.
//
// Rules:
//   - a key that is absent, or whose value is a nil pointer, map or slice, is omitted
//   - an untyped nil value is InvalidArguments
//   - strings are sent verbatim; booleans as "true"/"false"; numbers in base 10
//     without exponent; time.Time as Unix seconds; time.Duration as seconds
//   - maps, slices, arrays and structs are sent as JSON text
//   - io.Reader, []byte, File and *File values are binary; any binary value
//     makes the whole body Multipart
func Serialize(args map[string]any) (*Body, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := &Body{Kind: URLEncoded, Fields: make(map[string]string, len(args))}

	for _, key := range keys {
		value := args[key]
		if value == nil {
			return nil, apierror.InvalidArgumentf("argument %q is null", key)
		}
		if isNilish(value) {
			continue
		}

		if isBinary(key, value) {
			file, err := readFile(key, value, args)
			if err != nil {
				return nil, err
			}
			body.Kind = Multipart
			body.Files = append(body.Files, file)
			continue
		}

		text, err := stringify(key, value)
		if err != nil {
			return nil, err
		}
		body.Fields[key] = text
	}

	return body, nil
}

func isNilish(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isBinary(key string, v any) bool {
	switch v.(type) {
	case File, *File:
		return true
	case json.RawMessage:
		return false
	case []byte:
		return !JSONFields[key]
	case io.Reader:
		return true
	}
	return false
}

func readFile(key string, v any, args map[string]any) (File, error) {
	file := File{Field: key}

	switch x := v.(type) {
	case File:
		file = x
	case *File:
		file = *x
	case []byte:
		file.Content = x
	case io.Reader:
		data, err := io.ReadAll(x)
		if err != nil {
			return File{}, apierror.NewInvalidArguments(fmt.Errorf("reading %q: %w", key, err))
		}
		file.Content = data
		if f, ok := x.(*os.File); ok {
			file.Filename = filepath.Base(f.Name())
		}
	}

	file.Field = key
	if file.Filename == "" {
		if name, ok := args[FilenameField].(string); ok && name != "" {
			file.Filename = name
		} else {
			file.Filename = key
		}
	}
	if file.ContentType == "" {
		file.ContentType = mimetype.Detect(file.Content).String()
	}

	return file, nil
}

func stringify(key string, v any) (string, error) {
	if JSONFields[key] {
		switch x := v.(type) {
		case string:
			return validJSON(key, []byte(x))
		case []byte:
			return validJSON(key, x)
		case json.RawMessage:
			return validJSON(key, x)
		}
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	case json.RawMessage:
		return validJSON(key, x)
	case time.Time:
		return strconv.FormatInt(x.Unix(), 10), nil
	case time.Duration:
		return strconv.FormatFloat(x.Seconds(), 'f', -1, 64), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return stringify(key, rv.Elem().Interface())
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		data, err := sonic.ConfigStd.Marshal(rv.Interface())
		if err != nil {
			return "", apierror.NewInvalidArguments(fmt.Errorf("encoding %q: %w", key, err))
		}
		return string(data), nil
	}

	return "", apierror.InvalidArgumentf("argument %q has unsupported type %T", key, v)
}

func validJSON(key string, data []byte) (string, error) {
	if !sonic.ConfigStd.Valid(data) {
		return "", apierror.InvalidArgumentf("argument %q is not valid JSON", key)
	}
	return string(data), nil
}
