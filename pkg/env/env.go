package env

import (
	"encoding"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TagValue     = "env"
	TagDefault   = "env-default"
	TagSeparator = "env-separator"
)

type parseFunc func(reflect.Value, string) error

var (
	durationType = reflect.TypeOf(time.Duration(0))

	parsers = map[reflect.Type]parseFunc{
		reflect.TypeOf(url.URL{}): func(field reflect.Value, value string) error {
			u, err := url.Parse(value)
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(*u))
			return nil
		},
		reflect.TypeOf(time.Location{}): func(field reflect.Value, value string) error {
			loc, err := time.LoadLocation(value)
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(*loc))
			return nil
		},
	}
)

// Load copies variables from dotenv files into the process environment.
// Missing files are skipped and variables already set win.
func Load(files ...string) error {
	for _, file := range files {
		if file == "" {
			continue
		}
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("can't load env file %s, err: %w", file, err)
		}
	}
	return nil
}

// Read fills the tagged fields of the struct root points to.
func Read(root any) error {
	rootValue := reflect.ValueOf(root)
	if rootValue.Kind() != reflect.Ptr || rootValue.IsNil() {
		return fmt.Errorf("expected non-nil pointer, got %T", root)
	}

	rootValue = rootValue.Elem()
	if rootValue.Kind() != reflect.Struct {
		return fmt.Errorf("unexpected type %v", rootValue.Kind())
	}
	return readStruct(rootValue)
}

func readStruct(structValue reflect.Value) error {
	structType := structValue.Type()
	for i := 0; i < structValue.NumField(); i++ {
		fieldType := structType.Field(i)
		fieldValue := structValue.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		_, tagged := fieldType.Tag.Lookup(TagValue)
		if fieldValue.Kind() == reflect.Ptr && !tagged {
			if fieldValue.IsNil() {
				fieldValue.Set(reflect.New(fieldType.Type.Elem()))
			}
			fieldValue = fieldValue.Elem()
		}

		if !tagged {
			if fieldValue.Kind() == reflect.Struct {
				if err := readStruct(fieldValue); err != nil {
					return err
				}
			}
			continue
		}

		if err := readField(fieldType, fieldValue); err != nil {
			return err
		}
	}
	return nil
}

func readField(fieldType reflect.StructField, fieldValue reflect.Value) error {
	name, options := parseTag(fieldType.Tag.Get(TagValue))

	value, found := os.LookupEnv(name)
	if !found {
		if options.Contains("required") {
			return fmt.Errorf("environment variable %s is required but the value is not provided", name)
		}

		def, hasDefault := fieldType.Tag.Lookup(TagDefault)
		if !hasDefault {
			return nil
		}
		value = def
	}

	sep := fieldType.Tag.Get(TagSeparator)
	if sep == "" {
		sep = ","
	}

	if err := parseValue(fieldValue, value, sep); err != nil {
		return fmt.Errorf("can't parse environment variable %v, err: %w", name, err)
	}
	return nil
}

func parseValue(field reflect.Value, value, sep string) error {
	fieldType := field.Type()

	if parser, ok := parsers[fieldType]; ok {
		return parser(field, value)
	}

	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(value))
		}
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fieldType == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}

		n, err := strconv.ParseInt(value, 0, fieldType.Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 0, fieldType.Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, fieldType.Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		items := split(value, sep)
		slice := reflect.MakeSlice(fieldType, len(items), len(items))
		for i, item := range items {
			if err := parseValue(slice.Index(i), item, sep); err != nil {
				return err
			}
		}
		field.Set(slice)

	case reflect.Map:
		m := reflect.MakeMap(fieldType)
		for _, pair := range split(value, sep) {
			k, v, ok := strings.Cut(pair, ":")
			if !ok {
				return fmt.Errorf("invalid map item %q", pair)
			}

			key := reflect.New(fieldType.Key()).Elem()
			if err := parseValue(key, k, sep); err != nil {
				return err
			}
			elem := reflect.New(fieldType.Elem()).Elem()
			if err := parseValue(elem, v, sep); err != nil {
				return err
			}
			m.SetMapIndex(key, elem)
		}
		field.Set(m)

	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(fieldType.Elem()))
		}
		return parseValue(field.Elem(), value, sep)

	default:
		return fmt.Errorf("unsupported type %s", field.Kind())
	}

	return nil
}

func split(value, sep string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	items := strings.Split(value, sep)
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opt, _ := strings.Cut(tag, ",")
	return name, tagOptions(opt)
}

func (o tagOptions) Contains(option string) bool {
	s := string(o)
	for s != "" {
		var name string
		name, s, _ = strings.Cut(s, ",")
		if name == option {
			return true
		}
	}
	return false
}
