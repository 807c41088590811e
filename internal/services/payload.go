package services

import (
	"reflect"
	"strings"
)

// cleanPayload returns a copy of in with every string trimmed, including
// strings behind pointers, in slices and in nested structs. The caller's
// value is never modified. Empty optional fields are then dropped by the
// omitempty tags of the input types. Fields tagged `clean:"keep"` (secrets)
// are sent exactly as given.
func cleanPayload[T any](in T) T {
	v := reflect.ValueOf(&in).Elem()
	trimValue(v)
	return in
}

func trimValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}
	case reflect.Pointer:
		if v.IsNil() || !v.CanSet() {
			return
		}
		cp := reflect.New(v.Elem().Type())
		cp.Elem().Set(v.Elem())
		trimValue(cp.Elem())
		v.Set(cp)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Type().Field(i)
			if f.IsExported() && f.Tag.Get("clean") != "keep" {
				trimValue(v.Field(i))
			}
		}
	case reflect.Slice:
		if v.IsNil() || !v.CanSet() {
			return
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(cp, v)
		for i := 0; i < cp.Len(); i++ {
			trimValue(cp.Index(i))
		}
		v.Set(cp)
	case reflect.Map:
		if v.IsNil() || !v.CanSet() || v.Type().Elem().Kind() != reflect.String {
			return
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), reflect.ValueOf(strings.TrimSpace(iter.Value().String())).Convert(v.Type().Elem()))
		}
		v.Set(cp)
	}
}
