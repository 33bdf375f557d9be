package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func configureValidator(validate *validator.Validate) {
	validate.RegisterTagNameFunc(useJSONTagNames)

	// Let 'required'/'gt' style tags see decimal amounts as floats
	validate.RegisterCustomTypeFunc(decimalAsFloat, decimal.Decimal{})
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func decimalAsFloat(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
