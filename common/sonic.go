package common

import (
	"reflect"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/option"
)

var SonicCfg sonic.API

func init() {
	for _, t := range []reflect.Type{
		reflect.TypeOf(JsonRpcRequest{}),
		reflect.TypeOf(JsonRpcError{}),
		reflect.TypeOf(BaseError{}),
	} {
		if err := sonic.Pretouch(t, option.WithCompileMaxInlineDepth(1)); err != nil {
			panic(err)
		}
	}
	SonicCfg = sonic.Config{
		CopyString:              true,
		NoQuoteTextMarshaler:    true,
		NoValidateJSONMarshaler: true,
		EscapeHTML:              false,
		SortMapKeys:             true,
		CompactMarshaler:        true,
		ValidateString:          false,
	}.Froze()
}
