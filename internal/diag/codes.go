package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Code generation (4000-series)
	CodegenInfo                Code = 4000
	CodegenUnknownVariable     Code = 4001
	CodegenUnknownFunction     Code = 4002
	CodegenUnknownMethod       Code = 4003
	CodegenUnknownField        Code = 4004
	CodegenUnknownStaticMember Code = 4005
	CodegenArgCount            Code = 4006
	CodegenUseAfterMove        Code = 4007
	CodegenNotCallable         Code = 4008
	CodegenInvalidOperand      Code = 4009
	CodegenInferenceFallback   Code = 4010
	CodegenUnmangleFallback    Code = 4011
	CodegenRecursiveLayout     Code = 4012
	CodegenUnsupportedExpr     Code = 4013
	CodegenMissingBody         Code = 4014
	CodegenTypeMismatch        Code = 4015
	CodegenCapturesDropped     Code = 4016

	// Driver / IO (5000-series)
	DriverInfo        Code = 5000
	DriverUnitDecode  Code = 5001
	DriverCacheFailed Code = 5002
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	CodegenInfo:                "Code generation information",
	CodegenUnknownVariable:     "Unknown variable",
	CodegenUnknownFunction:     "Unknown function",
	CodegenUnknownMethod:       "Unknown method",
	CodegenUnknownField:        "Unknown field",
	CodegenUnknownStaticMember: "Unknown static member",
	CodegenArgCount:            "Wrong number of arguments",
	CodegenUseAfterMove:        "Use of moved value",
	CodegenNotCallable:         "Value is not callable",
	CodegenInvalidOperand:      "Invalid operand",
	CodegenInferenceFallback:   "Generic argument could not be inferred",
	CodegenUnmangleFallback:    "Type name could not be decoded",
	CodegenRecursiveLayout:     "Recursive value type has infinite size",
	CodegenUnsupportedExpr:     "Unsupported expression",
	CodegenMissingBody:         "Missing body for instantiation",
	CodegenTypeMismatch:        "Type mismatch",
	CodegenCapturesDropped:     "Capturing closure used as a bare function reference",
	DriverInfo:                 "Driver information",
	DriverUnitDecode:           "Failed to decode unit",
	DriverCacheFailed:          "Cache access failed",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// MarshalText renders the stable code identifier for YAML/JSON reports.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.ID()), nil
}
