package codegen

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/KromDaniel/regvm/internal/compiler"
)

// Identifiers used inside generated matchers.
const (
	InputName           = "input"
	InputLenName        = "l"
	OffsetName          = "offset"
	StackName           = "stack"
	VisitedName         = "visited"
	NextInstructionName = "nextInstruction"
	StepSelectName      = "StepSelect"
	TryFallbackName     = "TryFallback"
	CurrentName         = "current"
	NextName            = "next"
	AcceptMaskName      = "acceptMask"
)

// labelName returns the goto label of the instruction at pc.
func labelName(pc compiler.Addr) string {
	return fmt.Sprintf("Ins%d", pc)
}

// lowerFirst lowercases the first rune of s.
func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// upperFirst uppercases the first rune of s.
func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
