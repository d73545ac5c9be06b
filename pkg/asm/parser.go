package asm

import "strings"

type lineKind int

const (
	kindLabelOnly lineKind = iota
	kindData
	kindString
	kindInstruction
)

// parsedLine is one classified statement, still carrying raw operand text
// — operand resolution (register/immediate/symbol) happens during code
// generation, once we know the target instruction's declared kinds.
type parsedLine struct {
	Number int
	Label  *string

	Kind lineKind

	Mnemonic string   // kindInstruction
	Operands []string // kindInstruction, raw tokens in source order

	DataByte string // kindData, raw integer literal text

	DataString string // kindString, verbatim trailing text

	Err error // set when the line itself could not be classified
}

// StartParsing classifies each rawLine received from in into a parsedLine
// and streams the results on a channel.
func StartParsing(in <-chan rawLine) <-chan parsedLine {
	out := make(chan parsedLine)
	go func() {
		defer close(out)
		for rl := range in {
			out <- parseLine(rl)
		}
	}()
	return out
}

func parseLine(rl rawLine) parsedLine {
	label, rest := splitLabel(rl.text)
	rest = strings.TrimSpace(rest)

	pl := parsedLine{Number: rl.number, Label: label}

	if rest == "" {
		if label == nil {
			// With no label, splitLabel returns the whole line, and
			// StartLexing already dropped empty lines, so this is not
			// reached; defensively treat it as an unnamed statement.
			pl.Err = ErrExpectedInstructionName
			return pl
		}
		pl.Kind = kindLabelOnly
		return pl
	}

	kw, rest2 := splitToken(rest)
	switch strings.ToUpper(kw) {
	case "DB":
		pl.Kind = kindData
		toks := tokenize(rest2)
		if len(toks) != 1 {
			pl.Err = ErrNotEnoughParameters
			return pl
		}
		pl.DataByte = toks[0]
	case "DS":
		pl.Kind = kindString
		pl.DataString = strings.TrimSpace(rest2)
	default:
		pl.Kind = kindInstruction
		pl.Mnemonic = kw
		pl.Operands = tokenize(rest2)
	}
	return pl
}

// splitLabel extracts a leading "NAME:" token from line, if present.
func splitLabel(line string) (label *string, rest string) {
	first, remainder := splitToken(line)
	if len(first) > 1 && strings.HasSuffix(first, ":") {
		name := first[:len(first)-1]
		return &name, remainder
	}
	return nil, line
}
