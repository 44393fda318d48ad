// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watvm

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

var compilerLog = commonlog.GetLogger("watvm.compiler")

var (
	errDuplicateName   = errors.New("duplicate name")
	errDuplicateExport = errors.New("duplicate export")
	errMultipleMemory  = errors.New("multiple memories")
	errNegativePages   = errors.New("negative page count")
	errTooManyPages    = errors.New("page count exceeds limit")
)

// Compile translates module source text into a Module and its BlockTable.
// Every branch target is resolved to an absolute pc. Compilation stops at the
// first defect and returns no partial output.
func Compile(source []byte) (*Module, BlockTable, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, nil, err
	}
	return CompileTokens(tokens)
}

// CompileTokens is Compile for an already tokenized source.
func CompileTokens(tokens []Token) (*Module, BlockTable, error) {
	c := &compiler{cursor: newTokenCursor(tokens), module: newModule()}
	if err := c.compileModule(); err != nil {
		return nil, nil, err
	}
	return c.module, c.blocks, nil
}

// CompileProgram is Compile returning both results as a Program.
func CompileProgram(source []byte) (*Program, error) {
	module, blocks, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return &Program{Module: module, Blocks: blocks}, nil
}

type compiler struct {
	cursor *tokenCursor
	module *Module
	blocks BlockTable

	// Per function state, reset by compileFunction.
	funcIndex  int
	blockStack []int
	locals     map[string]int
	slots      int
}

func (c *compiler) compileModule() error {
	if _, err := c.cursor.expect(LParen, "'(' opening the module"); err != nil {
		return err
	}
	if err := c.cursor.expectKeyword("module"); err != nil {
		return err
	}

	for {
		tok := c.cursor.next()
		if tok.is(RParen) {
			break
		}
		if !tok.is(LParen) {
			return &CompileError{Expected: "'(' or ')' in module", Got: tok}
		}

		field := c.cursor.next()
		var err error
		switch {
		case field.isKeyword("memory"):
			err = c.compileMemory()
		case field.isKeyword("global"):
			err = c.compileGlobal()
		case field.isKeyword("export"):
			err = c.compileExport()
		case field.isKeyword("func"):
			err = c.compileFunction()
		default:
			err = &CompileError{
				Expected: "one of func, export, global, memory",
				Got:      field,
			}
		}
		if err != nil {
			return err
		}
	}

	if !c.cursor.done() {
		return &CompileError{
			Expected: "end of input after module",
			Got:      c.cursor.current(),
		}
	}
	return nil
}

// compileMemory parses `[$id] pages )`.
func (c *compiler) compileMemory() error {
	if c.module.Memory != nil {
		return &CompileError{
			Expected: "a single memory",
			Got:      c.cursor.current(),
			Err:      errMultipleMemory,
		}
	}
	memory := &MemoryDecl{}
	if c.cursor.current().is(Identifier) {
		memory.Name = c.cursor.next().Text
	}
	pages, err := c.cursor.expect(Integer, "initial memory page count")
	if err != nil {
		return err
	}
	if pages.Value < 0 {
		return &CompileError{
			Expected: "initial memory page count",
			Got:      pages,
			Err:      errNegativePages,
		}
	}
	if pages.Value > MaxPages {
		return &CompileError{
			Expected: fmt.Sprintf("at most %d memory pages", MaxPages),
			Got:      pages,
			Err:      errTooManyPages,
		}
	}
	memory.Pages = uint32(pages.Value)
	if _, err := c.cursor.expect(RParen, "')' closing memory"); err != nil {
		return err
	}
	c.module.Memory = memory
	return nil
}

// compileGlobal parses `[$id] (i32 | (mut i32)) (i32.const N) )`.
func (c *compiler) compileGlobal() error {
	index := len(c.module.Globals)
	if c.cursor.current().is(Identifier) {
		id := c.cursor.next()
		if _, ok := c.module.GlobalNames[id.Text]; ok {
			return &CompileError{Expected: "global name", Got: id, Err: errDuplicateName}
		}
		c.module.GlobalNames[id.Text] = index
	}

	global := Global{}
	if c.cursor.startsForm("mut") {
		c.cursor.advance()
		c.cursor.advance()
		if err := c.cursor.expectKeyword("i32"); err != nil {
			return err
		}
		if _, err := c.cursor.expect(RParen, "')' closing global type"); err != nil {
			return err
		}
		global.Mutable = true
	} else if err := c.cursor.expectKeyword("i32"); err != nil {
		return err
	}

	if _, err := c.cursor.expect(LParen, "'(' opening global initializer"); err != nil {
		return err
	}
	if err := c.cursor.expectKeyword("i32.const"); err != nil {
		return err
	}
	value, err := c.cursor.expect(Integer, "global initial value")
	if err != nil {
		return err
	}
	global.Value = value.Value
	if _, err := c.cursor.expect(RParen, "')' closing global initializer"); err != nil {
		return err
	}
	if _, err := c.cursor.expect(RParen, "')' closing global"); err != nil {
		return err
	}
	c.module.Globals = append(c.module.Globals, global)
	return nil
}

// compileExport parses `"name" (func|global|memory $id|idx) )`.
func (c *compiler) compileExport() error {
	name, err := c.cursor.expect(String, "export name")
	if err != nil {
		return err
	}
	if _, err := c.cursor.expect(LParen, "'(' opening export descriptor"); err != nil {
		return err
	}

	kindTok := c.cursor.next()
	var kind ExportKind
	switch {
	case kindTok.isKeyword("func"):
		kind = FunctionExport
	case kindTok.isKeyword("global"):
		kind = GlobalExport
	case kindTok.isKeyword("memory"):
		kind = MemoryExport
	default:
		return &CompileError{Expected: "one of func, global, memory", Got: kindTok}
	}

	ref, err := c.reference("export reference")
	if err != nil {
		return err
	}
	if _, err := c.cursor.expect(RParen, "')' closing export descriptor"); err != nil {
		return err
	}
	if _, err := c.cursor.expect(RParen, "')' closing export"); err != nil {
		return err
	}
	return c.addExport(name, kind, ref)
}

func (c *compiler) addExport(name Token, kind ExportKind, ref Label) error {
	if _, ok := c.module.Exports[name.Text]; ok {
		return &CompileError{Expected: "export name", Got: name, Err: errDuplicateExport}
	}
	c.module.Exports[name.Text] = Export{Name: name.Text, Kind: kind, Ref: ref}
	return nil
}

// compileFunction parses
// `[$id] (export "n")* (param [$id] i32)* [(result i32)] (local [$id] i32)* instr* )`.
func (c *compiler) compileFunction() error {
	c.funcIndex = len(c.module.Functions)
	c.blocks = append(c.blocks, []Block{})
	c.blockStack = c.blockStack[:0]
	c.locals = map[string]int{}
	c.slots = 0

	function := Function{Entry: len(c.module.Code)}
	if c.cursor.current().is(Identifier) {
		id := c.cursor.next()
		if _, ok := c.module.FunctionNames[id.Text]; ok {
			return &CompileError{Expected: "function name", Got: id, Err: errDuplicateName}
		}
		function.Name = id.Text
	}

	for c.cursor.startsForm("export") {
		c.cursor.advance()
		c.cursor.advance()
		name, err := c.cursor.expect(String, "export name")
		if err != nil {
			return err
		}
		if _, err := c.cursor.expect(RParen, "')' closing inline export"); err != nil {
			return err
		}
		if err := c.addExport(name, FunctionExport, LabelIndex(c.funcIndex)); err != nil {
			return err
		}
	}

	for c.cursor.startsForm("param") {
		if err := c.compileVariable(); err != nil {
			return err
		}
		function.Params++
	}

	hasResult, err := c.compileResult()
	if err != nil {
		return err
	}
	function.HasResult = hasResult

	for c.cursor.startsForm("local") {
		if err := c.compileVariable(); err != nil {
			return err
		}
		function.Locals++
	}

	for c.cursor.current().is(Keyword) {
		if err := c.compileInstruction(); err != nil {
			return err
		}
	}

	// Blocks still open are closed by the implicit end of the body.
	for len(c.blockStack) > 0 {
		c.closeBlock(len(c.module.Code))
	}
	c.emit(Instruction{Opcode: Return})

	if _, err := c.cursor.expect(RParen, "')' closing function"); err != nil {
		return err
	}

	if function.Name != "" {
		c.module.FunctionNames[function.Name] = c.funcIndex
	}
	c.module.Functions = append(c.module.Functions, function)
	compilerLog.Debugf(
		"func %d %q: entry=%d params=%d locals=%d blocks=%d",
		c.funcIndex, function.Name, function.Entry, function.Params,
		function.Locals, len(c.blocks[c.funcIndex]),
	)
	return nil
}

// compileVariable parses `(param|local [$id] i32)` and claims the next slot.
func (c *compiler) compileVariable() error {
	c.cursor.advance()
	c.cursor.advance()
	if c.cursor.current().is(Identifier) {
		id := c.cursor.next()
		if _, ok := c.locals[id.Text]; ok {
			return &CompileError{Expected: "local name", Got: id, Err: errDuplicateName}
		}
		c.locals[id.Text] = c.slots
	}
	if err := c.cursor.expectKeyword("i32"); err != nil {
		return err
	}
	if _, err := c.cursor.expect(RParen, "')' closing variable"); err != nil {
		return err
	}
	c.slots++
	return nil
}

// compileResult parses an optional `(result i32)`.
func (c *compiler) compileResult() (bool, error) {
	if !c.cursor.startsForm("result") {
		return false, nil
	}
	c.cursor.advance()
	c.cursor.advance()
	if err := c.cursor.expectKeyword("i32"); err != nil {
		return false, err
	}
	if _, err := c.cursor.expect(RParen, "')' closing result"); err != nil {
		return false, err
	}
	return true, nil
}

func (c *compiler) compileInstruction() error {
	tok := c.cursor.next()
	op, ok := LookupOpcode(tok.Text)
	if !ok {
		return &CompileError{Expected: "instruction", Got: tok}
	}

	instruction := Instruction{Opcode: op}
	var err error
	switch op {
	case I32Const:
		var n Token
		n, err = c.cursor.expect(Integer, "i32.const operand")
		instruction.Value = n.Value
	case LocalGet, LocalSet, LocalTee:
		instruction.Index, err = c.localIndex(op)
	case GlobalGet, GlobalSet, Call:
		var label Label
		label, err = c.reference(op.String() + " operand")
		instruction.Label = &label
	case BlockOp, Loop:
		instruction.Index, err = c.openBlock(op == Loop)
	case End:
		if len(c.blockStack) == 0 {
			return &CompileError{Expected: "open block for end", Got: tok, Err: ErrUnknownBlock}
		}
		// The fallthrough point is just past this end.
		instruction.Index = c.closeBlock(len(c.module.Code) + 1)
	case Br, BrIf:
		instruction.Index, err = c.branchTarget(op)
	}
	if err != nil {
		return err
	}
	c.emit(instruction)
	return nil
}

// localIndex resolves a local operand to its slot at compile time.
func (c *compiler) localIndex(op Opcode) (int, error) {
	tok := c.cursor.next()
	switch tok.Kind {
	case Identifier:
		if slot, ok := c.locals[tok.Text]; ok {
			return slot, nil
		}
	case Integer:
		if tok.Value >= 0 && int(tok.Value) < c.slots {
			return int(tok.Value), nil
		}
	default:
		return 0, &CompileError{Expected: op.String() + " operand", Got: tok}
	}
	return 0, &CompileError{Expected: op.String() + " operand", Got: tok, Err: ErrUnknownLocal}
}

// reference parses a `$id` or numeric operand into a Label.
func (c *compiler) reference(what string) (Label, error) {
	tok := c.cursor.next()
	switch tok.Kind {
	case Identifier:
		return LabelName(tok.Text), nil
	case Integer:
		if tok.Value < 0 {
			return Label{}, &CompileError{Expected: "non-negative index", Got: tok}
		}
		return LabelIndex(int(tok.Value)), nil
	default:
		return Label{}, &CompileError{Expected: what, Got: tok}
	}
}

// openBlock parses `[$id] [(result i32)]`, registers a new block for the
// current function and pushes it on the nesting stack.
func (c *compiler) openBlock(isLoop bool) (int, error) {
	block := Block{IsLoop: isLoop}
	if c.cursor.current().is(Identifier) {
		block.ID = c.cursor.next().Text
	}
	hasResult, err := c.compileResult()
	if err != nil {
		return 0, err
	}
	block.HasResult = hasResult
	if isLoop {
		// Re-entering a loop resumes just past its header.
		block.Target = len(c.module.Code) + 1
	}

	blocks := &c.blocks[c.funcIndex]
	*blocks = append(*blocks, block)
	index := len(*blocks) - 1
	c.blockStack = append(c.blockStack, index)
	return index, nil
}

// closeBlock pops the innermost open block. Non-loop blocks get target as
// their branch target; loop targets were fixed when they were opened.
func (c *compiler) closeBlock(target int) int {
	index := c.blockStack[len(c.blockStack)-1]
	c.blockStack = c.blockStack[:len(c.blockStack)-1]
	block := &c.blocks[c.funcIndex][index]
	if !block.IsLoop {
		block.Target = target
	}
	return index
}

// branchTarget resolves a br/br_if operand to a function-local block index.
// Identifiers match the innermost open block with that id; integers count
// open blocks outwards from the innermost (depth 0).
func (c *compiler) branchTarget(op Opcode) (int, error) {
	tok := c.cursor.next()
	switch tok.Kind {
	case Identifier:
		for i := len(c.blockStack) - 1; i >= 0; i-- {
			index := c.blockStack[i]
			if c.blocks[c.funcIndex][index].ID == tok.Text {
				compilerLog.Debugf("%s $%s -> block %d", op, tok.Text, index)
				return index, nil
			}
		}
	case Integer:
		pos := len(c.blockStack) - int(tok.Value) - 1
		if tok.Value >= 0 && pos >= 0 {
			index := c.blockStack[pos]
			compilerLog.Debugf("%s %d -> block %d", op, tok.Value, index)
			return index, nil
		}
	default:
		return 0, &CompileError{Expected: op.String() + " target", Got: tok}
	}
	return 0, &CompileError{
		Expected: fmt.Sprintf("%s target", op),
		Got:      tok,
		Err:      ErrUnknownBlock,
	}
}

func (c *compiler) emit(instruction Instruction) {
	c.module.Code = append(c.module.Code, instruction)
}
