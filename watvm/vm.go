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
	"os"

	"github.com/tliron/commonlog"
)

var vmLog = commonlog.GetLogger("watvm.vm")

var (
	errMissingOperand = errors.New("missing operand")
	errPCOutOfRange   = errors.New("program counter out of range")
)

// callFrame is one active function invocation.
type callFrame struct {
	function int
	locals   []int32
	returnPC int
}

// Evaluator is a stack machine executing a compiled Module. An Evaluator is
// not safe for concurrent use; run one Evaluator per goroutine. The Module
// itself is only read and may be shared.
type Evaluator struct {
	module  *Module
	blocks  BlockTable
	config  Config
	hosts   HostRegistry
	stack   *valueStack
	frames  []callFrame
	globals []int32
	memory  *Memory
	pc      int
	fuel    uint64
}

// NewEvaluator creates an evaluator for module. Globals are seeded from
// their declared initial values and memory is sized from the module's memory
// declaration, if any.
func NewEvaluator(module *Module, blocks BlockTable, config Config) *Evaluator {
	if config.MaxCallStackDepth <= 0 {
		config.MaxCallStackDepth = DefaultConfig().MaxCallStackDepth
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	globals := make([]int32, len(module.Globals))
	for i, global := range module.Globals {
		globals[i] = global.Value
	}
	var pages uint32
	if module.Memory != nil {
		pages = module.Memory.Pages
	}

	return &Evaluator{
		module:  module,
		blocks:  blocks,
		config:  config,
		hosts:   DefaultHostFunctions(config.Stdout),
		stack:   newValueStack(),
		frames:  make([]callFrame, 0, 64),
		globals: globals,
		memory:  NewMemory(pages),
		fuel:    config.Fuel,
	}
}

// RegisterHostFunction makes fn callable as `call $name`, shadowing any user
// defined function with the same name.
func (e *Evaluator) RegisterHostFunction(name string, fn HostFunction) {
	e.hosts = e.hosts.With(name, fn)
}

// PushArgs pushes values on the value stack in the given order.
func (e *Evaluator) PushArgs(args ...int32) {
	e.stack.pushAll(args)
}

// Call enters the function referenced by label. Arguments are popped off the
// value stack into the parameter slots in pop order: the most recently
// pushed value lands in slot 0. Run executes the call.
func (e *Evaluator) Call(label Label) error {
	index, function, err := e.module.function(label)
	if err != nil {
		return err
	}
	return e.enter(index, function)
}

// Run executes until the outermost call returns and yields the value left on
// top of the stack, if any.
func (e *Evaluator) Run() (int32, bool, error) {
	e.fuel = e.config.Fuel
	for len(e.frames) > 0 {
		if err := e.Step(); err != nil {
			return 0, false, err
		}
	}
	v, ok := e.stack.top()
	if ok {
		e.stack.drop()
	}
	return v, ok, nil
}

// Step executes a single instruction.
func (e *Evaluator) Step() error {
	if e.pc < 0 || e.pc >= len(e.module.Code) {
		return &Trap{PC: e.pc, Opcode: noOpcode, Err: errPCOutOfRange}
	}
	instruction := &e.module.Code[e.pc]
	pc := e.pc
	if e.config.EnableFuel {
		if e.fuel == 0 {
			return &Trap{PC: pc, Opcode: instruction.Opcode, Err: ErrOutOfFuel}
		}
		e.fuel--
	}
	e.pc++

	if err := e.executeInstruction(instruction); err != nil {
		trap := &Trap{PC: pc, Opcode: instruction.Opcode, Err: err}
		vmLog.Debugf("%v", trap)
		return trap
	}
	return nil
}

// Global returns the current value of the global referenced by label.
func (e *Evaluator) Global(label Label) (int32, error) {
	index, err := e.module.global(label)
	if err != nil {
		return 0, err
	}
	return e.globals[index], nil
}

// SetGlobal sets a mutable global.
func (e *Evaluator) SetGlobal(label Label, v int32) error {
	index, err := e.module.global(label)
	if err != nil {
		return err
	}
	if !e.module.Globals[index].Mutable {
		return fmt.Errorf("%w: %s", ErrImmutableGlobal, label)
	}
	e.globals[index] = v
	return nil
}

// Memory returns the evaluator's linear memory.
func (e *Evaluator) Memory() *Memory { return e.memory }

// Module returns the module being executed.
func (e *Evaluator) Module() *Module { return e.module }

// Depth returns the number of active call frames.
func (e *Evaluator) Depth() int { return len(e.frames) }

// Reset discards the value stack and call frames, e.g. after a trap. Globals
// and memory are kept.
func (e *Evaluator) Reset() {
	e.stack.clear()
	e.frames = e.frames[:0]
	e.pc = 0
}

func (e *Evaluator) executeInstruction(in *Instruction) error {
	switch in.Opcode {
	case Unreachable:
		return ErrUnreachable
	case Nop, BlockOp, Loop, End:
		// Control structure was resolved at compile time.
	case Br:
		return e.branch(in.Index)
	case BrIf:
		return e.handleBrIf(in.Index)
	case Return:
		e.handleReturn()
	case Call:
		if in.Label == nil {
			return errMissingOperand
		}
		return e.handleCall(*in.Label)
	case Drop:
		e.stack.drop()
	case Select:
		return e.handleSelect()
	case LocalGet:
		return e.handleLocalGet(in.Index)
	case LocalSet:
		return e.handleLocalSet(in.Index, false)
	case LocalTee:
		return e.handleLocalSet(in.Index, true)
	case GlobalGet:
		return e.handleGlobalGet(in.Label)
	case GlobalSet:
		return e.handleGlobalSet(in.Label)
	case I32Load:
		return e.handleLoad()
	case I32Store:
		return e.handleStore()
	case I32Const:
		e.stack.push(in.Value)
	case I32Eqz:
		return e.handleUnaryInt32(eqz)
	case I32Eq:
		return e.handleBinaryBoolInt32(eq)
	case I32Ne:
		return e.handleBinaryBoolInt32(ne)
	case I32LtS:
		return e.handleBinaryBoolInt32(ltS)
	case I32LtU:
		return e.handleBinaryBoolInt32(ltU)
	case I32GtS:
		return e.handleBinaryBoolInt32(gtS)
	case I32GtU:
		return e.handleBinaryBoolInt32(gtU)
	case I32LeS:
		return e.handleBinaryBoolInt32(leS)
	case I32LeU:
		return e.handleBinaryBoolInt32(leU)
	case I32GeS:
		return e.handleBinaryBoolInt32(geS)
	case I32GeU:
		return e.handleBinaryBoolInt32(geU)
	case I32Clz:
		return e.handleUnaryInt32(clz)
	case I32Ctz:
		return e.handleUnaryInt32(ctz)
	case I32Popcnt:
		return e.handleUnaryInt32(popcnt)
	case I32Add:
		return e.handleBinaryInt32(add)
	case I32Sub:
		return e.handleBinaryInt32(sub)
	case I32Mul:
		return e.handleBinaryInt32(mul)
	case I32DivS:
		return e.handleBinarySafeInt32(divS)
	case I32DivU:
		return e.handleBinarySafeInt32(divU)
	case I32RemS:
		return e.handleBinarySafeInt32(remS)
	case I32RemU:
		return e.handleBinarySafeInt32(remU)
	case I32And:
		return e.handleBinaryBoolInt32(and)
	case I32Or:
		return e.handleBinaryBoolInt32(or)
	case I32Xor:
		return e.handleBinaryInt32(xor)
	case I32Shl:
		return e.handleBinaryInt32(shl)
	case I32ShrS:
		return e.handleBinaryInt32(shrS)
	case I32ShrU:
		return e.handleBinaryInt32(shrU)
	case I32Rotl:
		return e.handleBinaryInt32(rotl)
	case I32Rotr:
		return e.handleBinaryInt32(rotr)
	default:
		return ErrUnimplemented
	}
	return nil
}

func (e *Evaluator) currentFrame() *callFrame {
	return &e.frames[len(e.frames)-1]
}

func (e *Evaluator) enter(index int, function *Function) error {
	if len(e.frames) >= e.config.MaxCallStackDepth {
		return ErrCallStackExhausted
	}
	if e.stack.size() < function.Params {
		return fmt.Errorf(
			"%w: function %d needs %d arguments, stack has %d",
			ErrStackUnderflow, index, function.Params, e.stack.size(),
		)
	}

	locals := make([]int32, function.Params+function.Locals)
	for i := range function.Params {
		locals[i], _ = e.stack.pop()
	}
	e.frames = append(e.frames, callFrame{
		function: index,
		locals:   locals,
		returnPC: e.pc,
	})
	e.pc = function.Entry
	return nil
}

// branch jumps to the target of a block of the current function.
func (e *Evaluator) branch(block int) error {
	function := e.currentFrame().function
	if function >= len(e.blocks) || block < 0 || block >= len(e.blocks[function]) {
		return fmt.Errorf("%w %d in function %d", ErrUnknownBlock, block, function)
	}
	e.pc = e.blocks[function][block].Target
	return nil
}

// handleBrIf branches only if the condition is strictly positive.
func (e *Evaluator) handleBrIf(block int) error {
	condition, err := e.stack.pop()
	if err != nil {
		return err
	}
	if condition <= 0 {
		return nil
	}
	return e.branch(block)
}

func (e *Evaluator) handleReturn() {
	frame := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	e.pc = frame.returnPC
}

func (e *Evaluator) handleCall(label Label) error {
	if label.Kind == ByName {
		if host, ok := e.hosts[label.Name]; ok {
			return e.invokeHostFunction(host)
		}
	}
	index, function, err := e.module.function(label)
	if err != nil {
		return err
	}
	return e.enter(index, function)
}

func (e *Evaluator) invokeHostFunction(host HostFunction) error {
	if e.stack.size() < host.Params {
		return ErrStackUnderflow
	}
	args := make([]int32, host.Params)
	for i := range args {
		args[i], _ = e.stack.pop()
	}
	results, err := host.Call(args)
	if err != nil {
		return err
	}
	e.stack.pushAll(results)
	return nil
}

// handleSelect pops a condition and two operands and keeps the first operand
// when the condition is nonzero, the second otherwise.
func (e *Evaluator) handleSelect() error {
	condition, err := e.stack.pop()
	if err != nil {
		return err
	}
	a, b, err := e.stack.pop2()
	if err != nil {
		return err
	}
	if condition != 0 {
		e.stack.push(a)
	} else {
		e.stack.push(b)
	}
	return nil
}

func (e *Evaluator) local(index int) (*int32, error) {
	locals := e.currentFrame().locals
	if index < 0 || index >= len(locals) {
		return nil, fmt.Errorf("%w %d", ErrUnknownLocal, index)
	}
	return &locals[index], nil
}

func (e *Evaluator) handleLocalGet(index int) error {
	slot, err := e.local(index)
	if err != nil {
		return err
	}
	e.stack.push(*slot)
	return nil
}

func (e *Evaluator) handleLocalSet(index int, keep bool) error {
	slot, err := e.local(index)
	if err != nil {
		return err
	}
	v, err := e.stack.pop()
	if err != nil {
		return err
	}
	*slot = v
	if keep {
		e.stack.push(v)
	}
	return nil
}

func (e *Evaluator) handleGlobalGet(label *Label) error {
	if label == nil {
		return errMissingOperand
	}
	v, err := e.Global(*label)
	if err != nil {
		return err
	}
	e.stack.push(v)
	return nil
}

func (e *Evaluator) handleGlobalSet(label *Label) error {
	if label == nil {
		return errMissingOperand
	}
	v, err := e.stack.pop()
	if err != nil {
		return err
	}
	return e.SetGlobal(*label, v)
}

func (e *Evaluator) handleLoad() error {
	offset, err := e.stack.pop()
	if err != nil {
		return err
	}
	v, err := e.memory.LoadInt32(offset)
	if err != nil {
		return err
	}
	e.stack.push(v)
	return nil
}

// handleStore pops the value, then the offset beneath it.
func (e *Evaluator) handleStore() error {
	offset, v, err := e.stack.pop2()
	if err != nil {
		return err
	}
	return e.memory.StoreInt32(offset, v)
}

func (e *Evaluator) handleUnaryInt32(op func(a int32) int32) error {
	a, err := e.stack.pop()
	if err != nil {
		return err
	}
	e.stack.push(op(a))
	return nil
}

func (e *Evaluator) handleBinaryInt32(op func(a, b int32) int32) error {
	a, b, err := e.stack.pop2()
	if err != nil {
		return err
	}
	e.stack.push(op(a, b))
	return nil
}

func (e *Evaluator) handleBinarySafeInt32(op func(a, b int32) (int32, error)) error {
	a, b, err := e.stack.pop2()
	if err != nil {
		return err
	}
	result, err := op(a, b)
	if err != nil {
		return err
	}
	e.stack.push(result)
	return nil
}

func (e *Evaluator) handleBinaryBoolInt32(op func(a, b int32) bool) error {
	a, b, err := e.stack.pop2()
	if err != nil {
		return err
	}
	e.stack.push(boolToInt32(op(a, b)))
	return nil
}
