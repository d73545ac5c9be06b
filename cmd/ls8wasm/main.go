// Command ls8wasm exposes the LS-8 assembler and CPU core to a browser
// host through syscall/js. It is deliberately thin: the browser owns the
// per-tick scheduler, the wall-clock accumulator, and key-event capture,
// and only ever calls back into assemble, step, and the register/memory
// accessors below.
package main

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/ls8/ls8/pkg/asm"
	"github.com/ls8/ls8/pkg/cpu"
	"github.com/ls8/ls8/pkg/ioport"
)

// machines holds every CPU instance handed out to JS, indexed by an
// opaque integer handle, since js.Value cannot carry a Go pointer safely
// across the boundary.
var (
	machinesMu sync.Mutex
	machines   = map[int]*cpu.CPU{}
	nextHandle int
)

func main() {
	js.Global().Set("ls8Assemble", js.FuncOf(assemble))
	js.Global().Set("ls8NewMachine", js.FuncOf(newMachine))
	js.Global().Set("ls8Step", js.FuncOf(step))
	js.Global().Set("ls8PushKey", js.FuncOf(pushKey))
	js.Global().Set("ls8Snapshot", js.FuncOf(snapshot))

	select {} // keep the wasm module alive; the browser drives everything else
}

// assemble(text string) -> {bytes: Uint8Array} | {error: string}
func assemble(this js.Value, args []js.Value) interface{} {
	code, err := asm.Translate(args[0].String())
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"bytes": bytesToJS(code)})
}

// newMachine(bytes Uint8Array) -> {handle: int} | {error: string}
func newMachine(this js.Value, args []js.Value) interface{} {
	program := jsToBytes(args[0])

	reader := ioport.NewChannelReader(64)
	var out consoleWriter

	machine := cpu.New(reader, &out)
	if err := machine.Load(program); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	machinesMu.Lock()
	handle := nextHandle
	nextHandle++
	machines[handle] = machine
	machinesMu.Unlock()

	keyboardReaders[handle] = reader
	outputs[handle] = &out

	return js.ValueOf(map[string]interface{}{"handle": handle})
}

// step(handle int) -> {halted: bool, output: string} | {error: string}
func step(this js.Value, args []js.Value) interface{} {
	handle := args[0].Int()
	machinesMu.Lock()
	m, ok := machines[handle]
	machinesMu.Unlock()
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "unknown machine handle"})
	}

	if m.Halted() {
		return js.ValueOf(map[string]interface{}{"halted": true})
	}

	if err := m.Step(); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	out := outputs[handle]
	produced := out.drain()
	return js.ValueOf(map[string]interface{}{"halted": m.Halted(), "output": produced})
}

// pushKey(handle int, key int) delivers one keyboard byte, driving the
// keyboard-interrupt path the browser's key-event capture feeds.
func pushKey(this js.Value, args []js.Value) interface{} {
	handle := args[0].Int()
	key := byte(args[1].Int())
	if r, ok := keyboardReaders[handle]; ok {
		r.Push(key)
	}
	return js.Undefined()
}

// snapshot(handle int) -> register/pc/halted/cycle/interrupt-enable state
// for the browser's display
func snapshot(this js.Value, args []js.Value) interface{} {
	handle := args[0].Int()
	machinesMu.Lock()
	m, ok := machines[handle]
	machinesMu.Unlock()
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "unknown machine handle"})
	}
	snap := m.Snapshot()
	regs := make([]interface{}, len(snap.Registers))
	for i, r := range snap.Registers {
		regs[i] = int(r)
	}
	return js.ValueOf(map[string]interface{}{
		"registers":  regs,
		"pc":         int(snap.ProgramCounter),
		"halted":     snap.Halted,
		"cycles":     fmt.Sprintf("%d", snap.Cycles),
		"interrupts": snap.InterruptsEnabled,
	})
}

var (
	keyboardReaders = map[int]*ioport.ChannelReader{}
	outputs         = map[int]*consoleWriter{}
)

// consoleWriter buffers PRN/PRA output between step() calls so the
// browser host can poll it instead of the core pushing DOM updates
// itself.
type consoleWriter struct {
	mu  sync.Mutex
	buf []byte
}

func (w *consoleWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *consoleWriter) PrintDecimal(v byte) error {
	_, err := w.Write([]byte(fmt.Sprintf("%d", v)))
	return err
}

func (w *consoleWriter) drain() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := string(w.buf)
	w.buf = w.buf[:0]
	return s
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func jsToBytes(v js.Value) []byte {
	b := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(b, v)
	return b
}

var _ ioport.Writer = (*consoleWriter)(nil)
