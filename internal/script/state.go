// Package script binds a signal set to an embedded Lua interpreter.
//
// Scripts see a global module named signals:
//
//	id = signals.connect("saved", function(name, value) print(name, value) end)
//	signals.emit("saved", { path = "a.txt" })
//	signals.broadcast("shutdown")
//	signals.emit_match("ui/**", "redraw")
//	signals.enable("saved", false)
//	signals.disconnect(id)
//	for _, name in ipairs(signals.names()) do print(name) end
//
// Keys name lazily created extended signals. Connection ids are UUID strings.
// Lua slots receive the signal name and the payload converted to Lua; an
// error raised by a slot is logged and does not stop the emission.
//
// The interpreter is single-threaded: every entry point locks the State,
// and the underlying set is only reachable through it.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/signal"
)

// DefaultExecutionTimeout bounds a single DoString, DoFile or Emit call.
const DefaultExecutionTimeout = 5 * time.Second

// ModuleName is the name of the global Lua module.
const ModuleName = "signals"

type signalSet = signal.Set[any, *signal.ExtendedSignal[any]]

// State is a sandboxed Lua interpreter with a signal set bound to it.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	set     *signalSet
	conns   map[string]*signal.Connection
	bridge  *Bridge
	logger  *logging.Logger
	out     io.Writer
	timeout time.Duration
	closed  bool

	slotErrors atomic.Uint64
}

// StateOption configures a State.
type StateOption func(*State)

// WithOutput sets where the Lua print function writes. Default os.Stdout.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.out = w
	}
}

// WithLogger sets the logger for slot errors.
func WithLogger(l *logging.Logger) StateOption {
	return func(s *State) {
		s.logger = l
	}
}

// WithExecutionTimeout sets the timeout of each call into Lua.
// Zero disables the timeout.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// NewState creates a new sandboxed Lua state with the signals module
// installed.
func NewState(opts ...StateOption) *State {
	s := &State{
		set:     signal.NewExtendedSet[any](),
		conns:   make(map[string]*signal.Connection),
		out:     os.Stdout,
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default().WithComponent("script")
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	s.bridge = NewBridge(s.L)

	openSafeLibraries(s.L)
	s.L.SetGlobal("print", s.L.NewFunction(s.luaPrint))
	s.L.SetGlobal(ModuleName, s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"connect":    s.luaConnect,
		"disconnect": s.luaDisconnect,
		"emit":       s.luaEmit,
		"broadcast":  s.luaBroadcast,
		"exists":     s.luaExists,
		"names":      s.luaNames,
		"enable":     s.luaEnable,
		"count":      s.luaCount,
		"match":      s.luaMatch,
		"emit_match": s.luaEmitMatch,
	}))

	return s
}

// openSafeLibraries opens the base, table, string and math libraries and
// removes the base functions that load code from outside the script.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(func() error {
		return s.L.DoString(code)
	})
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(func() error {
		return s.L.DoFile(path)
	})
}

// Emit emits v on the signal for key, creating the signal if needed.
func (s *State) Emit(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(func() error {
		sig, err := s.set.Get(key)
		if err != nil {
			return err
		}
		sig.Emit(v)
		return nil
	})
}

// Broadcast emits v on every signal of the set.
func (s *State) Broadcast(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(func() error {
		s.set.Emit(v)
		return nil
	})
}

// Connect connects a Go slot to the signal for key. The slot runs with the
// State locked, on whichever goroutine emitted; it must not call back into
// the State.
func (s *State) Connect(key string, fn func(name string, v any)) (*signal.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	sig, err := s.set.Get(key)
	if err != nil {
		return nil, err
	}
	return sig.Connect(func(sig *signal.ExtendedSignal[any], v any) {
		fn(sig.Name(), v)
	}), nil
}

// Exists reports whether a signal was created for key.
func (s *State) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Exists(key)
}

// Names returns the keys of the set in sorted order.
func (s *State) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(s.set.Names())
}

// SlotErrors returns the number of errors raised by Lua slots.
func (s *State) SlotErrors() uint64 {
	return s.slotErrors.Load()
}

// Close disconnects every script connection and releases the interpreter.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for id, conn := range s.conns {
		conn.Disconnect()
		delete(s.conns, id)
	}
	s.L.Close()
	s.closed = true
	return nil
}

// run executes fn against the interpreter with the execution timeout and
// panic recovery. The caller holds s.mu.
func (s *State) run(fn func() error) (err error) {
	if s.closed {
		return ErrStateClosed
	}

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
	}()

	return fn()
}

// luaSlot adapts a Lua function to an extended slot.
func (s *State) luaSlot(fn *lua.LFunction) signal.ExtendedSlotFunc[any] {
	return func(sig *signal.ExtendedSignal[any], v any) {
		err := s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
			lua.LString(sig.Name()), s.bridge.ToLuaValue(v))
		if err != nil {
			s.slotErrors.Add(1)
			s.logger.WithField("signal", sig.Name()).Error("lua slot failed: %v", err)
		}
	}
}

func (s *State) luaConnect(L *lua.LState) int {
	key := L.CheckString(1)
	fn := L.CheckFunction(2)

	sig, err := s.set.Get(key)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	id := uuid.NewString()
	s.conns[id] = sig.Connect(s.luaSlot(fn))

	L.Push(lua.LString(id))
	return 1
}

func (s *State) luaDisconnect(L *lua.LState) int {
	id := L.CheckString(1)

	conn, ok := s.conns[id]
	if ok {
		conn.Disconnect()
		delete(s.conns, id)
	}

	L.Push(lua.LBool(ok))
	return 1
}

func (s *State) luaEmit(L *lua.LState) int {
	key := L.CheckString(1)

	sig, err := s.set.Get(key)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	sig.Emit(s.bridge.ToGoValue(L.Get(2)))
	return 0
}

func (s *State) luaBroadcast(L *lua.LState) int {
	s.set.Emit(s.bridge.ToGoValue(L.Get(1)))
	return 0
}

func (s *State) luaExists(L *lua.LState) int {
	L.Push(lua.LBool(s.set.Exists(L.CheckString(1))))
	return 1
}

func (s *State) luaNames(L *lua.LState) int {
	t := L.NewTable()
	for name := range s.set.Names() {
		t.Append(lua.LString(name))
	}
	L.Push(t)
	return 1
}

func (s *State) luaMatch(L *lua.LState) int {
	t := L.NewTable()
	for name := range s.set.Match(L.CheckString(1)) {
		t.Append(lua.LString(name))
	}
	L.Push(t)
	return 1
}

func (s *State) luaEmitMatch(L *lua.LState) int {
	n := s.set.EmitMatching(L.CheckString(1), s.bridge.ToGoValue(L.Get(2)))
	L.Push(lua.LNumber(n))
	return 1
}

func (s *State) luaEnable(L *lua.LState) int {
	key := L.CheckString(1)
	enabled := L.OptBool(2, true)

	sig, err := s.set.Get(key)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	sig.SetEnabled(enabled)
	return 0
}

func (s *State) luaCount(L *lua.LState) int {
	key := L.CheckString(1)

	n := 0
	if s.set.Exists(key) {
		n = s.set.MustGet(key).SlotCount()
	}
	L.Push(lua.LNumber(n))
	return 1
}

// luaPrint writes its arguments, tab separated, to the configured output.
func (s *State) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, top)
	for i := 1; i <= top; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	return 0
}
