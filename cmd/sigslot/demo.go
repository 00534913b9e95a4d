package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/sigslot/internal/payload"
	"github.com/dshills/sigslot/internal/property"
	"github.com/dshills/sigslot/internal/signal"
)

func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a tour of every signal kind",
		Long: `Runs properties with vetoes, a throttled burst, two threaded signals,
a timer that changes its own interval and stops itself, a JSON signal,
an extended signal and three kinds of signal set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			wait := a.serveMetrics(ctx)
			defer wait()
			defer cancel()

			d := &demo{
				ctx: ctx,
				app: a,
				out: cmd.OutOrStdout(),
				opts: []signal.Option{
					signal.WithLogger(a.logger),
					signal.WithObserver(a.recorder.Observe),
				},
			}
			return d.run()
		},
	}
}

// demo runs each step in order and writes to out. Background slots print
// too, so writes go through printf.
type demo struct {
	ctx  context.Context
	app  *app
	opts []signal.Option

	mu  sync.Mutex
	out io.Writer
}

func (d *demo) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format+"\n", args...)
}

func (d *demo) sleep(dur time.Duration) error {
	select {
	case <-time.After(dur):
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *demo) run() error {
	steps := []func() error{
		d.properties,
		d.throttled,
		d.threaded,
		d.timer,
		d.json,
		d.extended,
		d.sets,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	d.printf("exiting...")
	return nil
}

func vetoNegative(d *demo) func(*property.Change[int]) {
	return func(c *property.Change[int]) {
		d.printf("The property '%s' changing: from [%d] to [%d]", c.Property.Name(), c.Old, c.New)
		if c.New < 0 {
			c.Cancel()
			d.printf("<<<negative numbers are not allowed! The change was cancelled by a slot!>>>")
		}
	}
}

func vetoEmpty(d *demo) func(*property.Change[string]) {
	return func(c *property.Change[string]) {
		d.printf("The property '%s' changing: from [%s] to [%s]", c.Property.Name(), c.Old, c.New)
		if c.New == "" {
			c.Cancel()
			d.printf("<<<empty strings are not allowed! The change was cancelled by a slot!>>>")
		}
	}
}

func printChanged[T any](d *demo) func(*property.Property[T]) {
	return func(p *property.Property[T]) {
		d.printf("The property '%s' changed to: %s", p.Name(), p)
	}
}

func (d *demo) properties() error {
	intProp := property.New("integer property for tests", 0)
	dummy := property.New("dummy", 0)

	var conns signal.Connections
	conns.Add(intProp.Changing().ConnectFunc(vetoNegative(d)))
	conns.Add(intProp.Changed().ConnectFunc(printChanged[int](d)))

	for _, c := range conns {
		if sig := c.Signal(); sig != nil {
			d.printf("connection name: '%s'", sig.Name())
		}
	}

	dummy.Set(222)
	intProp.Set(1)
	intProp.Set(150)

	d.printf("...temporary disabling value_changing signal...")
	conns[0].Signal().SetEnabled(false)

	intProp.Set(50)
	property.Mul(intProp, 7)

	d.printf("comparing int_prop == dummy (expecting: false): %t", intProp.Equal(dummy))

	d.printf("...enabling value_changing signal again...")
	conns[0].Signal().SetEnabled(true)

	intProp.Set(dummy.Value())
	d.printf("now comparing int_prop == dummy (expecting: true): %t", intProp.Equal(dummy))

	intProp.Set(-1)
	d.printf("int_prop = %s", intProp)

	d.printf("testing increments and decrements:")
	property.Inc(intProp)
	property.Inc(intProp)
	property.Dec(intProp)
	property.Dec(intProp)

	conns.DisconnectAll()
	d.printf("no slots are called from now on since all connections were dropped...")
	d.printf("...setting int_prop to -1 should not be restricted now...")
	intProp.Set(-1)
	d.printf("int_prop = %s", intProp)

	strProp := property.New("string property for tests", "___")
	conns.Add(strProp.Changing().ConnectFunc(vetoEmpty(d)))
	conns.Add(strProp.Changed().ConnectFunc(printChanged[string](d)))
	defer conns.DisconnectAll()

	strProp.Set("Hello World!")
	strProp.Set("")
	d.printf("str_prop = %s", strProp.Value())
	return nil
}

func (d *demo) throttled() error {
	window := d.app.cfg.Throttle.Window

	th, err := signal.NewThrottled[string](signal.New[string]("THROTTLED"), window, d.opts...)
	if err != nil {
		return err
	}
	d.app.recorder.Track("throttled", th)
	th.Signal().ConnectFunc(func(s string) {
		d.printf("throttle: %s; %s", s, th.Name())
	})

	const burst = 10
	for range burst {
		th.Emit("throttled signal emitted...")
	}
	if err := d.sleep(300 * time.Millisecond); err != nil {
		return err
	}
	for range burst {
		th.Emit("throttled signal emitted...")
	}

	d.printf("done...")
	d.printf("emitting the rest of queued signals (%d pending)...", th.Pending())

	if err := th.Close(); err != nil {
		return err
	}
	return th.Wait(d.ctx)
}

func (d *demo) threaded() error {
	sg1 := signal.NewThreaded[string](signal.New[string]("THREADED 1"), d.opts...)
	sg2 := signal.NewThreaded[string](signal.New[string]("THREADED 2"), d.opts...)
	d.app.recorder.Track("threaded", sg1)
	d.app.recorder.Track("threaded", sg2)

	sg1.Signal().ConnectFunc(func(s string) { d.printf("threaded 1: %s", s) })
	sg2.Signal().ConnectFunc(func(s string) { d.printf("threaded 2: %s", s) })

	for range 6 {
		sg1.Emit("1")
		sg2.Emit("2")
	}

	if err := sg1.Stop(d.ctx); err != nil {
		return err
	}
	return sg2.Stop(d.ctx)
}

func (d *demo) timer() error {
	strProp := property.New("timer status", "")
	conn := strProp.Changed().ConnectFunc(printChanged[string](d))
	defer conn.Disconnect()

	timer, err := signal.NewTimer[*property.Property[string]]("My timer", d.app.cfg.Timer.Interval, d.opts...)
	if err != nil {
		return err
	}
	d.app.recorder.Track("timer", timer)
	defer timer.Close()

	stopped := make(chan struct{})
	idx := 0
	timer.Connect(func(t *signal.Timer[*property.Property[string]], p *property.Property[string]) {
		d.printf("timer: %s", t.Name())
		idx++
		p.Set(strconv.Itoa(idx) + " tick...")

		if idx == 2 {
			if err := t.SetInterval(200 * time.Millisecond); err != nil {
				d.printf("timer: %v", err)
			}
			p.Set("...timer duration changed to 200ms")
		}
		if idx == 5 {
			t.DisableFromSlot()
			p.Set("...timer stopped...")
			close(stopped)
		}
	})

	if err := timer.Start(strProp); err != nil {
		return err
	}

	select {
	case <-stopped:
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *demo) json() error {
	jsig := signal.New[string]("JSON signal")
	conn := payload.Bind(jsig, "JSONObject.property", func(r gjson.Result) {
		d.printf("JSON property: %s", r.Raw)
	}, payload.WithLogger(d.app.logger))
	defer conn.Disconnect()

	params, err := payload.Encode("JSONObject.property", "This is the real JSON property...")
	if err != nil {
		return err
	}
	rj, err := payload.Encode(
		"JSONObject.property", "This is the super JSON property...",
		"JSONObject.One_more_property", 888,
		"JSONObject.Niels Lohmann does amazing json for cpp", true,
	)
	if err != nil {
		return err
	}

	jsig.Emit(params)
	jsig.Emit(`{"JSONObject": {"property": "This is the parsed JSON property..."}}`)
	jsig.Emit(rj)

	d.printf("Pretty printed JSON:\n%s", payload.Pretty(rj))
	return nil
}

func (d *demo) extended() error {
	sex := signal.NewExtended[struct{}]("Extended signal")
	sex.Connect(func(s *signal.ExtendedSignal[struct{}], _ struct{}) {
		d.printf("%s was emitted!", s.Name())
	})
	sex.Emit(struct{}{})
	return nil
}

type callableSet struct {
	d *demo
}

func (c callableSet) callMe(s string) {
	c.d.printf("%s", s)
}

type threadedExtended = signal.Threaded[string, *signal.ExtendedSignal[string]]

func (d *demo) sets() error {
	cs := callableSet{d: d}

	sss := signal.NewSignalSet[string]()
	sss.MustGet("/mainwindow/button/ok").ConnectFunc(func(s string) { d.printf("%s", s) })
	sss.MustGet("/new/channel").ConnectFunc(func(s string) { d.printf("%s", s) })
	sss.MustGet("/other/channel").ConnectFunc(cs.callMe)
	sss.MustGet("/broadcast/channel").ConnectFunc(cs.callMe)
	sss.MustGet("/broadcast/channel").ConnectFunc(func(string) { d.printf("/broadcast/channel...") })

	for name := range sss.Names() {
		d.printf("signal name: %s", name)
	}
	if sss.Exists("/broadcast/channel") {
		d.printf("/broadcast/channel is created...")
	}
	sss.Emit("hello...")

	sssx := signal.NewExtendedSet[string]()
	printKey := func(s *signal.ExtendedSignal[string], v string) {
		d.printf("signal name: %s; value: %s", s.Name(), v)
	}
	sssx.MustGet("key_down").Connect(printKey)
	sssx.MustGet("key_up").Connect(printKey)
	sssx.Emit("smart signal...")

	super := signal.NewSet[string](func(name string) *threadedExtended {
		th := signal.NewThreaded[string](signal.NewExtended[string](name), d.opts...)
		d.app.recorder.Track("threaded", th)
		return th
	})
	executor := func(s *signal.ExtendedSignal[string], v string) {
		d.printf("SUPER SIGNAL NAME: %s; value: %s", s.Name(), v)
	}
	for _, key := range []string{"super signal 1", "super signal 2", "super signal 3"} {
		super.MustGet(key).Signal().Connect(executor)
	}
	super.Emit("super signal value!")

	return super.Close()
}
