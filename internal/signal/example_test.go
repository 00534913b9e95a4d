package signal_test

import (
	"fmt"

	"github.com/dshills/sigslot/internal/signal"
)

func ExampleSignal() {
	sig := signal.New[string]("status")
	conn := sig.ConnectFunc(func(s string) {
		fmt.Println("status:", s)
	})

	sig.Emit("ready")
	conn.Disconnect()
	sig.Emit("ignored")

	// Output:
	// status: ready
}

func ExampleExtendedSignal() {
	sig := signal.NewExtended[int]("once")
	sig.Connect(func(s *signal.ExtendedSignal[int], v int) {
		fmt.Printf("%s got %d\n", s.Name(), v)
		s.SetEnabled(false)
	})

	sig.Emit(1)
	sig.Emit(2)

	// Output:
	// once got 1
}

func ExampleThreaded() {
	sig := signal.New[int]("worker")
	sig.ConnectFunc(func(v int) {
		fmt.Println("processed", v)
	})

	th := signal.NewThreaded[int](sig)
	for i := 1; i <= 3; i++ {
		th.Emit(i)
	}
	th.Close()

	// Output:
	// processed 1
	// processed 2
	// processed 3
}

func ExampleSet() {
	set := signal.NewSignalSet[string]()
	for _, name := range []string{"alpha", "beta"} {
		set.MustGet(name).ConnectFunc(func(v string) {
			fmt.Println(name, v)
		})
	}

	set.MustGet("alpha").Emit("direct")
	for name := range set.Names() {
		fmt.Println("member", name)
	}

	// Output:
	// alpha direct
	// member alpha
	// member beta
}
