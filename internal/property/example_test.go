package property_test

import (
	"fmt"

	"github.com/dshills/sigslot/internal/property"
)

func ExampleProperty() {
	level := property.New("level", 1)
	level.Changing().ConnectFunc(func(c *property.Change[int]) {
		if c.New < 0 {
			fmt.Printf("rejected %d\n", c.New)
			c.Cancel()
		}
	})
	level.Changed().ConnectFunc(func(p *property.Property[int]) {
		fmt.Printf("%s = %v\n", p.Name(), p)
	})

	level.Set(150)
	level.Set(-1)
	property.Sub(level, 100)

	// Output:
	// level = 150
	// rejected -1
	// level = 50
}
