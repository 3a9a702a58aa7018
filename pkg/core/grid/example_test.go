package grid_test

import (
	"fmt"

	"github.com/sanonone/kektorgrid/pkg/core/box"
	"github.com/sanonone/kektorgrid/pkg/core/grid"
	"github.com/sanonone/kektorgrid/pkg/core/points"
)

func Example() {
	set, _ := points.FromRows([][]float64{{0, 0}, {0.5, 0}, {0, 0.5}, {10, 10}})

	g, err := grid.New(set, grid.Config{Lengthscale: 1, Scale: 1, Backend: grid.Bounded})
	if err != nil {
		fmt.Println(err)
		return
	}

	g.ForEachPair(func(i, j int32, d2 float64) {
		fmt.Printf("pair %d-%d d2=%.2f\n", i, j, d2)
	})

	inside, _ := g.InBoxNaive(box.Box{Min: []float64{0, 0}, Max: []float64{1, 1}})
	fmt.Println("in box:", inside)

	// Output:
	// pair 1-0 d2=0.25
	// pair 2-0 d2=0.25
	// pair 2-1 d2=0.50
	// in box: [0 1 2]
}
