package series_test

import (
	"fmt"

	"github.com/cwbudde/algo-bold/stats/series"
	"gonum.org/v1/gonum/mat"
)

func ExampleCalculate() {
	s := series.Calculate([]float64{1, 2, 3, 4})
	fmt.Printf("mean=%.2f var=%.4f range=%.0f\n", s.Mean, s.Variance, s.Range)

	// Output:
	// mean=2.50 var=1.2500 range=3
}

func ExampleConstantColumns() {
	m := mat.NewDense(3, 3, []float64{
		1, 5, 0,
		2, 5, 0,
		3, 5, 0,
	})
	fmt.Println(series.ConstantColumns(m), series.ZeroColumns(m))

	// Output:
	// [1 2] [2]
}
