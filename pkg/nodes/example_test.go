package nodes_test

import (
	"fmt"

	"github.com/matzehuels/exprgraph/pkg/graph"
	"github.com/matzehuels/exprgraph/pkg/nodes"
)

func ExampleNewAdd() {
	// Two decision vectors and their elementwise sum
	g := graph.New()
	x, _ := nodes.NewVariable(g, graph.Shape{3}, nodes.WithInitial(1, 2, 3))
	y, _ := nodes.NewVariable(g, graph.Shape{3}, nodes.WithInitial(10, 20, 30))
	sum, _ := nodes.NewAdd(g, x.Handle(), y.Handle())

	s, _ := g.NewState()
	fmt.Println("initial:", sum.Buffer(s))

	// Try a move, then undo it
	_ = y.Set(s, 1, 23)
	_ = g.Propagate(s)
	fmt.Println("moved:", sum.Buffer(s), sum.Diff(s))
	g.Revert(s)
	fmt.Println("reverted:", sum.Buffer(s))
	// Output:
	// initial: [11 22 33]
	// moved: [11 25 33] [[1] 22->25]
	// reverted: [11 22 33]
}

func ExampleNewSum() {
	g := graph.New()
	x, _ := nodes.NewVariable(g, graph.Shape{3}, nodes.WithInitial(1, 2, 3))
	total, _ := nodes.NewSum(g, x.Handle())

	s, _ := g.NewState()
	_ = x.Set(s, 0, 4)
	_ = g.Propagate(s)
	g.Commit(s)
	fmt.Println("sum:", total.Buffer(s)[0])
	// Output:
	// sum: 9
}

func ExampleNaryOp_AddPredecessor() {
	g := graph.New()
	a, _ := nodes.NewConstant(g, graph.Shape{2}, []float64{1, 1})
	b, _ := nodes.NewConstant(g, graph.Shape{2}, []float64{2, 2})
	c, _ := nodes.NewConstant(g, graph.Shape{2}, []float64{3, 3})
	d, _ := nodes.NewConstant(g, graph.Shape{2}, []float64{4, 4})

	total, _ := nodes.NewNaryAdd(g, a.Handle(), b.Handle(), c.Handle())
	_ = total.AddPredecessor(d.Handle())

	s, _ := g.NewState()
	fmt.Println("total:", total.Buffer(s))

	// The graph is frozen once a state exists
	err := total.AddPredecessor(d.Handle())
	fmt.Println("error:", err)
	// Output:
	// total: [10 10]
	// error: FROZEN: cannot append operands to Add after first use
}

func ExampleNewProd() {
	// A product over a dynamic array uses its initial value while empty
	g := graph.New()
	x, _ := nodes.NewVariable(g, graph.Shape{graph.Dynamic})
	prod, _ := nodes.NewProd(g, x.Handle(), nodes.WithInit(1))

	s, _ := g.NewState()
	fmt.Println("empty:", prod.Buffer(s)[0])

	_ = x.Grow(s, 5)
	_ = g.Propagate(s)
	fmt.Println("grown:", prod.Buffer(s)[0])
	// Output:
	// empty: 1
	// grown: 5
}

func ExampleUnaryOp_ValueRange() {
	g := graph.New()
	x, _ := nodes.NewVariable(g, graph.Shape{3}, nodes.WithBounds(-3, 4), nodes.WithInitial(-3, 0, 4))
	abs, _ := nodes.NewAbsolute(g, x.Handle())

	s, _ := g.NewState()
	fmt.Println(abs.Buffer(s), abs.ValueRange())
	// Output:
	// [3 0 4] [0, 4]
}
