// Package sweep drives successive runs at increasing worker counts and
// applies a diminishing-returns heuristic to stop once added concurrency no
// longer buys throughput.
package sweep
