package openai

import "fmt"

func errMismatch(expected, received int) error {
	return fmt.Errorf("embedding result mismatch: expected %d vectors, received %d", expected, received)
}

func errDimension(index, got, want int) error {
	return fmt.Errorf("vector %d has dimension %d, expected %d", index, got, want)
}
