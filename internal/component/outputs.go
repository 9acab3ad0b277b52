package component

import "fmt"

// Output is a single named value published by a component or by the stack.
type Output struct {
	Name   string
	Value  string
	Secret bool
}

func String(name, value string) Output { return Output{Name: name, Value: value} }

// Secret outputs are never logged, and are masked when printed unless explicitly requested.
func Secret(name, value string) Output { return Output{Name: name, Value: value, Secret: true} }

// Outputs is an ordered set of outputs. Order is registration order.
type Outputs []Output

func (o Outputs) Get(name string) (Output, bool) {
	for _, out := range o {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// Value returns the named value or an empty string.
func (o Outputs) Value(name string) string {
	out, _ := o.Get(name)
	return out.Value
}

func (o *Outputs) add(out Output) error {
	if out.Name == "" {
		return fmt.Errorf("output name is required")
	}
	if _, exists := o.Get(out.Name); exists {
		return fmt.Errorf("output %q is already registered", out.Name)
	}
	*o = append(*o, out)
	return nil
}
