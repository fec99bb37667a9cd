// Package cloud models the device cloud surface of the controller: named
// functions that take a command string and return an int, and named integer
// variables.
//
// Registry is not safe for concurrent use. Calls from other goroutines go
// through a Mailbox, which the loop goroutine drains between ticks.
package cloud

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownFunction is returned when calling a function that is not registered.
var ErrUnknownFunction = errors.New("cloud: unknown function")

// ErrUnknownVariable is returned when reading a variable that is not registered.
var ErrUnknownVariable = errors.New("cloud: unknown variable")

// Function handles a remote call and returns its integer result.
type Function func(command string) int

// Variable reports the current value of a remote variable.
type Variable func() int

// Registry holds the registered functions and variables.
type Registry struct {
	functions map[string]Function
	variables map[string]Variable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]Function),
		variables: make(map[string]Variable),
	}
}

// RegisterFunction adds or replaces the function called name.
func (r *Registry) RegisterFunction(name string, fn Function) {
	r.functions[name] = fn
}

// RegisterVariable adds or replaces the variable called name.
func (r *Registry) RegisterVariable(name string, fn Variable) {
	r.variables[name] = fn
}

// Call invokes the function called name with command.
func (r *Registry) Call(name, command string) (int, error) {
	fn, ok := r.functions[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return fn(command), nil
}

// Variable returns the current value of the variable called name.
func (r *Registry) Variable(name string) (int, error) {
	fn, ok := r.variables[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return fn(), nil
}

// Variables returns the current value of every variable.
func (r *Registry) Variables() map[string]int {
	out := make(map[string]int, len(r.variables))
	for name, fn := range r.variables {
		out[name] = fn()
	}
	return out
}

// Functions returns the registered function names, sorted.
func (r *Registry) Functions() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
