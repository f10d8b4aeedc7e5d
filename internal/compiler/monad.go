package compiler

// Option carries a value through a chain of compilation stages, short-circuiting
// on the first error.
type Option[T any] struct {
	value T
	err   error
}

// createOption creates a new Option
func createOption[T any](value T, err error) Option[T] {
	return Option[T]{value: value, err: err}
}

// Map applies a function that cannot fail to the Option value
func (o Option[T]) Map(f func(T) T) Option[T] {
	if o.err != nil {
		return o
	}
	return createOption(f(o.value), nil)
}

// Bind chains Option operations while handling potential errors
func (o Option[T]) Bind(f func(T) Option[T]) Option[T] {
	if o.err != nil {
		return o
	}
	return f(o.value)
}

// Unwrap returns the carried value and error.
func (o Option[T]) Unwrap() (T, error) {
	return o.value, o.err
}
