package panicerr

// Recover calls f, converting any panic raised by it into a non-nil error
// return. Error-typed panic values remain reachable through errors.Is and
// errors.As; anything else is carried as an opaque value.
func Recover(name string, f func() error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = panicError{name: name, e: e, stack: stack()}
		}
	}()
	return f()
}
