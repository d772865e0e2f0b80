package database

// ConnectionError indicates the database cannot be reached or
// authenticated to. Fatal to the session until reconnection.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "database connection: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExecutionError carries the engine's message for a statement the
// database rejected. Not fatal to a turn; callers feed the text back
// into answer synthesis.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
