package decode

// noopLogger discards everything. Used only when a Decoder is constructed
// without an explicit logger, matching the teacher's pattern of always
// having a working (if silent) logger rather than nil-checking at every
// call site.
type noopLogger struct{}

func (noopLogger) SetLevel(int8)                             {}
func (noopLogger) Log(level int8, msg string, params ...any)  {}
func (noopLogger) Debug(msg string, params ...any)            {}
func (noopLogger) Info(msg string, params ...any)             {}
func (noopLogger) Warning(msg string, params ...any)          {}
func (noopLogger) Error(msg string, params ...any)            {}
func (noopLogger) Fatal(msg string, params ...any)            {}
