package stratisd

import (
	"fmt"
	"maps"

	"github.com/jbweber/stratctl/internal/failure"
)

// ReturnCode is the second element of every stratisd method reply.
type ReturnCode uint16

const (
	OK            ReturnCode = 0
	Error         ReturnCode = 1
	AlreadyExists ReturnCode = 2
	Busy          ReturnCode = 3
	InternalError ReturnCode = 4
	NotFound      ReturnCode = 5
)

// ErrorTable decodes return codes. It is built once at startup and is
// read-only afterwards.
type ErrorTable struct {
	names map[ReturnCode]string
}

// NewErrorTable returns the table of codes stratisd is known to return.
func NewErrorTable() ErrorTable {
	return ErrorTable{names: map[ReturnCode]string{
		OK:            "OK",
		Error:         "ERROR",
		AlreadyExists: "ALREADY_EXISTS",
		Busy:          "BUSY",
		InternalError: "INTERNAL_ERROR",
		NotFound:      "NOT_FOUND",
	}}
}

// WithNames returns a copy of t extended with extra codes.
func (t ErrorTable) WithNames(extra map[ReturnCode]string) ErrorTable {
	names := maps.Clone(t.names)
	if names == nil {
		names = make(map[ReturnCode]string, len(extra))
	}
	maps.Copy(names, extra)
	return ErrorTable{names: names}
}

// Name returns the symbolic name of rc, or "" if unknown.
func (t ErrorTable) Name(rc ReturnCode) string {
	return t.names[rc]
}

// Check returns a *failure.EngineError for any code other than OK.
func (t ErrorTable) Check(rc uint16, message string) error {
	if ReturnCode(rc) == OK {
		return nil
	}
	return &failure.EngineError{
		ReturnCode: rc,
		CodeName:   t.Name(ReturnCode(rc)),
		Message:    message,
	}
}

func (rc ReturnCode) String() string {
	return fmt.Sprintf("%d", uint16(rc))
}
