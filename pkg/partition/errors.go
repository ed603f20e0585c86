package partition

import "fmt"

// Storage operations reported in StorageError.Op.
const (
	OpRead   = "read"
	OpDecode = "decode"
	OpEncode = "encode"
	OpWrite  = "write"
	OpMkdir  = "mkdir"
	OpKey    = "key"
)

// StorageError reports a failed read or write of a month partition.
type StorageError struct {
	Month string
	Op    string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Month == "" {
		return fmt.Sprintf("partition %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("partition %s %s: %v", e.Month, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
