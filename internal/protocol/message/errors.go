package message

import "fmt"

// FieldError locates an encode/decode failure at a member of a message.
type FieldError struct {
	Message string
	Tag     int
	Err     error
}

func (e FieldError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("message: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("message: %s tag=%d: %v", e.Message, e.Tag, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }
