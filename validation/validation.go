// Package validation holds the request validation rules enforced before any
// message reaches the broadcaster or a group is created.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"social-chat/errors"
)

var validate = validator.New()

type CreateGroupRequest struct {
	Name string `validate:"required,min=1,max=64"`
}

type PostMessageRequest struct {
	Content string `validate:"required,max=4096"`
}

// AttachmentRequest carries the opaque URL produced by the external upload
// service. Only its shape is checked here; storage and MIME validation
// happened upstream.
type AttachmentRequest struct {
	URL string `validate:"required,url,max=2048"`
}

func ValidateCreateGroup(req CreateGroupRequest) error {
	return wrap(validate.Struct(req))
}

func ValidatePostMessage(req PostMessageRequest) error {
	return wrap(validate.Struct(req))
}

func ValidateAttachment(req AttachmentRequest) error {
	return wrap(validate.Struct(req))
}

func wrap(err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}
