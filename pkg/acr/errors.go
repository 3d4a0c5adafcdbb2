package acr

import (
	stderrors "errors"

	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote/errcode"

	"github.com/azctl/azctl/pkg/errors"
)

// wrapRegistryError wraps err with the azctl code matching the registry failure.
func wrapRegistryError(message string, err error) error {
	code := errors.ErrCodeUnavailable
	var resp *errcode.ErrorResponse
	switch {
	case stderrors.Is(err, errdef.ErrNotFound):
		code = errors.ErrCodeResourceNotFound
	case stderrors.As(err, &resp):
		code = errors.CodeFromHTTPStatus(resp.StatusCode)
	}
	return errors.Wrap(code, message, err)
}
