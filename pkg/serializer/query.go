package serializer

import (
	"github.com/jmespath/go-jmespath"

	"github.com/azctl/azctl/pkg/errors"
)

// Query evaluates a JMESPath expression against data in the generic JSON model.
func Query(expr string, data any) (any, error) {
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue,
			"argument --query: invalid jmespath query supplied", err)
	}
	out, err := compiled.Search(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue,
			"argument --query: query failed", err)
	}
	return out, nil
}
