package mocogan

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is the cause of every construction time failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrShapeMismatch is the cause of call time failures on badly shaped
	// or badly laid out tensors.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidLabel is the cause of failures on out of range labels.
	ErrInvalidLabel = errors.New("invalid label")
)

func shapeErr(format string, args ...interface{}) error {
	return errors.Wrapf(ErrShapeMismatch, format, args...)
}

func configErr(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfig, format, args...)
}
