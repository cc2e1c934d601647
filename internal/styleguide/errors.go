package styleguide

import "errors"

// ErrMissingConfiguration indicates the base document lacks the root section.
var ErrMissingConfiguration = errors.New("missing styleguide configuration")
