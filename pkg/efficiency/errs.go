package efficiency

import "errors"

// ErrDuplicateHistogram indicates two histograms with the same key.
var ErrDuplicateHistogram = errors.New("efficiency: duplicate histogram")
