package structuregen

import (
	"errors"
	"fmt"
)

// ErrStructureGenerationFailed is returned once all attempts (including
// the deterministic rebuild) fail to produce a usable structure; the job
// transitions to failed (spec §4.G).
var ErrStructureGenerationFailed = errors.New("structuregen: structure generation failed")

// validate applies the minimum shape invariants a parsed structure must
// satisfy to be usable downstream: a title and at least one page, each
// with an id.
func validate(s *Structure) error {
	if s.Title == "" {
		return fmt.Errorf("structuregen: missing <title>")
	}
	if len(s.Pages) == 0 {
		return fmt.Errorf("structuregen: <pages> contained no <page> entries")
	}
	for i, p := range s.Pages {
		if p.ID == "" {
			return fmt.Errorf("structuregen: page at index %d has no id attribute", i)
		}
	}
	return nil
}
