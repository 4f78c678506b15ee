package pack

import (
	"github.com/pmezard/go-difflib/difflib"
)

// manifestDiff renders a unified diff from the current manifest bytes to the
// planned ones. An empty current manifest diffs against nothing.
func manifestDiff(name string, current, planned []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(planned)),
		FromFile: name + " (on disk)",
		ToFile:   name + " (planned)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
