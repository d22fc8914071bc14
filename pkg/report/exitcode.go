package report

import "github.com/mittwald/mittsmoke/pkg/probe"

const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitNetwork       = 3
	ExitQuery         = 4
	ExitProcess       = 5
	ExitTimeout       = 6
)

// ExitCode maps the overall outcome of r to a process exit code. Failing
// runs exit with the code of the first fatal failure's category.
func ExitCode(r *Report) int {
	if r.Overall() == Pass {
		return ExitOK
	}

	first, ok := r.FirstFailure()
	if !ok {
		return ExitFailure
	}
	return CategoryExitCode(first.Category)
}

func CategoryExitCode(c probe.Category) int {
	switch c {
	case probe.CategoryNetwork:
		return ExitNetwork
	case probe.CategoryQuery:
		return ExitQuery
	case probe.CategoryProcess:
		return ExitProcess
	case probe.CategoryTimeout:
		return ExitTimeout
	case probe.CategoryConfiguration:
		return ExitConfiguration
	default:
		return ExitFailure
	}
}
