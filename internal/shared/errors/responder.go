package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// Respond writes problem with the problem+json content type. The request
// path becomes the instance when none is set.
func Respond(c *gin.Context, problem ProblemDetail) {
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// Rule maps errors matching Target (via errors.Is) onto a problem template.
type Rule struct {
	Target  error
	Problem ProblemDetail
}

// Mapper turns service errors into problems using the first matching rule.
type Mapper struct {
	rules []Rule
}

// NewMapper builds a mapper; unmatched errors become ErrInternal.
func NewMapper(rules ...Rule) *Mapper {
	return &Mapper{rules: rules}
}

// Problem resolves err. A ProblemDetail already in the chain wins over the rules.
func (m *Mapper) Problem(err error) ProblemDetail {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	for _, rule := range m.rules {
		if errors.Is(err, rule.Target) {
			return rule.Problem.WithDetail(err.Error())
		}
	}
	return ErrInternal.WithDetail(err.Error())
}

// Respond writes the problem resolved for err. A nil error writes nothing.
func (m *Mapper) Respond(c *gin.Context, err error) {
	if err == nil {
		return
	}
	Respond(c, m.Problem(err))
}
