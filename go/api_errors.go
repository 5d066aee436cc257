package ordersserver

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	taxapp "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/application"
	taxports "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
	apierrors "github.com/Apurer/go-gin-order-taxes/internal/shared/errors"
)

var (
	orderProblems = apierrors.NewMapper(
		apierrors.Rule{Target: ordersports.ErrNotFound, Problem: apierrors.ErrNotFound},
		apierrors.Rule{Target: ordersapp.ErrNotFound, Problem: apierrors.ErrNotFound},
		apierrors.Rule{Target: ordersapp.ErrInvalidInput, Problem: apierrors.ErrBadRequest},
		apierrors.Rule{Target: ordersapp.ErrConflict, Problem: apierrors.ErrConflict},
		apierrors.Rule{Target: ordersports.ErrIdempotencyConflict, Problem: apierrors.ErrConflict},
	)
	taxProblems = apierrors.NewMapper(
		apierrors.Rule{Target: taxports.ErrNotFound, Problem: apierrors.ErrNotFound},
		apierrors.Rule{Target: taxapp.ErrInvalidInput, Problem: apierrors.ErrBadRequest},
	)
)

// respondError renders err as an RFC 7807 response with the given status.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	apierrors.Respond(c, apierrors.ForStatus(status).WithDetail(err.Error()))
}

func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problem := orderProblems.Problem(err)
	if errors.Is(err, ordersports.ErrIdempotencyConflict) {
		if key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)); key != "" {
			problem = problem.WithExtension("idempotencyKey", key)
		}
	}
	apierrors.Respond(c, problem)
}

func respondTaxServiceError(c *gin.Context, err error) {
	taxProblems.Respond(c, err)
}
