package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := notificationApi{svc: deps.NotificationSvc}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("/:id/read", api.markRead)
}

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	unreadOnly := ctx.QueryParam("unread") == "true"
	notifs, err := api.svc.Query(ctx.Request().Context(), claims.Subject, unreadOnly)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding notification")
	}
	if n.UserID != claims.Subject && !claims.IsAdmin {
		return errHttpNotFound
	}

	n, err = api.svc.MarkRead(ctx.Request().Context(), n.ID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, n)
}
