package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/chat"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := chatApi{svc: deps.ChatSvc}

	cg := g.Group("/chat/sessions", jwt)
	cg.GET("", api.sessions)
	cg.POST("", api.startSession)

	dg := cg.Group("/:id")
	dg.GET("/messages", api.messages)
	dg.POST("/messages", api.respond)
}

func (api *chatApi) sessions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sessions, err := api.svc.Sessions(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying chat sessions")
	}
	if sessions == nil {
		sessions = []chat.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *chatApi) startSession(ctx echo.Context) error {
	var data StartSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartSessionRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	session, err := api.svc.StartSession(ctx.Request().Context(), claims.Subject, data.Topic)
	if err != nil {
		return errors.Wrap(err, "starting chat session")
	}
	return ctx.JSON(http.StatusCreated, session)
}

func (api *chatApi) messages(ctx echo.Context) error {
	if err := api.checkOwner(ctx); err != nil {
		return err
	}

	msgs, err := api.svc.Messages(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying chat messages")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

// respond posts a user message and returns the assistant's scripted reply.
func (api *chatApi) respond(ctx echo.Context) error {
	if err := api.checkOwner(ctx); err != nil {
		return err
	}

	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reply, err := api.svc.Respond(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "responding to chat message")
	}
	return ctx.JSON(http.StatusCreated, reply)
}

// checkOwner hides other users' sessions, 404-style.
func (api *chatApi) checkOwner(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	session, err := api.svc.Session(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding chat session")
	}
	if session.UserID != claims.Subject && !claims.IsAdmin {
		return errHttpNotFound
	}
	return nil
}
