package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/campaign"
)

type campaignApi struct {
	svc *campaign.Service
}

func registerCampaignAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := campaignApi{svc: deps.CampaignSvc}

	cg := g.Group("/campaigns", jwt, adminMiddleware())
	cg.GET("", api.query)
	cg.POST("", api.create)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/transition", api.transition)
	dg.GET("/escalations", api.escalations)
	dg.POST("/escalations", api.escalate)

	eg := g.Group("/escalations/:id", jwt, adminMiddleware())
	eg.POST("/acknowledge", api.acknowledge)
	eg.POST("/resolve", api.resolve)
}

func (api *campaignApi) query(ctx echo.Context) error {
	filter := new(campaign.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []campaign.Campaign{})
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	cmps, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying campaigns")
	}
	if cmps == nil {
		cmps = []campaign.Campaign{}
	}
	return ctx.JSON(http.StatusOK, cmps)
}

func (api *campaignApi) create(ctx echo.Context) error {
	var data campaign.NewCampaign
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCampaign")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cmp, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating campaign")
	}
	return ctx.JSON(http.StatusCreated, cmp)
}

func (api *campaignApi) retrieve(ctx echo.Context) error {
	cmp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding campaign")
	}
	return ctx.JSON(http.StatusOK, cmp)
}

func (api *campaignApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting campaign")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *campaignApi) transition(ctx echo.Context) error {
	var data TransitionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cmp, err := api.svc.Transition(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "transitioning campaign")
	}
	return ctx.JSON(http.StatusOK, cmp)
}

func (api *campaignApi) escalations(ctx echo.Context) error {
	escs, err := api.svc.Escalations(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying escalations")
	}
	if escs == nil {
		escs = []campaign.Escalation{}
	}
	return ctx.JSON(http.StatusOK, escs)
}

func (api *campaignApi) escalate(ctx echo.Context) error {
	var data campaign.NewEscalation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEscalation")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	esc, err := api.svc.Escalate(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "raising escalation")
	}
	return ctx.JSON(http.StatusCreated, esc)
}

func (api *campaignApi) acknowledge(ctx echo.Context) error {
	esc, err := api.svc.Acknowledge(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "acknowledging escalation")
	}
	return ctx.JSON(http.StatusOK, esc)
}

func (api *campaignApi) resolve(ctx echo.Context) error {
	esc, err := api.svc.Resolve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resolving escalation")
	}
	return ctx.JSON(http.StatusOK, esc)
}
