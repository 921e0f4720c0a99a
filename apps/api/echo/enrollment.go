package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/enrollment"
)

type enrollmentApi struct {
	svc *enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := enrollmentApi{svc: deps.EnrollmentSvc}

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.query)

	cg := g.Group("/courses/:id", jwt)
	cg.POST("/enroll", api.enroll)
	cg.POST("/assign", api.assign, adminMiddleware())
	cg.GET("/enrollment", api.retrieve)
	cg.POST("/playback", api.trackPlayback)
	cg.POST("/playback/close", api.closeSession)
	cg.GET("/progress", api.lessonProgress)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}

	// learners only see their own enrollments
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		filter.UserID = claims.Subject
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	enrs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

// enroll is idempotent: re-enrolling returns the existing enrollment.
func (api *enrollmentApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.svc.EnsureEnrolled(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "enrolling user")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) assign(ctx echo.Context) error {
	var data enrollment.AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	enrs, err := api.svc.Assign(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "assigning course")
	}
	return ctx.JSON(http.StatusCreated, enrs)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	userID := claims.Subject
	if uid := ctx.QueryParam("user"); uid != "" && claims.IsAdmin {
		userID = uid
	}

	enr, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), userID)
	if err != nil {
		return errors.Wrap(err, "finding enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

// trackPlayback ingests a playback heartbeat. Most samples are absorbed in
// memory; Persisted reports whether this one was flushed to the database.
func (api *enrollmentApi) trackPlayback(ctx echo.Context) error {
	var data PlaybackSample
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlaybackSample")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	lessonID := data.LessonID
	if lessonID == "" {
		lessonID = ctx.Param("id") // video-only course: implicit lesson
	}
	persisted, err := api.svc.TrackPlayback(
		ctx.Request().Context(), ctx.Param("id"), lessonID, claims.Subject, data.Position, data.Duration)
	if err != nil {
		return errors.Wrap(err, "tracking playback")
	}
	return ctx.JSON(http.StatusOK, PlaybackResponse{Persisted: persisted})
}

func (api *enrollmentApi) closeSession(ctx echo.Context) error {
	var data CloseSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CloseSessionRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	lessonID := data.LessonID
	if lessonID == "" {
		lessonID = ctx.Param("id")
	}
	api.svc.CloseSession(claims.Subject, lessonID)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Session closed."})
}

func (api *enrollmentApi) lessonProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	userID := claims.Subject
	if uid := ctx.QueryParam("user"); uid != "" && claims.IsAdmin {
		userID = uid
	}

	progress, err := api.svc.LessonProgress(ctx.Request().Context(), ctx.Param("id"), userID)
	if err != nil {
		return errors.Wrap(err, "querying lesson progress")
	}
	if progress == nil {
		progress = []enrollment.LessonProgress{}
	}
	return ctx.JSON(http.StatusOK, progress)
}
