package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/enrollment"
)

type courseApi struct {
	svc        *course.Service
	enrollSvc  *enrollment.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := courseApi{svc: deps.CourseSvc, enrollSvc: deps.EnrollmentSvc}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/publish", api.publish, adminMiddleware())
	dg.POST("/archive", api.archive, adminMiddleware())
	dg.POST("/video", api.uploadVideo, adminMiddleware())

	dg.GET("/lessons", api.lessons)
	dg.POST("/lessons", api.addLesson, adminMiddleware())
	dg.PUT("/lessons/:lessonID", api.updateLesson, adminMiddleware())
	dg.DELETE("/lessons/:lessonID", api.deleteLesson, adminMiddleware())
}

// courseResponse augments a course with its resolved video URL.
type courseResponse struct {
	course.Course
	VideoURL string `json:"video_url,omitempty"`
}

func (api *courseApi) response(crs course.Course) courseResponse {
	return courseResponse{Course: crs, VideoURL: api.svc.VideoURL(crs)}
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []courseResponse{})
	}

	// learners only see published courses
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		filter.Status = course.StatusPublished
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	res := make([]courseResponse, 0, len(courses))
	for _, crs := range courses {
		res = append(res, api.response(crs))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, api.response(crs))
}

// retrieve returns a course; viewing it auto-enrolls the learner so first
// content access always yields an enrollment row.
func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && !crs.IsPublished() {
		return errHttpNotFound
	}
	if claims.IsLearner {
		if _, err := api.enrollSvc.EnsureEnrolled(ctx.Request().Context(), crs.ID, claims.Subject); err != nil {
			return errors.Wrap(err, "enrolling viewer")
		}
	}
	return ctx.JSON(http.StatusOK, api.response(crs))
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc, crs); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, api.response(crs))
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) publish(ctx echo.Context) error {
	crs, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing course")
	}
	return ctx.JSON(http.StatusOK, api.response(crs))
}

func (api *courseApi) archive(ctx echo.Context) error {
	crs, err := api.svc.Archive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "archiving course")
	}
	return ctx.JSON(http.StatusOK, api.response(crs))
}

func (api *courseApi) uploadVideo(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	crs, err := api.svc.AttachVideo(
		ctx.Request().Context(), ctx.Param("id"), fh.Filename, f, fh.Header.Get("Content-Type"))
	if err != nil {
		return errors.Wrap(err, "attaching course video")
	}
	return ctx.JSON(http.StatusOK, api.response(crs))
}

func (api *courseApi) lessons(ctx echo.Context) error {
	lessons, err := api.svc.Lessons(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []course.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) addLesson(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn, err := api.svc.AddLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	lsn, err := api.svc.GetLesson(ctx.Request().Context(), ctx.Param("lessonID"))
	if err != nil {
		return errors.Wrap(err, "finding lesson")
	}

	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn.Title = data.Title
	lsn.Position = data.Position
	lsn.Duration = data.Duration
	lsn.Required = data.Required
	lsn.Content = data.Content

	lsn, err = api.svc.UpdateLesson(ctx.Request().Context(), lsn)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) deleteLesson(ctx echo.Context) error {
	if err := api.svc.DeleteLesson(ctx.Request().Context(), ctx.Param("lessonID")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}
