package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/quiz"
)

type quizApi struct {
	svc *quiz.Service
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := quizApi{svc: deps.QuizSvc}

	qg := g.Group("/quizzes", jwt)
	qg.GET("", api.query)
	qg.POST("", api.create, adminMiddleware())

	dg := qg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/publish", api.publish, adminMiddleware())
	dg.GET("/questions", api.questions)
	dg.POST("/questions", api.addQuestion, adminMiddleware())
	dg.POST("/submit", api.submit)
	dg.GET("/submissions", api.submissions)
	dg.GET("/leaderboard", api.leaderboard)
}

func (api *quizApi) query(ctx echo.Context) error {
	status := ctx.QueryParam("status")

	// learners only see published quizzes
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin {
		status = quiz.StatusPublished
	}

	quizzes, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("course"), status)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qz, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && qz.Status != quiz.StatusPublished {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) publish(ctx echo.Context) error {
	qz, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

// questions returns a quiz's questions. Correct answers are never serialized;
// grading happens server-side on submit.
func (api *quizApi) questions(ctx echo.Context) error {
	questions, err := api.svc.Questions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []quiz.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *quizApi) submit(ctx echo.Context) error {
	var data quiz.SubmitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *quizApi) submissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	userID := claims.Subject
	if claims.IsAdmin {
		userID = ctx.QueryParam("user") // empty = all users
	}

	subs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("id"), userID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []quiz.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *quizApi) leaderboard(ctx echo.Context) error {
	n, _ := strconv.Atoi(ctx.QueryParam("limit"))

	entries, err := api.svc.Leaderboard(ctx.Request().Context(), ctx.Param("id"), n)
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}
	if entries == nil {
		entries = []quiz.LeaderboardEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
