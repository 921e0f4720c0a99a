package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Reema362/avocop/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (prr *PasswordResetRequest) Validate() error {
	prr.Email = core.CleanString(prr.Email, true /* lower */)
	return core.Validate.Struct(prr)
}

type SuccessResponse struct {
	Success string `json:"success"`
}

// PlaybackSample is one player observation: where the playhead is and how long
// the media is, both in seconds.
type PlaybackSample struct {
	LessonID string  `json:"lesson_id"`
	Position float64 `json:"position" validate:"min=0"`
	Duration float64 `json:"duration" validate:"required,gt=0"`
}

func (ps *PlaybackSample) Validate() error { return core.Validate.Struct(ps) }

type PlaybackResponse struct {
	Persisted bool `json:"persisted"`
}

type CloseSessionRequest struct {
	LessonID string `json:"lesson_id"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (tr *TransitionRequest) Validate() error {
	tr.Status = core.CleanString(tr.Status, true /* lower */)
	return core.Validate.Struct(tr)
}

type StartSessionRequest struct {
	Topic string `json:"topic"`
}
