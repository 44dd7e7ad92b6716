package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
)

const defaultParseRunsLimit = 20

type journalApi struct {
	conf *core.Config
	svc  *journal.Service
}

func registerJournalAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *journal.Service) {
	api := journalApi{conf: conf, svc: svc}

	g.POST("/auth/login", api.login)

	g.GET("/groups", api.queryGroups)
	g.GET("/groups/:id", api.retrieveGroup)
	g.GET("/groups/:id/subjects", api.queryGroupSubjects)
	g.GET("/groups/:id/students", api.queryGroupStudents)

	g.GET("/grades", api.gradeGrid)
	g.GET("/topics", api.queryTopics)
	g.GET("/stats", api.subjectStats)
	g.GET("/stats/rating/absences", api.absenceRating)
	g.GET("/stats/rating/grades", api.gradeRating)

	sg := g.Group("/student")
	sg.GET("/by-fio", api.studentByFIO)
	sg.GET("/subjects", api.studentSubjects)
	sg.GET("/grades", api.studentGrades)
	sg.GET("/stats", api.studentStats)
	sg.GET("/fio-by-telegram-id", api.studentFIOByTelegramID)

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/parse-runs", api.queryParseRuns)
}

// Handlers

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr loginRequest) Validate() error {
	return core.Validate.Struct(lr)
}

func (api *journalApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(api.conf, data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}

func (api *journalApi) queryGroups(ctx echo.Context) error {
	groups, err := api.svc.Groups(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *journalApi) retrieveGroup(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	grp, err := api.svc.GroupByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *journalApi) queryGroupSubjects(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	subjects, err := api.svc.Subjects(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *journalApi) queryGroupStudents(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	students, err := api.svc.Students(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *journalApi) gradeGrid(ctx echo.Context) error {
	subjectID, err := requiredIntQuery(ctx, "subject_id")
	if err != nil {
		return err
	}
	grid, err := api.svc.GradeGrid(ctx.Request().Context(), subjectID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grid)
}

func (api *journalApi) queryTopics(ctx echo.Context) error {
	subjectID, err := requiredIntQuery(ctx, "subject_id")
	if err != nil {
		return err
	}
	topics, err := api.svc.Topics(ctx.Request().Context(), subjectID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *journalApi) subjectStats(ctx echo.Context) error {
	subjectID, err := requiredIntQuery(ctx, "subject_id")
	if err != nil {
		return err
	}
	stats, err := api.svc.SubjectStats(ctx.Request().Context(), subjectID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *journalApi) absenceRating(ctx echo.Context) error {
	groupID, limit, err := ratingQuery(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.AbsenceRating(ctx.Request().Context(), groupID, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *journalApi) gradeRating(ctx echo.Context) error {
	groupID, limit, err := ratingQuery(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.GradeRating(ctx.Request().Context(), groupID, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *journalApi) studentByFIO(ctx echo.Context) error {
	fio := ctx.QueryParam("fio")
	if fio == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fio query parameter is required")
	}
	groupID, err := intQuery(ctx, "group_id", 0)
	if err != nil {
		return err
	}
	student, err := api.svc.StudentByFIO(ctx.Request().Context(), fio, groupID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *journalApi) studentSubjects(ctx echo.Context) error {
	studentID, err := requiredIntQuery(ctx, "student_id")
	if err != nil {
		return err
	}
	subjects, err := api.svc.StudentSubjects(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *journalApi) studentGrades(ctx echo.Context) error {
	studentID, err := requiredIntQuery(ctx, "student_id")
	if err != nil {
		return err
	}
	subjectID, err := intQuery(ctx, "subject_id", 0)
	if err != nil {
		return err
	}
	rows, err := api.svc.StudentGrades(ctx.Request().Context(), studentID, subjectID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *journalApi) studentStats(ctx echo.Context) error {
	studentID, err := requiredIntQuery(ctx, "student_id")
	if err != nil {
		return err
	}
	overview, err := api.svc.StudentOverview(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (api *journalApi) studentFIOByTelegramID(ctx echo.Context) error {
	raw := ctx.QueryParam("telegram_id")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "telegram_id query parameter is required")
	}
	telegramID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid telegram_id")
	}
	tu, err := api.svc.BotUser(ctx.Request().Context(), telegramID)
	if err != nil {
		return err
	}
	if !tu.IsRegistered {
		return journal.ErrStudentNotFound
	}
	return ctx.JSON(http.StatusOK, echo.Map{"fio": tu.FullName})
}

func (api *journalApi) queryParseRuns(ctx echo.Context) error {
	limit, err := intQuery(ctx, "limit", defaultParseRunsLimit)
	if err != nil {
		return err
	}
	runs, err := api.svc.ParseRuns(ctx.Request().Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, runs)
}

// Query helpers

func intParam(ctx echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

func intQuery(ctx echo.Context, name string, dflt int) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return dflt, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

func requiredIntQuery(ctx echo.Context, name string) (int, error) {
	if ctx.QueryParam(name) == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s query parameter is required", name))
	}
	return intQuery(ctx, name, 0)
}

func ratingQuery(ctx echo.Context) (groupID, limit int, err error) {
	if groupID, err = requiredIntQuery(ctx, "group_id"); err != nil {
		return 0, 0, err
	}
	if limit, err = intQuery(ctx, "limit", 0); err != nil {
		return 0, 0, err
	}
	return groupID, limit, nil
}
