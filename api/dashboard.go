package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/labor-calculator/coverage"
	"github.com/warp/labor-calculator/report"
	"github.com/warp/labor-calculator/session"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// formField describes one calculator input.
type formField struct {
	Name  string
	Label string
	Step  string
	Min   string
	Max   string
}

var calculatorFields = []formField{
	{Name: "numberOfWorkers", Label: "Number of workers", Step: "1", Min: "1", Max: "10000"},
	{Name: "currentWeekHoursPerWorker", Label: "Current week hours per worker", Step: "any", Min: "1", Max: "168"},
	{Name: "targetWeekHoursPerWorker", Label: "Target week hours per worker", Step: "any", Min: "1", Max: "168"},
	{Name: "maxExtraHoursPerWorker", Label: "Max extra hours per worker", Step: "any", Min: "0", Max: "50"},
	{Name: "hourlyRate", Label: "Hourly rate ($)", Step: "0.01", Min: "0.01", Max: "1000"},
}

type loginView struct {
	Email     string
	Error     string
	Providers []string
}

type dashboardView struct {
	User      *session.Session
	Fields    []formField
	Values    map[string]string
	Errors    map[string]string
	Scenarios []ScenarioDTO
	Summary   *report.SummaryRow
	Rows      []report.Row
}

// Dashboard renders the calculator form, prefilled from ?scenario= if given.
// GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	cfg := scenarios[0].Configuration
	if id := r.URL.Query().Get("scenario"); id != "" {
		if sc, ok := findScenario(id); ok {
			cfg = sc.Configuration
		}
	}
	h.renderDashboard(w, r, http.StatusOK, dashboardView{Values: formValues(cfg)})
}

// DashboardCalculate handles the calculator form submission.
// POST /dashboard
func (h *Handler) DashboardCalculate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form submission", err)
		return
	}

	view := dashboardView{Values: map[string]string{}}
	for _, f := range calculatorFields {
		view.Values[f.Name] = strings.TrimSpace(r.PostForm.Get(f.Name))
	}

	cfg, fieldErrs := parseForm(view.Values)
	if len(fieldErrs) > 0 {
		h.Metrics.Calculations.WithLabelValues("invalid", "dashboard").Inc()
		view.Errors = fieldErrs
		h.renderDashboard(w, r, http.StatusBadRequest, view)
		return
	}

	proposals, err := h.calculate(cfg, "dashboard")
	if err != nil {
		var invalid *coverage.InvalidConfigurationError
		if errors.As(err, &invalid) {
			view.Errors = invalid.Messages()
			h.renderDashboard(w, r, http.StatusBadRequest, view)
			return
		}
		writeError(w, http.StatusInternalServerError, "Calculation failed", err)
		return
	}

	sum := report.FormatSummary(coverage.Summarize(cfg))
	view.Summary = &sum
	view.Rows = report.Rows(proposals)
	h.renderDashboard(w, r, http.StatusOK, view)
}

// parseForm converts raw form values into a configuration. Unparseable
// values are reported per field; range checks are left to coverage.Validate.
func parseForm(values map[string]string) (coverage.Configuration, map[string]string) {
	errs := map[string]string{}
	number := func(name string) float64 {
		v, err := strconv.ParseFloat(values[name], 64)
		if err != nil {
			errs[name] = "must be a number"
		}
		return v
	}

	var cfg coverage.Configuration
	workers, err := strconv.Atoi(values["numberOfWorkers"])
	if err != nil {
		errs["numberOfWorkers"] = "must be a whole number"
	}
	cfg.NumberOfWorkers = workers
	cfg.CurrentWeekHoursPerWorker = number("currentWeekHoursPerWorker")
	cfg.TargetWeekHoursPerWorker = number("targetWeekHoursPerWorker")
	cfg.MaxExtraHoursPerWorker = number("maxExtraHoursPerWorker")
	cfg.HourlyRate = number("hourlyRate")
	return cfg, errs
}

func formValues(cfg coverage.Configuration) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return map[string]string{
		"numberOfWorkers":           strconv.Itoa(cfg.NumberOfWorkers),
		"currentWeekHoursPerWorker": f(cfg.CurrentWeekHoursPerWorker),
		"targetWeekHoursPerWorker":  f(cfg.TargetWeekHoursPerWorker),
		"maxExtraHoursPerWorker":    f(cfg.MaxExtraHoursPerWorker),
		"hourlyRate":                f(cfg.HourlyRate),
	}
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, view dashboardView) {
	view.User = session.FromContext(r.Context())
	view.Fields = calculatorFields
	view.Scenarios = scenarios
	h.render(w, status, "dashboard.html", view)
}

func (h *Handler) renderLogin(w http.ResponseWriter, status int, email, msg string) {
	h.render(w, status, "login.html", loginView{
		Email:     email,
		Error:     msg,
		Providers: h.Config.OAuthProviders,
	})
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		h.Logger.Error("render template", zap.String("template", name), zap.Error(err))
	}
}
