package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/fbaunit/internal/export"
	"github.com/Simplici0/fbaunit/internal/pricing"
	"github.com/Simplici0/fbaunit/internal/profiles"
	"github.com/Simplici0/fbaunit/internal/report"
)

const (
	defaultGridSpread = 0.2
	defaultGridSteps  = 5
	maxGridSteps      = 41
	maxGridCells      = maxGridSteps * maxGridSteps
)

// rateSelector picks the rates of a request: inline rates win over a named profile,
// and an empty selector falls back to the server's default profile.
type rateSelector struct {
	Profile string              `json:"profile"`
	Rates   *pricing.RateConfig `json:"rates"`
}

type resolvedRates struct {
	Profile   string
	Currency  string
	Rates     pricing.RateConfig
	Scenarios []pricing.Scenario
}

func (s *server) resolve(ctx context.Context, sel rateSelector) (resolvedRates, error) {
	if sel.Rates != nil {
		if err := sel.Rates.Validate(); err != nil {
			return resolvedRates{}, err
		}
		return resolvedRates{Profile: "inline", Rates: *sel.Rates, Scenarios: pricing.DefaultScenarios()}, nil
	}

	name := strings.TrimSpace(sel.Profile)
	if name == "" {
		name = s.defaultProfile
	}
	p, err := s.profiles.Get(ctx, name)
	if err != nil {
		return resolvedRates{}, err
	}
	scenarios := p.Scenarios
	if len(scenarios) == 0 {
		scenarios = pricing.DefaultScenarios()
	}
	return resolvedRates{Profile: p.Name, Currency: p.Currency, Rates: p.Rates, Scenarios: scenarios}, nil
}

type calculateRequest struct {
	rateSelector
	Inputs pricing.UnitInputs `json:"inputs"`
}

type calculateResponse struct {
	Profile    string              `json:"profile"`
	Result     pricing.Result      `json:"result"`
	Projection *pricing.Projection `json:"projection,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "unavailable", "database unreachable")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	units, project, err := queryUnits(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := pricing.Compute(rates.Rates, req.Inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := calculateResponse{Profile: rates.Profile, Result: res}
	if project {
		p, err := pricing.Project(res, units)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Projection = &p
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *server) handleBreakEven(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	price, err := pricing.BreakEvenPrice(rates.Rates, req.Inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"profile":          rates.Profile,
		"break_even_price": price,
	})
}

type solveRequest struct {
	rateSelector
	Inputs          pricing.UnitInputs `json:"inputs"`
	TargetMarginPct *float64           `json:"target_margin_pct"`
	TierHint        string             `json:"tier_hint"`
}

func (s *server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TargetMarginPct == nil {
		writeError(w, r, fmt.Errorf("%w: target_margin_pct is required", pricing.ErrInvalidInput))
		return
	}
	hint, err := pricing.ParseTier(req.TierHint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sol, err := pricing.SolvePriceForMargin(rates.Rates, req.Inputs, *req.TargetMarginPct, hint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"profile":  rates.Profile,
		"solution": sol,
	})
}

type gridRequest struct {
	rateSelector
	Inputs           pricing.UnitInputs `json:"inputs"`
	PriceMultipliers []float64          `json:"price_multipliers"`
	CostMultipliers  []float64          `json:"cost_multipliers"`
	Spread           *float64           `json:"spread"`
	Steps            int                `json:"steps"`
}

// multipliers returns the explicit lists, filling any empty one with the
// sensitivity steps.
func (req gridRequest) multipliers() ([]float64, []float64, error) {
	spread := defaultGridSpread
	if req.Spread != nil {
		if err := checkFraction(*req.Spread, "spread"); err != nil {
			return nil, nil, err
		}
		spread = *req.Spread
	}
	steps := req.Steps
	if steps == 0 {
		steps = defaultGridSteps
	}
	if steps < 0 || steps > maxGridSteps {
		return nil, nil, fmt.Errorf("%w: steps must be in [1, %d]", pricing.ErrInvalidInput, maxGridSteps)
	}

	prices, costs := req.PriceMultipliers, req.CostMultipliers
	if len(prices) == 0 {
		prices = pricing.SensitivitySteps(spread, steps)
	}
	if len(costs) == 0 {
		costs = pricing.SensitivitySteps(spread, steps)
	}
	// Each axis is checked first so the product cannot overflow.
	if len(prices) > maxGridCells || len(costs) > maxGridCells || len(prices)*len(costs) > maxGridCells {
		return nil, nil, fmt.Errorf("%w: grid of %d x %d cells exceeds %d",
			pricing.ErrInvalidInput, len(prices), len(costs), maxGridCells)
	}
	return prices, costs, nil
}

func (s *server) handleGrid(w http.ResponseWriter, r *http.Request) {
	var req gridRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	prices, costs, err := req.multipliers()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	grid, err := pricing.RunGrid(rates.Rates, req.Inputs, prices, costs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, r, "grid.csv", export.GridRows(grid))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"profile": rates.Profile,
		"grid":    grid,
	})
}

type scenariosRequest struct {
	rateSelector
	Inputs    pricing.UnitInputs `json:"inputs"`
	Scenarios []pricing.Scenario `json:"scenarios"`
}

func (s *server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	var req scenariosRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = rates.Scenarios
	}

	results, err := pricing.RunNamed(rates.Rates, req.Inputs, scenarios)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, r, "scenarios.csv", export.NamedRows(results))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"profile":   rates.Profile,
		"scenarios": results,
	})
}

func (s *server) handleDiagnosis(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := pricing.Compute(rates.Rates, req.Inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"profile":   rates.Profile,
		"result":    res,
		"diagnosis": pricing.Diagnose(res),
	})
}

type reportRequest struct {
	rateSelector
	Title           string             `json:"title"`
	Inputs          pricing.UnitInputs `json:"inputs"`
	TargetMarginPct *float64           `json:"target_margin_pct"`
	TierHint        string             `json:"tier_hint"`
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	units, project, err := queryUnits(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.resolve(r.Context(), req.rateSelector)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := pricing.Compute(rates.Rates, req.Inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scenarios, err := pricing.RunNamed(rates.Rates, req.Inputs, rates.Scenarios)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in := report.Input{
		Title:     req.Title,
		Currency:  rates.Currency,
		Result:    res,
		Diagnosis: pricing.Diagnose(res),
		Scenarios: scenarios,
	}
	if req.TargetMarginPct != nil {
		hint, err := pricing.ParseTier(req.TierHint)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sol, err := pricing.SolvePriceForMargin(rates.Rates, req.Inputs, *req.TargetMarginPct, hint)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Target = &sol
		in.TargetPct = *req.TargetMarginPct
	}
	if project {
		p, err := pricing.Project(res, units)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Projection = &p
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.Markdown(in)))
		return
	}
	html, err := report.HTML(in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *server) handleProfilesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.profiles.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"profiles": list})
}

func (s *server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *server) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	var p profiles.Profile
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.Name = chi.URLParam(r, "name")

	if err := s.profiles.Upsert(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.profiles.Get(r.Context(), strings.TrimSpace(p.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stored)
}

func (s *server) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == s.defaultProfile {
		writeJSONError(w, r, http.StatusConflict, "conflict", "the default profile cannot be deleted")
		return
	}
	if err := s.profiles.Delete(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCSV(w http.ResponseWriter, r *http.Request, filename string, rows []export.Row) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}
