package main

import (
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/httputil"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/middleware"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/service"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (app *application) apiRoutes(r chi.Router) {
	r.Use(middleware.RequireActor)

	r.Get("/me", app.me)
	r.Put("/users/{id}/role", app.setRole)

	r.Get("/tournaments", app.listTournaments)
	r.Post("/tournaments", app.createTournament)
	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", app.getTournament)
		r.Post("/schedule", app.buildSchedule)
		r.Post("/bracket-phase", app.buildBracketPhase)
		r.Post("/swiss/next", app.nextSwissRound)
		r.Get("/standings", app.standings)
		r.Get("/matches", app.listMatches)
		r.Get("/teams", app.searchTeams)
		r.Post("/teams", app.addTeam)
		r.Post("/teams/import", app.importTeams)
	})

	r.Get("/teams/{id}/players", app.roster)
	r.Post("/teams/{id}/players", app.addPlayer)

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", app.getMatch)
		r.Get("/attendance", app.matchAttendance)
		r.Post("/attendance", app.recordAttendance)
		r.Post("/start", app.startMatch)
		r.Post("/complete", app.completeMatch)
		r.Post("/reopen", app.reopenMatch)

		r.Group(func(r chi.Router) {
			r.Use(app.scoreLimiter.Handler)
			r.Post("/score", app.recordScoreEvent)
			r.Put("/score", app.setScore)
		})
	})
}

func invalidInput(w http.ResponseWriter, msg string, err error) {
	slog.Warn("bad request", "message", msg, "error", err)
	httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// pathID parses the {id} route parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		invalidInput(w, "invalid id", err)
		return uuid.Nil, false
	}
	return id, true
}

func actor(r *http.Request) users.Actor {
	a, _ := middleware.ActorFromContext(r.Context())
	return a
}

func (app *application) me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, middleware.GetAuthenticatedUser(r.Context()))
}

func (app *application) setRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Role users.Role `json:"role"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	if err := app.users.SetRole(r.Context(), actor(r), id, req.Role); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.schedule.GetTournamentsForUser(r.Context(), actor(r))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var input service.TournamentInput
	if err := httputil.DecodeJSON(w, r, &input); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	id, err := app.schedule.CreateTournament(r.Context(), actor(r), input)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	data, err := app.schedule.GetTournamentData(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (app *application) buildSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	matches, err := app.schedule.BuildSchedule(r.Context(), actor(r), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (app *application) buildBracketPhase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	matches, err := app.schedule.BuildBracketPhase(r.Context(), actor(r), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (app *application) nextSwissRound(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	matches, err := app.schedule.NextSwissRound(r.Context(), actor(r), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, matches)
}

type standingResponse struct {
	service.TeamRecord
	Points       int `json:"points"`
	Differential int `json:"differential"`
}

func (app *application) standings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	records, err := app.schedule.Standings(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	resp := make([]standingResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, standingResponse{TeamRecord: rec, Points: rec.Points(), Differential: rec.Differential()})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (app *application) listMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	matches, err := app.matches.ListMatches(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (app *application) searchTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	teams, err := app.teams.SearchTeams(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}

func (app *application) addTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	team, err := app.teams.AddTeam(r.Context(), actor(r), id, req.Name)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, team)
}

func (app *application) importTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Names string `json:"names"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	teams, err := app.teams.ImportTeams(r.Context(), actor(r), id, req.Names)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, teams)
}

func (app *application) roster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	players, err := app.teams.Roster(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, players)
}

func (app *application) addPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name         string `json:"name"`
		JerseyNumber *int   `json:"jersey_number"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	player, err := app.teams.AddPlayer(r.Context(), actor(r), id, req.Name, req.JerseyNumber)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, player)
}

func (app *application) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	match, err := app.matches.GetMatch(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (app *application) matchAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	records, err := app.matches.MatchAttendance(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (app *application) recordAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		PlayerID uuid.UUID                `json:"player_id"`
		Status   bracket.AttendanceStatus `json:"status"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	record, err := app.matches.RecordAttendance(r.Context(), actor(r), id, req.PlayerID, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (app *application) startMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	match, err := app.matches.StartMatch(r.Context(), actor(r), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (app *application) recordScoreEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		TeamID uuid.UUID `json:"team_id"`
		Points int       `json:"points"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	match, err := app.matches.RecordScoreEvent(r.Context(), actor(r), id, req.TeamID, req.Points)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (app *application) setScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		ScoreA int `json:"score_a"`
		ScoreB int `json:"score_b"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		invalidInput(w, err.Error(), err)
		return
	}

	match, err := app.matches.SetScore(r.Context(), actor(r), id, req.ScoreA, req.ScoreB)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (app *application) completeMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Force bool `json:"force"`
	}
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			invalidInput(w, err.Error(), err)
			return
		}
	}

	result, err := app.matches.CompleteMatch(r.Context(), actor(r), id, req.Force)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (app *application) reopenMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	match, err := app.matches.ReopenMatch(r.Context(), actor(r), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}
