package main

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/httputil"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/middleware"
	"github.com/AdamBeresnev/ultimate-tournaments/static"
	"github.com/AdamBeresnev/ultimate-tournaments/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(app.sessionManager, app.userStore))

	fileServer := http.FileServer(http.FS(static.Files))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		views.Render(w, r, views.LoginPage(app.cfg.GuestLogin))
	})
	r.Get("/auth/{provider}", app.beginAuth)
	r.Get("/auth/{provider}/callback", app.completeAuth)
	if app.cfg.GuestLogin {
		r.Post("/auth/guest", app.guestLogin)
	}
	r.Post("/logout", app.logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/", app.indexPage)
		r.Get("/tournaments/{id}", app.tournamentPage)
		r.Get("/matches/{id}", app.matchPage)
	})

	r.Route("/api", app.apiRoutes)

	return r
}

// withProvider hands the chi route parameter to gothic, which reads it from
// the request context.
func withProvider(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), gothic.ProviderParamKey, chi.URLParam(r, "provider")))
}

func (app *application) beginAuth(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, withProvider(r))
}

func (app *application) completeAuth(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, withProvider(r))
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to log out", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (app *application) indexPage(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	tournaments, err := app.schedule.GetTournamentsForUser(r.Context(), actor)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournaments", err)
		return
	}
	views.Render(w, r, views.Index(tournaments))
}

func (app *application) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.NotFound(w, "Tournament not found", err)
		return
	}

	data, err := app.schedule.GetTournamentData(r.Context(), id)
	if err != nil {
		if httputil.StatusFor(err) == http.StatusNotFound {
			httputil.NotFound(w, "Tournament not found", err)
			return
		}
		httputil.InternalServerError(w, "Failed to get tournament", err)
		return
	}

	bracketData := views.PrepareBracketData(data.Teams, data.Matches)
	views.Render(w, r, views.TournamentView(data.Tournament, bracketData, data.NextMatchID))
}

func (app *application) matchPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.NotFound(w, "Match not found", err)
		return
	}

	data, err := app.matches.GetMatchViewData(r.Context(), id)
	if err != nil {
		if httputil.StatusFor(err) == http.StatusNotFound {
			httputil.NotFound(w, "Match not found", err)
			return
		}
		httputil.InternalServerError(w, "Failed to get match data", err)
		return
	}
	views.Render(w, r, views.MatchView(data.Match, data.TeamA, data.TeamB, data.Attendance, data.NextMatchID))
}
