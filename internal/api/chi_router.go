// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/larder/internal/auth"
	"github.com/tomtom215/larder/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires the handler, authentication and middleware factories.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil chiMW uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMW, chiMiddleware: chiMW}
}

// SetupChi configures all HTTP routes. Trailing slashes are stripped before
// routing so /api/tags and /api/tags/ are the same route.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(router.chiMiddleware.CORS())
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondNotFound(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed,
			"Method \""+r.Method+"\" not allowed.", nil)
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle(h.media.URLPrefix()+"/*", h.MediaFiles())
	r.With(router.chiMiddleware.RateLimit()).Get("/s/{code}", h.ResolveShortLink)

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(router.auth.Optional)

		r.Route("/auth/token", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/login", h.Login)
			r.With(router.auth.Required).Post("/logout", h.Logout)
		})

		r.Get("/tags", h.ListTags)
		r.Get("/tags/{id}", h.GetTag)
		r.Get("/ingredients", h.ListIngredients)
		r.Get("/ingredients/{id}", h.GetIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.ListRecipes)
			r.Post("/", h.CreateRecipe)
			r.With(router.auth.Required).Get("/download_shopping_cart", h.DownloadShoppingCart)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRecipe)
				r.Patch("/", h.UpdateRecipe)
				r.Delete("/", h.DeleteRecipe)
				r.Get("/get-link", h.GetLink)

				r.Group(func(r chi.Router) {
					r.Use(router.auth.Required)
					r.Post("/favorite", h.AddFavorite)
					r.Delete("/favorite", h.RemoveFavorite)
					r.Post("/shopping_cart", h.AddToCart)
					r.Delete("/shopping_cart", h.RemoveFromCart)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)

			r.Group(func(r chi.Router) {
				r.Use(router.auth.Required)
				r.Get("/me", h.Me)
				r.Delete("/me", h.DeleteMe)
				r.Put("/me/avatar", h.SetAvatar)
				r.Delete("/me/avatar", h.DeleteAvatar)
				r.Post("/set_password", h.SetPassword)
				r.Get("/subscriptions", h.Subscriptions)
				r.Post("/{id}/subscribe", h.Subscribe)
				r.Delete("/{id}/subscribe", h.Unsubscribe)
			})

			r.Get("/{id}", h.GetUser)
		})
	})

	return r
}

// MediaFiles serves uploaded images. Directory listings are not served.
func (h *Handler) MediaFiles() http.Handler {
	fs := http.FileServer(filesOnly{http.Dir(h.media.Root())})
	return http.StripPrefix(h.media.URLPrefix(), fs)
}

// filesOnly hides directories from http.FileServer.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, errors.Join(os.ErrNotExist, errors.New("directory listing disabled"))
	}
	return file, nil
}
