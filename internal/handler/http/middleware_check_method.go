// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CheckHTTPMethod returns the router's MethodNotAllowed handler. A request
// whose method is not registered for its route is answered with 404 instead
// of chi's default 405, so unsupported methods do not reveal routes.
//
// Only exact route patterns are compared against the request path;
// parameterised routes always fall through to 404.
//
//	router := chi.NewRouter()
//	// ... register routes ...
//	router.MethodNotAllowed(CheckHTTPMethod(router))
func CheckHTTPMethod(router *chi.Mux) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var foundRoute chi.Route
		for _, route := range router.Routes() {
			if route.Pattern == r.URL.Path {
				foundRoute = route
				break
			}
		}

		if _, ok := foundRoute.Handlers[r.Method]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		// the method is registered, delegate to the normal pipeline
		router.ServeHTTP(w, r)
	}
}
