/*
 * ShardGraph
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package api contains the REST endpoint framework of the graph database.

The REST API is a thin marshaling layer over the library surface of the
graph manager. Endpoint handlers are registered on a mux under their
endpoint URL - the part of a request path below the endpoint URL is split
into resources and handed to the method handler.
*/
package api

import (
	"net/http"
	"strings"
)

/*
APIRoot is the root directory for the REST API
*/
const APIRoot = "/db"

/*
APIVersion is the version of the REST API
*/
const APIVersion = "1.0.0"

/*
RestEndpointInst models a factory function for REST endpoint handlers.
*/
type RestEndpointInst func() RestEndpointHandler

/*
RestEndpointHandler models a handler object for REST calls.
*/
type RestEndpointHandler interface {

	/*
		HandleGET handles a GET request.
	*/
	HandleGET(w http.ResponseWriter, r *http.Request, resources []string)

	/*
		HandlePOST handles a POST request.
	*/
	HandlePOST(w http.ResponseWriter, r *http.Request, resources []string)

	/*
		HandlePUT handles a PUT request.
	*/
	HandlePUT(w http.ResponseWriter, r *http.Request, resources []string)

	/*
		HandleDELETE handles a DELETE request.
	*/
	HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string)
}

/*
RegisterRestEndpoints registers given REST endpoint handlers on a given mux.
*/
func RegisterRestEndpoints(mux *http.ServeMux, endpointInsts map[string]RestEndpointInst) {
	for url, endpointInst := range endpointInsts {
		url, endpointInst := url, endpointInst

		mux.HandleFunc(url, func(w http.ResponseWriter, r *http.Request) {

			// Create a new handler instance

			handler := endpointInst()

			// Handle request in appropriate method

			res := strings.TrimSpace(r.URL.Path[len(url):])

			if res == "/" {
				res = ""
			}

			var resources []string

			if res != "" {
				resources = strings.Split(res, "/")
			}

			switch r.Method {
			case "GET":
				handler.HandleGET(w, r, resources)

			case "POST":
				handler.HandlePOST(w, r, resources)

			case "PUT":
				handler.HandlePUT(w, r, resources)

			case "DELETE":
				handler.HandleDELETE(w, r, resources)

			default:
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed),
					http.StatusMethodNotAllowed)
			}
		})
	}
}

/*
DefaultEndpointHandler is the default endpoint handler implementation.
*/
type DefaultEndpointHandler struct {
}

/*
HandleGET is a method stub returning an error.
*/
func (de *DefaultEndpointHandler) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

/*
HandlePOST is a method stub returning an error.
*/
func (de *DefaultEndpointHandler) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

/*
HandlePUT is a method stub returning an error.
*/
func (de *DefaultEndpointHandler) HandlePUT(w http.ResponseWriter, r *http.Request, resources []string) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

/*
HandleDELETE is a method stub returning an error.
*/
func (de *DefaultEndpointHandler) HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
