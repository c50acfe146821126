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
Package server contains the code for the graph database server.

The server opens a single disk storage engine, registers the REST endpoints
for it and runs an HTTP listener until it is shut down. The engine files and
the lockfile are created relative to the current working directory.

If the ShardEndpoints config option lists engine endpoints then the server
also builds a shard router over them and serves the sharded front-end under
the dist endpoint.
*/
package server

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"devt.de/krotik/common/httputil"
	"devt.de/krotik/common/lockutil"

	v1 "devt.de/krotik/shardgraph/api/v1"
	"devt.de/krotik/shardgraph/cluster"
	"devt.de/krotik/shardgraph/config"
	"devt.de/krotik/shardgraph/graph"
	"devt.de/krotik/shardgraph/storage"
)

/*
Using custom consolelogger type so we can test log.Fatal calls with unit
tests. Overwrite these if the server should not call os.Exit on a fatal
error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(log.Print)

/*
Server is a running graph database server.
*/
type Server struct {
	GM     *graph.Manager       // Graph manager of the server
	Router *cluster.Router      // Shard router (only set if shards are configured)
	hs     *httputil.HTTPServer // HTTP listener
	lf     *lockutil.LockFile   // Lockfile of the server

	wg sync.WaitGroup // Wait group tracking the listener
}

/*
StartServer starts the graph database server using the loaded configuration.
The function returns once the HTTP listener is up.
*/
func StartServer() (*Server, error) {
	print("Starting server ", config.ProductVersion)

	// Take the lockfile so a second server cannot run on the same database

	lf := lockutil.NewLockFile(config.Str(config.LockFile), time.Duration(2)*time.Second)

	if err := lf.Start(); err != nil {
		return nil, fmt.Errorf("Could not take lockfile: %v", err)
	}

	// Open the storage engine

	se, err := storage.NewDiskStorageEngine(config.Str(config.DBName))
	if err != nil {
		lf.Finish()
		return nil, err
	}

	gm := graph.NewGraphManager(se, config.Int(config.NeighbourQueryTTL))

	// Register the REST endpoints

	v1.RegisterV1Endpoints(http.DefaultServeMux, gm)

	// Build the shard router if shards are configured and serve the
	// sharded front-end

	var router *cluster.Router

	if endpoints := config.StrSlice(config.ShardEndpoints); len(endpoints) > 0 {

		if router, err = cluster.NewHTTPRouter(endpoints, 0); err != nil {
			gm.Close()
			lf.Finish()
			return nil, err
		}

		v1.RegisterDistEndpoints(http.DefaultServeMux, router)

		print("Routing to ", len(endpoints), " shards")
	}

	// Start the HTTP listener

	srv := &Server{GM: gm, Router: router, hs: &httputil.HTTPServer{}, lf: lf}

	laddr := fmt.Sprintf("%v:%v", config.Str(config.HTTPHost), config.Str(config.HTTPPort))

	srv.wg.Add(1)

	go srv.hs.RunHTTPServer(laddr, &srv.wg)

	srv.wg.Wait()

	if srv.hs.LastError != nil {
		gm.Close()
		lf.Finish()
		return nil, srv.hs.LastError
	}

	print("Listening on ", laddr)

	srv.wg.Add(1)

	return srv, nil
}

/*
Shutdown stops the server and closes the storage engine.
*/
func (srv *Server) Shutdown() {
	print("Shutting down")

	srv.hs.Shutdown()
	srv.wg.Wait()

	if err := srv.GM.Close(); err != nil {
		print("Could not close storage: ", err)
	}

	if err := srv.lf.Finish(); err != nil {
		print("Could not release lockfile: ", err)
	}
}
