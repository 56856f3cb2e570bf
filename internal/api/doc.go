// Package api implements the REST surface of remoshockserver.
//
// Every endpoint under /remoshock/ requires the web authentication token;
// commands and randomizer control additionally need the control scope.
// Responses use one JSON envelope with a correlation ID.
package api
