// Package http provides HTTP handlers and middleware for the room booking API.
//
// The router exposes the following endpoints:
//   - GET /rooms, POST /rooms, GET /rooms/{id}, PUT /rooms/{id},
//     DELETE /rooms/{id}: room catalog endpoints exchanging the `roomDTO`
//     payload defined in room_handler.go.
//   - GET /periods, POST /periods, PUT /periods/{id}, DELETE /periods/{id}:
//     schedule period endpoints exchanging the `periodDTO` payload defined
//     in period_handler.go.
//   - GET /reservations, POST /reservations, GET /reservations/{id},
//     PUT /reservations/{id}, DELETE /reservations/{id}: reservation
//     endpoints. Creation accepts an optional `recurrence` block for weekly
//     series and a `dry_run` flag; updates and deletes accept a `scope`
//     query parameter (single, series, future) and deletes a password.
//   - GET /series/{id}, POST /series/{id}/repair, POST /series/{id}/extend:
//     week-by-week series inspection and repair.
//   - GET /events: server-sent event stream of reservation changes.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
