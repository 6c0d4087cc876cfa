// Package http exposes the booking dashboard over a JSON HTTP API.
//
// Routes:
//
//	POST   /sessions                  authenticate an operator
//	DELETE /sessions/current          revoke the caller's own session
//	DELETE /sessions/{token}          revoke any session (administrators)
//	GET    /bookings                  list bookings
//	POST   /bookings                  create a booking
//	PUT    /bookings/{id}             update a booking
//	DELETE /bookings/{id}             delete a booking (administrators)
//	POST   /bookings/{id}/cancel      cancel a booking
//	GET    /rooms                     list rooms
//	POST   /rooms                     create a room (administrators)
//	PUT    /rooms/{id}                update a room (administrators)
//	DELETE /rooms/{id}                delete a room (administrators)
//	PUT    /rooms/{id}/availability   flip a room's availability flag
//	GET    /operators                 list operators (administrators)
//	POST   /operators                 create an operator (administrators)
//	PUT    /operators/{id}            update an operator (administrators)
//	DELETE /operators/{id}            delete an operator (administrators)
//	GET    /dashboard                 latest tick snapshot as JSON
//	GET    /dashboard/stream          per-tick snapshots over server-sent events
//
// Handlers translate service errors to status codes and localized messages;
// RequireSession resolves the session token into a principal before protected
// handlers run.
package http
