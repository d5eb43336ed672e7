// Package http provides HTTP handlers and middleware for the club scheduler API.
//
// Every response is wrapped in the envelope {"success","message","data","errors"};
// errors carries {"field","message"} pairs with Korean messages. The router
// exposes the following endpoints:
//   - POST /api/auth/register, POST /api/auth/login: body {"name","phone"}. The
//     response data is the camelCase identity {"userId","name","phone",
//     "isApproved","isAdmin","token"}; token is omitted while a member awaits
//     approval. Both routes are rate limited per client address.
//   - GET /api/auth/me: the caller's camelCase identity.
//   - GET /api/schedules?year&month, GET /api/schedules/my-participations,
//     GET/PUT/DELETE /api/schedules/{id}, POST /api/schedules: calendar
//     endpoints exchanging the snake_case scheduleDTO defined in dto.go. The
//     detail view adds "participants" and "description_html".
//   - POST/DELETE /api/schedules/{id}/participate and
//     /api/schedules/{id}/participate/{userID}: attendance declarations, the
//     second form for administrators acting on another member.
//   - GET /api/users, GET /api/users/pending, PATCH /api/users/{id}/approve,
//     PATCH /api/users/{id}/revoke, PUT/DELETE /api/users/{id}: administrator
//     member management.
//   - GET /health and GET /metrics: liveness and Prometheus metrics.
//
// Everything under /api except registration and login requires an
// "Authorization: Bearer <token>" header.
package http
