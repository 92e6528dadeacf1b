// Package backend is the typed client for the review backend's HTTP API.
//
// Every call takes the bearer credential explicitly; the client keeps no
// identity of its own. Non-2xx responses surface as *http.APIError with the
// body kept verbatim.
//
//	GET  /me                          -> {"role", "email"}
//	GET  /inbox                       -> {"items": [...]}
//	POST /content/{id}/approve        {"comment"?}
//	POST /content/{id}/reject         {"comment"?}
//	POST /content/{id}/audit-image    multipart "file"
//	POST /brands/{brandId}/audit-image multipart "file"
package backend
