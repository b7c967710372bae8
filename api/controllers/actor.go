package controllers

import (
	"net/http"
	"strings"
)

const (
	actorHeader  = "X-Actor"
	defaultActor = "admin"
)

// actorFrom identifies who performed the request for audit attribution. The
// dashboard sends the operator's handle; absent that, actions are recorded as
// the generic admin.
func actorFrom(r *http.Request) string {
	actor := strings.TrimSpace(r.Header.Get(actorHeader))
	if actor == "" {
		return defaultActor
	}
	return actor
}
