// Package auth implements API-key authentication for the monitoring API.
// A key carried in a configurable request header maps to a principal: the
// admin key grants access to every endpoint, a tenant key only to that
// tenant's own metrics. Mode "none" disables the check and treats every
// caller as admin — meant for local development.
package auth
