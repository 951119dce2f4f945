// Package onlyfans provides a client for the platform's private web API.
//
// Every API request carries the browser-session identity (cookie, user
// agent, x-bc token) plus a per-request signature derived from rules the
// platform rotates regularly. The rules are fetched at startup with
// FetchHeaderRules and handed to the client; signing itself is handled
// transparently on every request.
//
// The client exposes the feed endpoints the scraper walks (posts, archived
// posts, messages, stories, highlights, subscriptions) and a raw Download
// method for the signed CDN URLs embedded in feed responses. CDN requests
// are not signed; they carry their authorization in the URL itself.
//
// All responses are decoded into the model types in this package and all
// failures are mapped to the typed errors in pkg/errors, so callers can
// distinguish an expired session from a vanished media item without
// inspecting status codes.
package onlyfans
