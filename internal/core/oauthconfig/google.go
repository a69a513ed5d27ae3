// Package oauthconfig resolves the Google OAuth client settings and reports
// every problem it finds instead of failing on the first one.
package oauthconfig

import "strings"

// CallbackPath is appended to FRONTEND_URL when no redirect URI is configured.
const CallbackPath = "/auth/google/callback"

// Diagnostic messages. Operators grep for the variable names.
const (
	MsgMissingClientID     = "GOOGLE_CLIENT_ID is not configured"
	MsgMissingClientSecret = "GOOGLE_CLIENT_SECRET is not configured"
	MsgMissingRedirect     = "GOOGLE_REDIRECT_URI is not configured and FRONTEND_URL is empty; redirect URI cannot be resolved"
	MsgDerivedRedirect     = "GOOGLE_REDIRECT_URI is not configured; derived from FRONTEND_URL, make sure it is registered in the Google console: "
)

// Env is the raw configuration the resolver reads.
type Env struct {
	ClientID     string
	ClientSecret string
	// ClientSecretNew is consulted when ClientSecret is empty, for secret rotation.
	ClientSecretNew string
	RedirectURI     string
	FrontendURL     string
}

// Google is the resolved client configuration.
type Google struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Errors       []string
	Warnings     []string
}

// OK reports whether the configuration can be used for a code exchange.
func (g Google) OK() bool { return len(g.Errors) == 0 }

// Resolve derives the Google OAuth configuration from env. It is recomputed on
// every call so configuration changes take effect without a restart.
func Resolve(env Env) Google {
	g := Google{
		ClientID:     strings.TrimSpace(env.ClientID),
		ClientSecret: strings.TrimSpace(env.ClientSecret),
		Errors:       []string{},
		Warnings:     []string{},
	}
	if g.ClientSecret == "" {
		g.ClientSecret = strings.TrimSpace(env.ClientSecretNew)
	}

	if g.ClientID == "" {
		g.Errors = append(g.Errors, MsgMissingClientID)
	}
	if g.ClientSecret == "" {
		g.Errors = append(g.Errors, MsgMissingClientSecret)
	}

	redirect := strings.TrimSpace(env.RedirectURI)
	frontend := strings.TrimSpace(env.FrontendURL)
	switch {
	case redirect != "":
		g.RedirectURI = redirect
	case frontend != "":
		g.RedirectURI = strings.TrimSuffix(frontend, "/") + CallbackPath
		g.Warnings = append(g.Warnings, MsgDerivedRedirect+g.RedirectURI)
	default:
		g.Errors = append(g.Errors, MsgMissingRedirect)
	}

	return g
}
